package pipeline

import (
    "context"
    "mime/multipart"

    "github.com/zihao-lin/expenseflow/internal/models"
)

// TypeDocumentProcess tags progress records created for document batches.
const TypeDocumentProcess = "document:process"

// Orchestrator fans out per-document conversion and extraction and reports
// to the progress tracker.
type Orchestrator interface {
    // SubmitBatch validates and persists the uploaded files, fixes the
    // progress total at the accepted count and starts background processing.
    SubmitBatch(ctx context.Context, ownerID string, files []*multipart.FileHeader) (*models.BatchReceipt, error)
    // Preview returns the artifact path and content type for the 1-based
    // page of an uploaded document, converting on first request.
    Preview(ctx context.Context, ownerID, filename string, page int) (string, string, error)
    // GetExtraction returns the stored structured extraction result.
    GetExtraction(ctx context.Context, ownerID, filename string) (*models.ExtractedDocument, error)
    // Close releases the extraction client pool.
    Close() error
}
