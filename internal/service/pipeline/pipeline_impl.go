package pipeline

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "mime/multipart"
    "os"
    "path/filepath"
    "strings"

    "github.com/google/uuid"
    "golang.org/x/sync/errgroup"

    cfg "github.com/zihao-lin/expenseflow/config"
    "github.com/zihao-lin/expenseflow/internal/extraction"
    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/internal/preview"
    "github.com/zihao-lin/expenseflow/internal/utils/validator"
    "github.com/zihao-lin/expenseflow/pkg/converters"
    "github.com/zihao-lin/expenseflow/pkg/logger"
    "github.com/zihao-lin/expenseflow/pkg/progress"
    "github.com/zihao-lin/expenseflow/pkg/storage"
    "github.com/zihao-lin/expenseflow/pkg/storage/keys"
)

// ErrDocumentNotFound is returned when no uploaded document matches the
// requested filename for this owner.
var ErrDocumentNotFound = errors.New("document not found")

// 扩展名到 MIME 类型的映射
var extToMIME = map[string]string{
    ".jpg":  "image/jpeg",
    ".jpeg": "image/jpeg",
    ".png":  "image/png",
    ".tiff": "image/tiff",
    ".webp": "image/webp",
    ".pdf":  "application/pdf",
}

type ServiceConfig struct {
    UploadsDir     string
    MaxConcurrent  int
    PromptTemplate string
    Fields         []models.FieldDescriptor
    Categories     []models.Category
    Projects       []models.Project
}

type PipelineService struct {
    tracker   *progress.Tracker
    storage   storage.Storage
    converter *preview.Converter
    extractor extraction.Extractor
    results   converters.ResultConverter
    validator *validator.DocumentValidator
    logger    logger.Logger
    config    *ServiceConfig

    // schema and prompt are fixed for the lifetime of the service; field
    // definitions change only across restarts.
    schema map[string]interface{}
    prompt string
}

func NewService(
    tracker *progress.Tracker,
    store storage.Storage,
    converter *preview.Converter,
    extractor extraction.Extractor,
    docValidator *validator.DocumentValidator,
    log logger.Logger,
    config *ServiceConfig,
) Orchestrator {
    return &PipelineService{
        tracker:   tracker,
        storage:   store,
        converter: converter,
        extractor: extractor,
        results:   converters.NewExtractionConverter(),
        validator: docValidator,
        logger:    log,
        config:    config,
        schema:    extraction.BuildSchema(config.Fields),
        prompt:    extraction.BuildPrompt(config.PromptTemplate, config.Fields, config.Categories, config.Projects),
    }
}

// GetService wires the orchestrator from application config.
func GetService(tracker *progress.Tracker, log logger.Logger) (Orchestrator, error) {
    appConfig, err := cfg.GetAppConfig()
    if err != nil {
        return nil, err
    }

    store, err := storage.NewStorage(storage.StorageType(appConfig.Storage.Backend), log)
    if err != nil {
        return nil, fmt.Errorf("failed to initialize storage: %w", err)
    }

    converter := preview.NewConverter(&preview.Config{
        Dir:       appConfig.Preview.Dir,
        MaxPages:  appConfig.Preview.MaxPages,
        MaxWidth:  appConfig.Preview.MaxWidth,
        MaxHeight: appConfig.Preview.MaxHeight,
        Quality:   appConfig.Preview.Quality,
    }, preview.NewFitzRenderer(appConfig.Preview.DPI), log)

    validatorConfig := validator.DefaultConfig()
    validatorConfig.MaxFileSize = appConfig.Pipeline.MaxFileSize
    validatorConfig.MaxPageCount = appConfig.Pipeline.MaxPageCount

    return NewService(
        tracker,
        store,
        converter,
        extraction.NewClientPool(cfg.GetExtractorConfig()),
        validator.NewDocumentValidator(log, validatorConfig),
        log,
        &ServiceConfig{
            UploadsDir:     appConfig.Storage.UploadsDir,
            MaxConcurrent:  appConfig.Pipeline.MaxConcurrent,
            PromptTemplate: appConfig.Extraction.PromptTemplate,
            Fields:         appConfig.Extraction.Fields,
            Categories:     appConfig.Extraction.Categories,
            Projects:       appConfig.Extraction.Projects,
        },
    ), nil
}

type batchItem struct {
    index    int
    filename string
    path     string
}

// SubmitBatch 批量接收文档
func (s *PipelineService) SubmitBatch(ctx context.Context, ownerID string, files []*multipart.FileHeader) (*models.BatchReceipt, error) {
    progressID := uuid.New().String()
    receipt := &models.BatchReceipt{ProgressID: progressID}

    uploadDir := filepath.Join(s.config.UploadsDir, ownerID)
    if err := os.MkdirAll(uploadDir, 0755); err != nil {
        return nil, fmt.Errorf("failed to create upload directory: %w", err)
    }

    // Uploads, originals and results are all addressed by basename within
    // the owner's namespace, so a batch cannot carry the same name twice.
    seen := make(map[string]bool, len(files))

    var items []batchItem
    for _, header := range files {
        base := filepath.Base(header.Filename)
        if seen[base] {
            receipt.Rejected = append(receipt.Rejected, models.RejectedItem{
                Filename: header.Filename,
                Error:    "duplicate filename in batch",
            })
            continue
        }

        result, err := s.validator.ValidateFile(header)
        if err != nil {
            receipt.Rejected = append(receipt.Rejected, models.RejectedItem{
                Filename: header.Filename,
                Error:    err.Error(),
            })
            continue
        }
        if !result.IsValid {
            receipt.Rejected = append(receipt.Rejected, models.RejectedItem{
                Filename: header.Filename,
                Error:    result.ErrorSummary(),
            })
            continue
        }

        localPath := filepath.Join(uploadDir, base)
        if err := saveUpload(header, localPath); err != nil {
            s.logger.Error("Failed to persist upload",
                logger.String("filename", header.Filename),
                logger.Error(err),
            )
            receipt.Rejected = append(receipt.Rejected, models.RejectedItem{
                Filename: header.Filename,
                Error:    "failed to persist upload",
            })
            continue
        }

        seen[base] = true
        index := len(items)
        items = append(items, batchItem{index: index, filename: base, path: localPath})
        receipt.Accepted = append(receipt.Accepted, models.AcceptedItem{
            ItemIndex: index,
            Filename:  header.Filename,
            Size:      header.Size,
            StorageID: storage.ObjectKey(ownerID, keys.KindOriginals, base),
        })
    }

    if _, err := s.tracker.GetOrCreate(ctx, ownerID, progressID, TypeDocumentProcess); err != nil {
        return nil, fmt.Errorf("failed to create progress record: %w", err)
    }
    total := int64(len(items))
    if err := s.tracker.Update(ctx, ownerID, progressID, progress.Update{Total: &total}); err != nil {
        return nil, fmt.Errorf("failed to fix progress total: %w", err)
    }

    s.logger.Info("Batch accepted",
        logger.String("progressId", progressID),
        logger.String("ownerId", ownerID),
        logger.Int("accepted", len(items)),
        logger.Int("rejected", len(receipt.Rejected)),
    )

    // Processing is detached from the request: closing the upload response
    // or any progress subscription has no effect on the batch.
    go s.processBatch(context.WithoutCancel(ctx), ownerID, progressID, items)

    return receipt, nil
}

// processBatch 并发处理批次中的所有文档
func (s *PipelineService) processBatch(ctx context.Context, ownerID, progressID string, items []batchItem) {
    g, ctx := errgroup.WithContext(ctx)
    g.SetLimit(s.config.MaxConcurrent)

    for _, item := range items {
        item := item
        g.Go(func() error {
            // Item failures are isolated; they are recorded in the progress
            // data, never propagated to siblings.
            s.processItem(ctx, ownerID, progressID, item)
            return nil
        })
    }

    g.Wait()

    s.logger.Info("Batch processing finished",
        logger.String("progressId", progressID),
        logger.Int("items", len(items)),
    )
}

func (s *PipelineService) processItem(ctx context.Context, ownerID, progressID string, item batchItem) {
    defer func() {
        if r := recover(); r != nil {
            s.logger.Error("Item processing panicked",
                logger.String("filename", item.filename),
                logger.Any("panic", r),
            )
            s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindInternal, fmt.Sprintf("%v", r))
        }
        // Exactly one increment per item, success or failure.
        if err := s.tracker.Increment(ctx, ownerID, progressID, 1); err != nil {
            s.logger.Error("Failed to increment progress",
                logger.String("progressId", progressID),
                logger.Error(err),
            )
        }
    }()

    f, err := os.Open(item.path)
    if err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindStorage, err.Error())
        return
    }
    _, err = s.storage.Store(ctx, f, storage.ObjectKey(ownerID, keys.KindOriginals, item.filename))
    f.Close()
    if err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindStorage, err.Error())
        return
    }

    images, err := s.previewImages(ctx, ownerID, item.path)
    if err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindConversion, err.Error())
        return
    }

    raw, err := s.extractor.Extract(ctx, &extraction.Request{
        Prompt: s.prompt,
        Schema: s.schema,
        Images: images,
    })
    if err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindExtraction, err.Error())
        return
    }

    doc, err := s.results.Convert(raw, s.config.Fields, item.filename)
    if err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindExtraction, err.Error())
        return
    }

    resultData, err := json.Marshal(doc)
    if err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindInternal, err.Error())
        return
    }
    if _, err := s.storage.Store(ctx, bytes.NewReader(resultData), storage.ObjectKey(ownerID, keys.KindResults, item.filename+".json")); err != nil {
        s.recordFailure(ctx, ownerID, progressID, item.index, models.ErrorKindStorage, err.Error())
        return
    }

    if err := s.tracker.RecordItem(ctx, ownerID, progressID, models.ItemResult{
        ItemIndex: item.index,
        Status:    models.ItemSucceeded,
    }); err != nil {
        s.logger.Error("Failed to record item result",
            logger.String("progressId", progressID),
            logger.Error(err),
        )
    }
}

// previewImages materializes the preview artifacts and returns their bytes
// in page order for the extraction model.
func (s *PipelineService) previewImages(ctx context.Context, ownerID, sourcePath string) ([][]byte, error) {
    res, err := s.converter.Produce(ctx, ownerID, sourcePath, mimeFor(sourcePath))
    if err != nil {
        return nil, err
    }

    images := make([][]byte, 0, len(res.Paths))
    for _, p := range res.Paths {
        data, err := os.ReadFile(p)
        if err != nil {
            return nil, fmt.Errorf("failed to read preview %s: %w", filepath.Base(p), err)
        }
        images = append(images, data)
    }
    return images, nil
}

func (s *PipelineService) recordFailure(ctx context.Context, ownerID, progressID string, index int, kind models.ErrorKind, msg string) {
    if err := s.tracker.RecordItem(ctx, ownerID, progressID, models.ItemResult{
        ItemIndex: index,
        Status:    models.ItemFailed,
        ErrorKind: kind,
        Error:     msg,
    }); err != nil {
        s.logger.Error("Failed to record item failure",
            logger.String("progressId", progressID),
            logger.Error(err),
        )
    }
}

// Preview 按需转换并返回指定页的预览
func (s *PipelineService) Preview(ctx context.Context, ownerID, filename string, page int) (string, string, error) {
    src := filepath.Join(s.config.UploadsDir, ownerID, filepath.Base(filename))
    if _, err := os.Stat(src); err != nil {
        return "", "", fmt.Errorf("%w: %s", ErrDocumentNotFound, filename)
    }

    res, err := s.converter.Produce(ctx, ownerID, src, mimeFor(src))
    if err != nil {
        return "", "", err
    }

    path, err := s.converter.PagePath(res, page)
    if err != nil {
        return "", "", err
    }
    return path, res.ContentType, nil
}

// GetExtraction 获取提取结果
func (s *PipelineService) GetExtraction(ctx context.Context, ownerID, filename string) (*models.ExtractedDocument, error) {
    reader, err := s.storage.Get(ctx, storage.ObjectKey(ownerID, keys.KindResults, filepath.Base(filename)+".json"))
    if err != nil {
        return nil, fmt.Errorf("%w: no extraction result for %s", ErrDocumentNotFound, filename)
    }
    defer reader.Close()

    var doc models.ExtractedDocument
    if err := json.NewDecoder(reader).Decode(&doc); err != nil {
        return nil, fmt.Errorf("failed to decode extraction result: %w", err)
    }
    return &doc, nil
}

// Close implements Orchestrator.Close.
func (s *PipelineService) Close() error {
    if closer, ok := s.extractor.(io.Closer); ok {
        return closer.Close()
    }
    return nil
}

func mimeFor(path string) string {
    if mime, ok := extToMIME[strings.ToLower(filepath.Ext(path))]; ok {
        return mime
    }
    return "application/octet-stream"
}

func saveUpload(header *multipart.FileHeader, dst string) error {
    src, err := header.Open()
    if err != nil {
        return err
    }
    defer src.Close()

    out, err := os.Create(dst)
    if err != nil {
        return err
    }
    defer out.Close()

    if _, err := io.Copy(out, src); err != nil {
        os.Remove(dst)
        return err
    }
    return nil
}
