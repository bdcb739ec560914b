package handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/gin-gonic/gin"
    "github.com/zihao-lin/expenseflow/internal/preview"
    "github.com/zihao-lin/expenseflow/internal/service/pipeline"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// ownerHeader identifies the uploading tenant. Every document route is
// scoped by it.
const ownerHeader = "X-Owner-ID"

type DocumentHandler struct {
    service pipeline.Orchestrator
    logger  logger.Logger
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

func NewDocumentHandler(service pipeline.Orchestrator, logger logger.Logger) *DocumentHandler {
    return &DocumentHandler{
        service: service,
        logger:  logger,
    }
}

// SubmitBatch 批量接收文档并立即返回进度 ID
func (h *DocumentHandler) SubmitBatch(c *gin.Context) {
    ownerID := c.GetHeader(ownerHeader)
    if ownerID == "" {
        h.handleError(c, http.StatusBadRequest, "Missing X-Owner-ID header", nil)
        return
    }

    form, err := c.MultipartForm()
    if err != nil {
        h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
        return
    }

    files := form.File["files"]
    if len(files) == 0 {
        h.handleError(c, http.StatusBadRequest, "No files provided", nil)
        return
    }

    receipt, err := h.service.SubmitBatch(c.Request.Context(), ownerID, files)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to accept batch", err)
        return
    }

    c.JSON(http.StatusAccepted, receipt)
}

// Preview 返回指定页的预览图
func (h *DocumentHandler) Preview(c *gin.Context) {
    ownerID := c.GetHeader(ownerHeader)
    if ownerID == "" {
        h.handleError(c, http.StatusBadRequest, "Missing X-Owner-ID header", nil)
        return
    }

    filename := c.Param("filename")
    page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
    if err != nil || page < 1 {
        h.handleError(c, http.StatusBadRequest, "Invalid page number", err)
        return
    }

    path, contentType, err := h.service.Preview(c.Request.Context(), ownerID, filename, page)
    if err != nil {
        switch {
        case errors.Is(err, pipeline.ErrDocumentNotFound):
            h.handleError(c, http.StatusNotFound, "Document not found", err)
        case errors.Is(err, preview.ErrPageNotFound):
            h.handleError(c, http.StatusNotFound, "Page not found", err)
        default:
            h.handleError(c, http.StatusInternalServerError, "Failed to produce preview", err)
        }
        return
    }

    if contentType != preview.ContentTypeUnknown {
        c.Header("Content-Type", contentType)
    }
    c.File(path)
}

// GetExtraction 获取某个文档的提取结果
func (h *DocumentHandler) GetExtraction(c *gin.Context) {
    ownerID := c.GetHeader(ownerHeader)
    if ownerID == "" {
        h.handleError(c, http.StatusBadRequest, "Missing X-Owner-ID header", nil)
        return
    }

    doc, err := h.service.GetExtraction(c.Request.Context(), ownerID, c.Param("filename"))
    if err != nil {
        if errors.Is(err, pipeline.ErrDocumentNotFound) {
            h.handleError(c, http.StatusNotFound, "Extraction result not found", err)
            return
        }
        h.handleError(c, http.StatusInternalServerError, "Failed to load extraction result", err)
        return
    }

    c.JSON(http.StatusOK, doc)
}

// handleError 统一错误处理
func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
    h.logger.Error(message,
        logger.String("path", c.Request.URL.Path),
        logger.Error(err),
    )

    response := ErrorResponse{
        Message: message,
    }
    if err != nil {
        response.Error = err.Error()
    }

    c.JSON(status, response)
}
