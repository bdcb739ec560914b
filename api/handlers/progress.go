package handlers

import (
    "errors"
    "io"
    "net/http"

    "github.com/gin-gonic/gin"
    "github.com/zihao-lin/expenseflow/internal/service/pipeline"
    "github.com/zihao-lin/expenseflow/pkg/logger"
    "github.com/zihao-lin/expenseflow/pkg/progress"
)

type ProgressHandler struct {
    tracker *progress.Tracker
    logger  logger.Logger
}

func NewProgressHandler(tracker *progress.Tracker, logger logger.Logger) *ProgressHandler {
    return &ProgressHandler{
        tracker: tracker,
        logger:  logger,
    }
}

// GetSnapshot 返回进度记录的当前快照
func (h *ProgressHandler) GetSnapshot(c *gin.Context) {
    ownerID := c.GetHeader(ownerHeader)
    if ownerID == "" {
        h.handleError(c, http.StatusBadRequest, "Missing X-Owner-ID header", nil)
        return
    }

    rec, err := h.tracker.Read(c.Request.Context(), ownerID, c.Param("id"))
    if err != nil {
        if errors.Is(err, progress.ErrNotFound) {
            h.handleError(c, http.StatusNotFound, "Progress record not found", err)
            return
        }
        h.handleError(c, http.StatusInternalServerError, "Failed to read progress", err)
        return
    }

    c.JSON(http.StatusOK, rec)
}

// Subscribe 以 SSE 流推送进度变化，完成后关闭连接
func (h *ProgressHandler) Subscribe(c *gin.Context) {
    ownerID := c.GetHeader(ownerHeader)
    if ownerID == "" {
        h.handleError(c, http.StatusBadRequest, "Missing X-Owner-ID header", nil)
        return
    }

    recordType := c.DefaultQuery("type", pipeline.TypeDocumentProcess)
    events, err := h.tracker.Watch(c.Request.Context(), ownerID, c.Param("id"), recordType)
    if err != nil {
        h.handleError(c, http.StatusInternalServerError, "Failed to subscribe", err)
        return
    }

    c.Header("Content-Type", "text/event-stream")
    c.Header("Cache-Control", "no-cache")
    c.Header("Connection", "keep-alive")

    c.Stream(func(w io.Writer) bool {
        ev, ok := <-events
        if !ok {
            return false
        }
        switch ev.Kind {
        case progress.EventError:
            if errors.Is(ev.Err, progress.ErrNotFound) {
                c.SSEvent("error", gin.H{"error": "Not found"})
            } else {
                c.SSEvent("error", gin.H{"error": "Progress store unavailable"})
            }
            return false
        default:
            c.SSEvent("progress", ev.Snapshot)
            return true
        }
    })
}

func (h *ProgressHandler) handleError(c *gin.Context, status int, message string, err error) {
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
