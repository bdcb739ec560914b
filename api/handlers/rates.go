package handlers

import (
    "errors"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/zihao-lin/expenseflow/internal/rates"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

type RatesHandler struct {
    service *rates.Service
    logger  logger.Logger
}

// RateResponse 汇率查询响应
type RateResponse struct {
    From   string  `json:"from"`
    To     string  `json:"to"`
    Date   string  `json:"date"`
    Rate   float64 `json:"rate"`
    Cached bool    `json:"cached"`
}

func NewRatesHandler(service *rates.Service, logger logger.Logger) *RatesHandler {
    return &RatesHandler{
        service: service,
        logger:  logger,
    }
}

// GetRate 查询某天的汇率
func (h *RatesHandler) GetRate(c *gin.Context) {
    from := c.Query("from")
    to := c.Query("to")
    if len(from) != 3 || len(to) != 3 {
        h.handleError(c, http.StatusBadRequest, "Currency codes must be three letters", nil)
        return
    }

    dateParam := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
    date, err := time.Parse("2006-01-02", dateParam)
    if err != nil {
        h.handleError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
        return
    }

    rate, cached, err := h.service.Rate(c.Request.Context(), from, to, date)
    if err != nil {
        if errors.Is(err, rates.ErrRateNotFound) {
            h.handleError(c, http.StatusNotFound, "No rate available", err)
            return
        }
        h.handleError(c, http.StatusInternalServerError, "Failed to resolve rate", err)
        return
    }

    c.JSON(http.StatusOK, RateResponse{
        From:   from,
        To:     to,
        Date:   date.Format("2006-01-02"),
        Rate:   rate,
        Cached: cached,
    })
}

func (h *RatesHandler) handleError(c *gin.Context, status int, message string, err error) {
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
