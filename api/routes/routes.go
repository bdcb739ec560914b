package routes

import (
    "net/http"

    "github.com/gin-gonic/gin"
    "github.com/zihao-lin/expenseflow/api/handlers"
    "github.com/zihao-lin/expenseflow/api/middleware"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
    // 全局中间件
    r.Use(middleware.CORS())

    // API 版本组
    v1 := r.Group("/api/v1")

    // 健康检查
    v1.GET("/health", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"status": "ok"})
    })

    // 文档处理路由组
    docs := v1.Group("/documents")
    {
        docs.POST("/batch", h.Document.SubmitBatch)
        docs.GET("/:filename/preview", h.Document.Preview)
        docs.GET("/:filename/extraction", h.Document.GetExtraction)
    }

    // 进度路由组
    prog := v1.Group("/progress")
    {
        prog.GET("/:id", h.Progress.GetSnapshot)
        prog.GET("/:id/subscribe", h.Progress.Subscribe)
    }

    // 汇率查询
    v1.GET("/rates", h.Rates.GetRate)
}
