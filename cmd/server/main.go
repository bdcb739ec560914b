package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-gonic/gin"

    "github.com/zihao-lin/expenseflow/api/handlers"
    "github.com/zihao-lin/expenseflow/api/routes"
    "github.com/zihao-lin/expenseflow/config"
    "github.com/zihao-lin/expenseflow/internal/rates"
    "github.com/zihao-lin/expenseflow/internal/service/pipeline"
    "github.com/zihao-lin/expenseflow/pkg/logger"
    "github.com/zihao-lin/expenseflow/pkg/progress"
)

func main() {
    // init logger
    log, err := logger.NewLogger(
        logger.WithLevel("info"),
        logger.WithEncoding("json"),
        logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
    )
    if err != nil {
        panic(err)
    }
    defer log.Sync()

    appConfig, err := config.GetAppConfig()
    if err != nil {
        log.Fatal("Failed to load config:", logger.Error(err))
    }

    // init progress tracking
    store, err := progress.NewStore(progress.StoreType(appConfig.Progress.Store), log)
    if err != nil {
        log.Fatal("Failed to init progress store:", logger.Error(err))
    }
    tracker := progress.NewTracker(store, log,
        progress.WithPollInterval(time.Duration(appConfig.Progress.PollInterval)),
    )

    // init pipeline orchestrator
    orchestrator, err := pipeline.GetService(tracker, log)
    if err != nil {
        log.Fatal("Failed to get pipeline service:", logger.Error(err))
    }
    defer orchestrator.Close()

    // init exchange rate service
    rateService := rates.GetService(log)
    rateService.Start()
    defer rateService.Stop()

    // init handlers
    h := handlers.NewHandlers(orchestrator, tracker, rateService, log)
    r := gin.New()
    r.Use(gin.Recovery())
    routes.SetupRoutes(r, h)

    srv := &http.Server{
        Addr:    appConfig.Server.Addr,
        Handler: r,
    }

    // start server
    go func() {
        log.Info("Server starting", logger.String("addr", appConfig.Server.Addr))
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Error("Server error:", logger.Error(err))
        }
    }()

    // wait for interrupt signal to gracefully shut down the server
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit

    log.Info("Shutting down server...")

    // graceful shutdown
    shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer shutdownCancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Error("Server forced to shutdown:", logger.Error(err))
    }

}
