package handlers

import (
    "github.com/zihao-lin/expenseflow/internal/rates"
    "github.com/zihao-lin/expenseflow/internal/service/pipeline"
    "github.com/zihao-lin/expenseflow/pkg/logger"
    "github.com/zihao-lin/expenseflow/pkg/progress"
)

type Handlers struct {
    Document *DocumentHandler
    Progress *ProgressHandler
    Rates    *RatesHandler
}

func NewHandlers(
    orchestrator pipeline.Orchestrator,
    tracker *progress.Tracker,
    rateService *rates.Service,
    logger logger.Logger,
) *Handlers {
    return &Handlers{
        Document: NewDocumentHandler(orchestrator, logger),
        Progress: NewProgressHandler(tracker, logger),
        Rates:    NewRatesHandler(rateService, logger),
    }
}
