// internal/rates/resolver.go
package rates

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// ErrRateNotFound signals that every provider tier failed. It is distinct
// from a legitimate zero rate; callers must check with errors.Is and never
// treat 0 as "missing".
var ErrRateNotFound = errors.New("exchange rate not found")

// Provider resolves one currency pair for one date.
type Provider interface {
    Name() string
    Rate(ctx context.Context, from, to string, date time.Time) (float64, error)
}

// Resolver walks an ordered provider chain until one tier succeeds.
type Resolver struct {
    providers []Provider
    logger    logger.Logger
}

func NewResolver(log logger.Logger, providers ...Provider) *Resolver {
    return &Resolver{
        providers: providers,
        logger:    log,
    }
}

// ResolveRate returns the conversion rate from → to valid at date, or
// ErrRateNotFound once every tier has failed.
func (r *Resolver) ResolveRate(ctx context.Context, from, to string, date time.Time) (float64, error) {
    for _, p := range r.providers {
        rate, err := p.Rate(ctx, from, to, date)
        if err == nil {
            return rate, nil
        }
        r.logger.Warn("Rate provider failed, trying next tier",
            logger.String("provider", p.Name()),
            logger.String("from", from),
            logger.String("to", to),
            logger.Error(err),
        )
    }
    return 0, fmt.Errorf("%w: %s/%s on %s", ErrRateNotFound, from, to, date.Format("2006-01-02"))
}
