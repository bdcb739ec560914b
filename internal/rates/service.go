package rates

import (
    "context"
    "strings"
    "time"

    cfg "github.com/zihao-lin/expenseflow/config"
    "github.com/zihao-lin/expenseflow/pkg/cache"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// CacheKey serializes (from, to, date) for cache lookup.
func CacheKey(from, to string, date time.Time) string {
    return strings.Join([]string{from, to, date.Format("2006-01-02")}, ",")
}

// Service wraps the resolver with a time-boxed cache. Failed lookups are
// never cached, and concurrent identical lookups are not de-duplicated:
// a (from, to, date) rate is an immutable fact, so a duplicate fetch costs
// a network call and nothing else.
type Service struct {
    resolver      *Resolver
    cache         *cache.Cache[float64]
    sweepInterval time.Duration
    logger        logger.Logger
}

func NewService(resolver *Resolver, ratesConfig *cfg.RatesConfig, log logger.Logger) *Service {
    return &Service{
        resolver:      resolver,
        cache:         cache.New[float64](ratesConfig.CacheTTL),
        sweepInterval: ratesConfig.SweepInterval,
        logger:        log,
    }
}

// GetService wires the default two-tier chain from config.
func GetService(log logger.Logger) *Service {
    ratesConfig := cfg.GetRatesConfig()
    resolver := NewResolver(log,
        NewFrankfurterProvider(ratesConfig.PrimaryEndpoint, ratesConfig.RequestTimeout),
        NewXRatesProvider(ratesConfig.FallbackEndpoint, ratesConfig.RequestTimeout),
    )
    return NewService(resolver, ratesConfig, log)
}

// Start launches the cache sweeper. Stop releases it; the service owns the
// cache lifecycle.
func (s *Service) Start() {
    s.cache.Start(s.sweepInterval)
}

func (s *Service) Stop() {
    s.cache.Stop()
}

// Rate resolves a conversion rate, consulting the cache first. The second
// return value reports whether the result came from the cache.
func (s *Service) Rate(ctx context.Context, from, to string, date time.Time) (float64, bool, error) {
    key := CacheKey(from, to, date)
    if rate, ok := s.cache.Get(key); ok {
        return rate, true, nil
    }

    rate, err := s.resolver.ResolveRate(ctx, from, to, date)
    if err != nil {
        return 0, false, err
    }

    s.cache.Set(key, rate)
    return rate, false, nil
}
