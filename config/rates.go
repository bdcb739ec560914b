package config

import (
	"sync"
	"time"
)

var (
	ratesOnce   sync.Once
	ratesConfig *RatesConfig
)

// RatesConfig 汇率查询配置
type RatesConfig struct {
	PrimaryEndpoint  string
	FallbackEndpoint string
	CacheTTL         time.Duration
	SweepInterval    time.Duration
	RequestTimeout   time.Duration
}

func GetRatesConfig() *RatesConfig {
	ratesOnce.Do(func() {
		loadEnv()

		ratesConfig = &RatesConfig{
			PrimaryEndpoint:  getenv("RATES_PRIMARY_ENDPOINT", "https://api.frankfurter.dev/v1"),
			FallbackEndpoint: getenv("RATES_FALLBACK_ENDPOINT", "https://www.x-rates.com/historical"),
			CacheTTL:         time.Hour,
			SweepInterval:    10 * time.Minute,
			RequestTimeout:   15 * time.Second,
		}
	})
	return ratesConfig
}
