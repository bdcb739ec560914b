package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

var (
	extractorOnce   sync.Once
	extractorConfig *ExtractorConfig
)

// ExtractorConfig 结构化提取模型的连接配置
type ExtractorConfig struct {
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxPoolSize int
	PoolTimeout time.Duration
	Timeout     time.Duration
}

func GetExtractorConfig() *ExtractorConfig {
	extractorOnce.Do(func() {
		loadEnv()

		maxTokens := 2048
		if v := os.Getenv("EXTRACTOR_MAX_TOKENS"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				maxTokens = parsed
			}
		}

		extractorConfig = &ExtractorConfig{
			Endpoint:    getenv("EXTRACTOR_ENDPOINT", "http://localhost:11434"),
			Model:       getenv("EXTRACTOR_MODEL", "llama3.2-vision"),
			MaxTokens:   maxTokens,
			Temperature: 0,
			MaxPoolSize: 4,
			PoolTimeout: 30 * time.Second,
			Timeout:     120 * time.Second,
		}
	})
	return extractorConfig
}
