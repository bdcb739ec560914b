package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zihao-lin/expenseflow/internal/models"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
	appErr    error
)

// Duration accepts "2s" style values in config.yaml. Bare integers are read
// as nanoseconds for compatibility with time.Duration's native encoding.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

// AppConfig is the file-backed application configuration. Everything has a
// usable default so the server starts without a config file; values from
// config.yaml (or CONFIG_PATH) override the defaults.
type AppConfig struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// backend: "minio" or "s3"
		Backend    string `yaml:"backend"`
		UploadsDir string `yaml:"uploadsDir"`
	} `yaml:"storage"`

	Progress struct {
		// store: "redis" or "memory"
		Store        string   `yaml:"store"`
		PollInterval Duration `yaml:"pollInterval"`
	} `yaml:"progress"`

	Preview struct {
		Dir       string `yaml:"dir"`
		MaxPages  int    `yaml:"maxPages"`
		MaxWidth  int    `yaml:"maxWidth"`
		MaxHeight int    `yaml:"maxHeight"`
		Quality   int    `yaml:"quality"`
		DPI       int    `yaml:"dpi"`
	} `yaml:"preview"`

	Pipeline struct {
		MaxConcurrent int   `yaml:"maxConcurrent"`
		MaxFileSize   int64 `yaml:"maxFileSize"`
		MaxPageCount  int   `yaml:"maxPageCount"`
	} `yaml:"pipeline"`

	Extraction struct {
		PromptTemplate string                   `yaml:"promptTemplate"`
		Fields         []models.FieldDescriptor `yaml:"fields"`
		Categories     []models.Category        `yaml:"categories"`
		Projects       []models.Project         `yaml:"projects"`
	} `yaml:"extraction"`
}

func defaultAppConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Server.Addr = ":8080"
	cfg.Storage.Backend = "minio"
	cfg.Storage.UploadsDir = "data/uploads"
	cfg.Progress.Store = "redis"
	cfg.Progress.PollInterval = Duration(2 * time.Second)
	cfg.Preview.Dir = "data/previews"
	cfg.Preview.MaxPages = 10
	cfg.Preview.MaxWidth = 1200
	cfg.Preview.MaxHeight = 1600
	cfg.Preview.Quality = 80
	cfg.Preview.DPI = 144
	cfg.Pipeline.MaxConcurrent = 5
	cfg.Pipeline.MaxFileSize = 50 * 1024 * 1024
	cfg.Pipeline.MaxPageCount = 100
	cfg.Extraction.PromptTemplate = "Extract the following fields from the receipt:\n{fields}\n" +
		"Known categories: {categories}\nKnown projects: {projects}"
	return cfg
}

// GetAppConfig loads the application config once. A missing config file is
// not an error; a malformed one is.
func GetAppConfig() (*AppConfig, error) {
	appOnce.Do(func() {
		loadEnv()
		appConfig, appErr = loadAppConfig(getenv("CONFIG_PATH", "config.yaml"))
	})
	return appConfig, appErr
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
