package config

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"catalog_viewer/internal/domain"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIURL   string `envconfig:"API_URL"   default:"https://captainbinary.com/api/ProductList"`
	HTTPPort string `envconfig:"HTTP_PORT" default:":8080"`
	GrpcPort string `envconfig:"GRPC_PORT" default:":50051"` // gRPC health server

	LogLevel  string `envconfig:"LOG_LEVEL"  default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT"      default:"10s"`
	DedupingInterval   time.Duration `envconfig:"DEDUPING_INTERVAL"    default:"10s"`
	ErrorRetryCount    int           `envconfig:"ERROR_RETRY_COUNT"    default:"3"`
	ErrorRetryInterval time.Duration `envconfig:"ERROR_RETRY_INTERVAL" default:"5s"`
	SearchDebounce     time.Duration `envconfig:"SEARCH_DEBOUNCE"      default:"500ms"`

	DefaultSortColumn string `envconfig:"DEFAULT_SORT_COLUMN" default:"name"`
	DefaultSortOrder  string `envconfig:"DEFAULT_SORT_ORDER"  default:"desc"`

	SessionTTL  time.Duration `envconfig:"SESSION_TTL"  default:"30m"`
	WaitTimeout time.Duration `envconfig:"WAIT_TIMEOUT" default:"10s"`
}

var (
	config Config
	once   sync.Once
)

// LoadConfig reads .env and the environment once. Invalid configuration is fatal.
func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Process()
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: HTTP Port=%s, GRPC Port=%s, LogLevel=%s", config.HTTPPort, config.GrpcPort, config.LogLevel)
		logger.Infof("Configuration loaded: API URL=%s, dedupe=%s, retries=%d", config.APIURL, config.DedupingInterval, config.ErrorRetryCount)
	})
	return &config
}

// Process maps environment variables onto a Config and validates it.
func Process() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API_URL %q: must be an absolute http(s) URL", c.APIURL)
	}
	if _, err := domain.ParseSortOrder(c.DefaultSortOrder); err != nil {
		return fmt.Errorf("invalid DEFAULT_SORT_ORDER: %w", err)
	}
	if c.DefaultSortColumn == "" {
		return fmt.Errorf("DEFAULT_SORT_COLUMN must not be empty")
	}
	if c.ErrorRetryCount < 0 {
		return fmt.Errorf("ERROR_RETRY_COUNT must be >= 0, got %d", c.ErrorRetryCount)
	}
	for name, d := range map[string]time.Duration{
		"REQUEST_TIMEOUT":      c.RequestTimeout,
		"ERROR_RETRY_INTERVAL": c.ErrorRetryInterval,
		"SEARCH_DEBOUNCE":      c.SearchDebounce,
		"SESSION_TTL":          c.SessionTTL,
		"WAIT_TIMEOUT":         c.WaitTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.DedupingInterval < 0 {
		return fmt.Errorf("DEDUPING_INTERVAL must not be negative, got %s", c.DedupingInterval)
	}
	return nil
}

func (c *Config) SortOrder() domain.SortOrder {
	order, _ := domain.ParseSortOrder(c.DefaultSortOrder)
	return order
}

func (c *Config) SortColumn() domain.SortColumn {
	return domain.SortColumn(c.DefaultSortColumn)
}
