// Package config loads the gridtree YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/abhinvv1/WebDriverAgent/internal/attrcache"
	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

// DefaultSweepInterval is how often serve drops expired cache entries.
const DefaultSweepInterval = time.Minute

// Config is the top-level configuration file.
type Config struct {
	Sampling gridsample.Config `yaml:"sampling" json:"sampling"`
	Cache    CacheConfig       `yaml:"cache"    json:"cache"`
	RN       RNConfig          `yaml:"rn"       json:"rn"`
	Log      LogConfig         `yaml:"log"      json:"log"`
}

// CacheConfig bounds the attribute cache.
type CacheConfig struct {
	MaxSize       int           `yaml:"maxSize"       json:"max_size"`
	Expiry        time.Duration `yaml:"expiry"        json:"expiry"`
	SweepInterval time.Duration `yaml:"sweepInterval" json:"sweep_interval"`
}

// RNConfig configures the RN tree fetcher.
type RNConfig struct {
	URL       string        `yaml:"url,omitempty" json:"url,omitempty"`
	Timeout   time.Duration `yaml:"timeout"       json:"timeout"`
	RateLimit float64       `yaml:"rateLimit"     json:"rate_limit"`
	Burst     int           `yaml:"burst"         json:"burst"`
	UserAgent string        `yaml:"userAgent"     json:"user_agent"`
}

// LogConfig selects the log level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Sampling: gridsample.DefaultConfig(),
		Cache: CacheConfig{
			MaxSize:       attrcache.DefaultMaxSize,
			Expiry:        attrcache.DefaultExpiry,
			SweepInterval: DefaultSweepInterval,
		},
		RN: RNConfig{
			Timeout:   rntree.DefaultTimeout,
			RateLimit: float64(rntree.DefaultRateLimit),
			Burst:     rntree.DefaultRateBurst,
			UserAgent: rntree.DefaultUserAgent,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, "parsing config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the components would refuse.
func (c *Config) Validate() error {
	if err := c.Sampling.Validate(); err != nil {
		return err
	}
	if c.Cache.MaxSize < 1 {
		return invalid("cache.maxSize must be at least 1", c.Cache.MaxSize)
	}
	if c.Cache.Expiry <= 0 {
		return invalid("cache.expiry must be positive", c.Cache.Expiry.String())
	}
	if c.Cache.SweepInterval < 0 {
		return invalid("cache.sweepInterval must not be negative", c.Cache.SweepInterval.String())
	}
	if c.RN.Timeout < 0 {
		return invalid("rn.timeout must not be negative", c.RN.Timeout.String())
	}
	if c.RN.RateLimit < 0 || c.RN.Burst < 0 {
		return invalid("rn rate limit and burst must not be negative", c.RN.RateLimit)
	}
	if c.RN.RateLimit > 0 && c.RN.Burst < 1 {
		return invalid("rn.burst must be at least 1 when rn.rateLimit is set", c.RN.Burst)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return invalid("log.format must be text or json", c.Log.Format)
	}
	return nil
}

// CacheOptions converts the cache section into attrcache options.
func (c *Config) CacheOptions() attrcache.Options {
	return attrcache.Options{MaxSize: c.Cache.MaxSize, Expiry: c.Cache.Expiry}
}

// ApplyCache pushes the cache bounds onto a live cache.
func (c *Config) ApplyCache(cache *attrcache.Cache) error {
	if err := cache.SetMaxSize(c.Cache.MaxSize); err != nil {
		return err
	}
	return cache.SetExpiry(c.Cache.Expiry)
}

// FetcherOptions converts the rn section into fetcher options. A rate
// limit of zero disables pacing.
func (c *Config) FetcherOptions() []rntree.Option {
	limit := rate.Limit(c.RN.RateLimit)
	if c.RN.RateLimit == 0 {
		limit = rate.Inf
	}
	opts := []rntree.Option{rntree.WithRateLimit(limit, c.RN.Burst)}
	if c.RN.Timeout > 0 {
		opts = append(opts, rntree.WithTimeout(c.RN.Timeout))
	}
	if c.RN.UserAgent != "" {
		opts = append(opts, rntree.WithUserAgent(c.RN.UserAgent))
	}
	return opts
}

func invalid(msg string, value any) error {
	return apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig, msg, map[string]any{"value": value})
}
