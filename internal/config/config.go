package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dharmasatrya/flightscrape/internal/cache"
	"github.com/dharmasatrya/flightscrape/internal/ratelimit"
	"github.com/dharmasatrya/flightscrape/internal/retry"
	"github.com/dharmasatrya/flightscrape/internal/scraper"
	"github.com/dharmasatrya/flightscrape/internal/token"
	"github.com/dharmasatrya/flightscrape/internal/transport"
)

const (
	ModePlain      = "plain"
	ModeProduction = "production"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"

	DefaultConfigFile = "flightscrape.json5"
)

type CacheConfig struct {
	Backend  string
	TTL      time.Duration
	Capacity int
	Redis    cache.RedisConfig
}

type Config struct {
	Port      string
	Mode      string
	Currency  string
	LogLevel  string
	LogFormat string

	Cache         CacheConfig
	RateLimit     ratelimit.Config
	Retry         retry.Policy
	Timeouts      transport.Timeouts
	ScrapeTimeout time.Duration
	URLs          token.URLConfig
}

func Default() Config {
	memory := cache.DefaultMemoryConfig()
	return Config{
		Port:      "8080",
		Mode:      ModeProduction,
		LogLevel:  "info",
		LogFormat: "text",
		Cache: CacheConfig{
			Backend:  CacheMemory,
			TTL:      memory.TTL,
			Capacity: memory.Capacity,
			Redis:    cache.DefaultRedisConfig(),
		},
		RateLimit:     ratelimit.DefaultConfig(),
		Retry:         retry.DefaultPolicy(),
		Timeouts:      transport.DefaultTimeouts(),
		ScrapeTimeout: 2 * time.Minute,
		URLs:          token.DefaultURLConfig(),
	}
}

// Load builds the configuration from defaults, then the config file and its
// local override, then the environment (including a .env file).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = getEnv("FLIGHTSCRAPE_CONFIG", DefaultConfigFile)
	}
	fc, err := ReadConfig[FileConfig](path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := cfg.applyFile(fc); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyFile(fc FileConfig) error {
	setString(&c.Port, fc.Port)
	setString(&c.Mode, fc.Mode)
	setString(&c.Currency, fc.Currency)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)

	setString(&c.Cache.Backend, fc.Cache.Backend)
	setInt(&c.Cache.Capacity, fc.Cache.Capacity)
	setString(&c.Cache.Redis.Host, fc.Cache.Redis.Host)
	setString(&c.Cache.Redis.Port, fc.Cache.Redis.Port)
	setString(&c.Cache.Redis.Password, fc.Cache.Redis.Password)
	setInt(&c.Cache.Redis.DB, fc.Cache.Redis.DB)

	setInt(&c.RateLimit.MaxRequests, fc.RateLimit.MaxRequests)
	setInt(&c.Retry.MaxAttempts, fc.Retry.MaxAttempts)
	if fc.Retry.BackoffFactor > 0 {
		c.Retry.BackoffFactor = fc.Retry.BackoffFactor
	}

	setString(&c.URLs.SearchBaseURL, fc.Upstream.SearchBaseURL)
	setString(&c.URLs.BookingBaseURL, fc.Upstream.BookingBaseURL)

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"cache.ttl", fc.Cache.TTL, &c.Cache.TTL},
		{"rate_limit.window", fc.RateLimit.Window, &c.RateLimit.Window},
		{"rate_limit.min_delay", fc.RateLimit.MinDelay, &c.RateLimit.MinDelay},
		{"retry.initial_delay", fc.Retry.InitialDelay, &c.Retry.InitialDelay},
		{"retry.max_delay", fc.Retry.MaxDelay, &c.Retry.MaxDelay},
		{"http.connect_timeout", fc.HTTP.ConnectTimeout, &c.Timeouts.Connect},
		{"http.response_timeout", fc.HTTP.ResponseTimeout, &c.Timeouts.Response},
		{"http.body_timeout", fc.HTTP.BodyTimeout, &c.Timeouts.Body},
		{"http.scrape_timeout", fc.HTTP.ScrapeTimeout, &c.ScrapeTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Mode = getEnv("FLIGHTSCRAPE_MODE", c.Mode)
	c.Currency = getEnv("DEFAULT_CURRENCY", c.Currency)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	if !getEnvBool("CACHE_ENABLED", true) {
		c.Cache.Backend = CacheNone
	}
	c.Cache.TTL = getEnvDuration("CACHE_TTL", getEnvDuration("REDIS_TTL", c.Cache.TTL))
	c.Cache.Capacity = getEnvInt("CACHE_CAPACITY", c.Cache.Capacity)
	c.Cache.Redis.Host = getEnv("REDIS_HOST", c.Cache.Redis.Host)
	c.Cache.Redis.Port = getEnv("REDIS_PORT", c.Cache.Redis.Port)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = getEnvInt("REDIS_DB", c.Cache.Redis.DB)

	c.RateLimit.MaxRequests = getEnvInt("RATE_LIMIT_MAX_REQUESTS", c.RateLimit.MaxRequests)
	c.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.MinDelay = getEnvDuration("RATE_LIMIT_MIN_DELAY", c.RateLimit.MinDelay)

	c.Retry.MaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", c.Retry.MaxAttempts)
	c.Retry.InitialDelay = getEnvDuration("RETRY_INITIAL_DELAY", c.Retry.InitialDelay)
	c.Retry.MaxDelay = getEnvDuration("RETRY_MAX_DELAY", c.Retry.MaxDelay)
	c.Retry.BackoffFactor = getEnvFloat("RETRY_BACKOFF_FACTOR", c.Retry.BackoffFactor)

	c.Timeouts.Connect = getEnvDuration("HTTP_CONNECT_TIMEOUT", c.Timeouts.Connect)
	c.Timeouts.Response = getEnvDuration("HTTP_RESPONSE_TIMEOUT", c.Timeouts.Response)
	c.Timeouts.Body = getEnvDuration("HTTP_BODY_TIMEOUT", c.Timeouts.Body)
	c.ScrapeTimeout = getEnvDuration("SCRAPE_TIMEOUT", c.ScrapeTimeout)

	c.URLs.SearchBaseURL = getEnv("SEARCH_BASE_URL", c.URLs.SearchBaseURL)
	c.URLs.BookingBaseURL = getEnv("BOOKING_BASE_URL", c.URLs.BookingBaseURL)
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModePlain, ModeProduction:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModePlain, ModeProduction, c.Mode)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache backend must be memory, redis or none, got %q", c.Cache.Backend)
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit needs a positive request count and window")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}
	return nil
}

// Features maps the configured mode onto the scraper's reliability layers.
func (c Config) Features() scraper.Features {
	if c.Mode == ModePlain {
		return scraper.PlainFeatures()
	}
	features := scraper.ProductionFeatures()
	features.Cache = c.Cache.Backend != CacheNone
	return features
}

func (c Config) MemoryCache() cache.MemoryConfig {
	return cache.MemoryConfig{TTL: c.Cache.TTL, Capacity: c.Cache.Capacity}
}

func (c Config) RedisCache() cache.RedisConfig {
	redis := c.Cache.Redis
	redis.TTL = c.Cache.TTL
	redis.Capacity = c.Cache.Capacity
	return redis
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
