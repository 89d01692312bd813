package config

import (
	"fmt"
	"log/slog"

	"github.com/dharmasatrya/flightscrape/internal/cache"
	"github.com/dharmasatrya/flightscrape/internal/extractor"
	"github.com/dharmasatrya/flightscrape/internal/ratelimit"
	"github.com/dharmasatrya/flightscrape/internal/scraper"
	"github.com/dharmasatrya/flightscrape/internal/telemetry"
	"github.com/dharmasatrya/flightscrape/internal/transport"
)

// NewCache opens the configured cache backend.
func (c Config) NewCache() (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheRedis:
		redisCache, err := cache.NewRedisCache(c.RedisCache())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisCache, nil
	case CacheNone:
		return cache.NewNoOpCache(), nil
	default:
		return cache.NewMemoryCache(c.MemoryCache()), nil
	}
}

// NewScraper assembles the full pipeline: transport, cache, limiter,
// extractor and telemetry.
func (c Config) NewScraper(logger *slog.Logger) (*scraper.Scraper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tel := telemetry.NewSlogAPI(logger)

	features := c.Features()
	flightCache := cache.Cache(cache.NewNoOpCache())
	if features.Cache {
		var err error
		if flightCache, err = c.NewCache(); err != nil {
			return nil, err
		}
	}

	client := transport.NewRestyClient(c.Timeouts, tel, logger)

	return scraper.New(client, scraper.Config{
		Features:    features,
		RetryPolicy: c.Retry,
		Timeout:     c.ScrapeTimeout,
		Cache:       flightCache,
		RateLimiter: ratelimit.NewLimiter(c.RateLimit),
		Extractor:   extractor.NewGoogleFlights(extractor.DefaultSelectors(), c.URLs),
		URLs:        c.URLs,
		Telemetry:   tel,
		Logger:      logger,
	}), nil
}
