package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dharmasatrya/flightscrape/internal/cache"
	"github.com/dharmasatrya/flightscrape/internal/extractor"
	"github.com/dharmasatrya/flightscrape/internal/filter"
	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/ratelimit"
	"github.com/dharmasatrya/flightscrape/internal/retry"
	"github.com/dharmasatrya/flightscrape/internal/telemetry"
	"github.com/dharmasatrya/flightscrape/internal/token"
	"github.com/dharmasatrya/flightscrape/internal/transport"
)

var tracer = otel.Tracer("flightscrape.internal.scraper")

const (
	reportCacheHit  = "cache.hit"
	reportCacheMiss = "cache.miss"
	reportCacheSet  = "cache.set"
	reportExtracted = "extract.flights"
	reportScrape    = "scrape"
)

// Features selects which reliability layers wrap the fetch.
type Features struct {
	Cache     bool
	RateLimit bool
	Retry     bool
}

// PlainFeatures fetches every request directly, once.
func PlainFeatures() Features {
	return Features{}
}

func ProductionFeatures() Features {
	return Features{Cache: true, RateLimit: true, Retry: true}
}

type Config struct {
	Features    Features
	RetryPolicy retry.Policy
	// Timeout bounds one whole Scrape call including retries; zero means no
	// bound beyond the caller's context.
	Timeout     time.Duration
	Cache       cache.Cache
	RateLimiter *ratelimit.Limiter
	Extractor   extractor.Extractor
	URLs        token.URLConfig
	Telemetry   telemetry.API
	Logger      *slog.Logger
}

type Scraper struct {
	client    transport.Client
	cache     cache.Cache
	limiter   *ratelimit.Limiter
	extractor extractor.Extractor
	policy    retry.Policy
	timeout   time.Duration
	urls      token.URLConfig
	tel       telemetry.API
	logger    *slog.Logger
}

// Result is a presented search result plus bookkeeping about how it was
// produced.
type Result struct {
	models.SearchResult
	Request   models.SearchRequest
	RequestID string
	CacheHit  bool
	Elapsed   time.Duration
}

// New builds a scraper around client. Components switched off in
// cfg.Features are replaced by no-op stand-ins.
func New(client transport.Client, cfg Config) *Scraper {
	s := &Scraper{
		client:    client,
		cache:     cfg.Cache,
		limiter:   cfg.RateLimiter,
		extractor: cfg.Extractor,
		policy:    cfg.RetryPolicy,
		timeout:   cfg.Timeout,
		urls:      cfg.URLs,
		tel:       cfg.Telemetry,
		logger:    cfg.Logger,
	}

	if !cfg.Features.Cache || s.cache == nil {
		s.cache = cache.NewNoOpCache()
	}
	if !cfg.Features.RateLimit {
		s.limiter = nil
	}
	if !cfg.Features.Retry {
		s.policy = retry.SingleAttempt()
	}
	if s.extractor == nil {
		s.extractor = extractor.NewGoogleFlights(extractor.DefaultSelectors(), s.urls)
	}
	if s.tel == nil {
		s.tel = telemetry.Nop{}
	}
	s.tel = telemetry.NewScopedAPI("scraper", s.tel)
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Scrape runs one request through validate, cache, rate limit, fetch with
// retry, extract and present. Every failure is a *models.ScrapeError.
func (s *Scraper) Scrape(ctx context.Context, req models.SearchRequest) (*Result, error) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)

	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("request_id", requestID))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	fail := func(err error) (*Result, error) {
		se := models.AsScrapeError(err)
		span.RecordError(se)
		span.SetStatus(codes.Error, string(se.Reason))
		logger.WarnContext(ctx, "scrape failed", "reason", se.Reason, "error", se.Error())
		return nil, se
	}

	if err := req.Validate(); err != nil {
		return fail(models.NewInvalidInput(err))
	}
	span.SetAttributes(
		attribute.String("origin", req.Origin),
		attribute.String("destination", req.Destination),
		attribute.String("departure_date", req.DepartureDate),
	)

	key := cache.Key(req)
	raw, hit := s.cache.Get(ctx, key)
	if hit {
		s.tel.ReportCount(reportCacheHit, 1)
		logger.DebugContext(ctx, "cache hit", "key", key)
	} else {
		s.tel.ReportCount(reportCacheMiss, 1)

		var err error
		raw, err = s.fetch(ctx, req, logger)
		if err != nil {
			return fail(err)
		}

		if err := s.cache.Set(ctx, key, raw); err != nil {
			s.tel.ReportWarning(reportCacheSet, err)
		}
	}

	presented := filter.ApplyRequest(raw, req)
	elapsed := time.Since(start)
	logger.InfoContext(ctx, "scrape complete",
		"origin", req.Origin,
		"destination", req.Destination,
		"cache_hit", hit,
		"raw_flights", len(raw.Flights),
		"flights", len(presented.Flights),
		"elapsed", elapsed.String(),
	)

	return &Result{
		SearchResult: presented,
		Request:      req,
		RequestID:    requestID,
		CacheHit:     hit,
		Elapsed:      elapsed,
	}, nil
}

func (s *Scraper) fetch(ctx context.Context, req models.SearchRequest, logger *slog.Logger) (models.SearchResult, error) {
	searchURL, err := s.urls.BuildSearchURL(req)
	if err != nil {
		return models.SearchResult{}, err
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return models.SearchResult{}, err
		}
	}

	body, err := retry.Do(ctx, s.policy, s.tel, func(ctx context.Context) (string, error) {
		body, err := s.client.Get(ctx, searchURL, token.Headers())
		if err != nil {
			return "", classifyFetch(ctx, err)
		}
		return body, nil
	})
	if err != nil {
		s.tel.ReportBroken(reportScrape, req.Origin, req.Destination, err)
		return models.SearchResult{}, err
	}

	raw, err := s.extractor.Extract(ctx, body)
	if err != nil {
		var se *models.ScrapeError
		if !errors.As(err, &se) {
			err = models.NewParsingError("failed to extract flights", err)
		}
		return models.SearchResult{}, err
	}
	raw.SearchURL = searchURL
	s.tel.ReportCount(reportExtracted, int64(len(raw.Flights)))
	logger.DebugContext(ctx, "extracted flights", "count", len(raw.Flights), "price_level", raw.CurrentPrice)

	return raw, nil
}

// classifyFetch maps a collaborator error that is not already classified.
func classifyFetch(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return models.NewCancelled(err)
	}
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.NewTimeout("upstream did not respond in time", err)
	}
	return models.NewNavigationFailed("request to upstream failed", err)
}

// BookingLink encodes a booking deep link for a chosen itinerary.
func (s *Scraper) BookingLink(req models.BookingLinkRequest) (models.BookingLinkResponse, error) {
	if err := req.Validate(); err != nil {
		return models.BookingLinkResponse{}, models.NewInvalidInput(err)
	}

	segments := make([]token.Segment, len(req.Segments))
	for i, seg := range req.Segments {
		segments[i] = token.Segment{
			Date:         seg.Date,
			From:         seg.Origin,
			To:           seg.Destination,
			Carrier:      seg.Carrier,
			FlightNumber: seg.FlightNumber,
		}
	}

	tfs, err := token.EncodeBooking(segments, req.Origin, req.Destination, req.TripType, req.CabinClass, req.Passengers)
	if err != nil {
		return models.BookingLinkResponse{}, err
	}
	return models.BookingLinkResponse{
		URL:   s.urls.BookingURL(tfs, req.Currency),
		Token: tfs,
	}, nil
}

// Reset clears the cache and the rate-limit window.
func (s *Scraper) Reset(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Reset()
	}
	return s.cache.Clear(ctx)
}

// RateLimitStats reports the current window usage; zero when rate limiting
// is off.
func (s *Scraper) RateLimitStats() models.RateLimitStats {
	if s.limiter == nil {
		return models.RateLimitStats{}
	}
	return s.limiter.Stats()
}

func (s *Scraper) CacheSize(ctx context.Context) int {
	return s.cache.Size(ctx)
}

func (s *Scraper) Close() error {
	return s.cache.Close()
}
