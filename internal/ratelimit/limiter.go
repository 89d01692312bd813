package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

type Config struct {
	MaxRequests int
	Window      time.Duration
	// MinDelay spaces admitted requests apart; zero disables spacing.
	MinDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRequests: 10,
		Window:      time.Minute,
		MinDelay:    time.Second,
	}
}

// Limiter admits at most MaxRequests acquisitions within any trailing Window.
// A rejected acquire fails fast with a RateLimitExceeded error carrying the
// time until the oldest admission leaves the window.
type Limiter struct {
	mu         sync.Mutex
	timestamps []time.Time
	config     Config
	spacing    *rate.Limiter
	now        func() time.Time
}

func NewLimiter(config Config) *Limiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultConfig().MaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	return &Limiter{
		timestamps: make([]time.Time, 0, config.MaxRequests),
		config:     config,
		spacing:    newSpacing(config.MinDelay),
		now:        time.Now,
	}
}

func NewLimiterWithDefaults() *Limiter {
	return NewLimiter(DefaultConfig())
}

func newSpacing(minDelay time.Duration) *rate.Limiter {
	if minDelay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(minDelay), 1)
}

// Acquire reserves a slot in the window and then waits out the minimum
// spacing. The window check and the append happen under one lock.
func (l *Limiter) Acquire(ctx context.Context) error {
	spacing, err := l.admit()
	if err != nil {
		return err
	}
	if err := spacing.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return models.NewCancelled(err)
		}
		return models.NewTimeout("deadline passed while waiting for request spacing", err)
	}
	return nil
}

func (l *Limiter) admit() (*rate.Limiter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.timestamps) >= l.config.MaxRequests {
		retryAfter := l.timestamps[0].Add(l.config.Window).Sub(now)
		return nil, models.NewRateLimitExceeded(retryAfter)
	}

	l.timestamps = append(l.timestamps, now)
	return l.spacing, nil
}

// prune must be called with mu held.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.config.Window)
	i := 0
	for i < len(l.timestamps) && !l.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.timestamps = l.timestamps[:0]
	l.spacing = newSpacing(l.config.MinDelay)
}

func (l *Limiter) Stats() models.RateLimitStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return models.RateLimitStats{
		Count:    len(l.timestamps),
		WindowMs: l.config.Window.Milliseconds(),
	}
}
