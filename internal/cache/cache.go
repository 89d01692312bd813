package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/pkg/currency"
)

// Cache memoizes raw (unfiltered) search results by canonical key.
type Cache interface {
	Get(ctx context.Context, key string) (models.SearchResult, bool)
	Set(ctx context.Context, key string, result models.SearchResult) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) int
	Close() error
}

const noReturnDate = "none"

// Key joins every field that changes the upstream page. Filters, sort and
// limit are left out so differing presentations share one fetch.
func Key(req models.SearchRequest) string {
	returnDate := noReturnDate
	if req.ReturnDate != nil && *req.ReturnDate != "" {
		returnDate = *req.ReturnDate
	}

	parts := []string{
		strings.ToUpper(req.Origin),
		strings.ToUpper(req.Destination),
		req.DepartureDate,
		string(req.TripType),
		returnDate,
		string(req.CabinClass),
		strconv.Itoa(req.Passengers.Adults),
		strconv.Itoa(req.Passengers.Children),
		strconv.Itoa(req.Passengers.InfantsInSeat),
		strconv.Itoa(req.Passengers.InfantsOnLap),
		currency.Normalize(req.Currency),
	}
	for _, leg := range multiCityLegs(req) {
		parts = append(parts, strings.ToUpper(leg.Origin)+">"+strings.ToUpper(leg.Destination)+"@"+leg.Date)
	}
	if req.Filters != nil && (req.Filters.MaxStops != nil || req.Filters.NonstopOnly) {
		// max stops is encoded into the upstream token
		stops := 0
		if !req.Filters.NonstopOnly {
			stops = *req.Filters.MaxStops
		}
		parts = append(parts, "stops="+strconv.Itoa(stops))
	}
	return strings.Join(parts, "|")
}

func multiCityLegs(req models.SearchRequest) []models.Leg {
	if req.TripType != models.TripMultiCity {
		return nil
	}
	return req.Legs
}

type entry struct {
	result    models.SearchResult
	createdAt time.Time
}

type MemoryConfig struct {
	TTL      time.Duration
	Capacity int
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TTL:      5 * time.Minute,
		Capacity: 100,
	}
}

// MemoryCache is a bounded TTL cache on top of an expirable LRU. Reads use
// Peek, so eviction on overflow always drops the oldest insertion.
type MemoryCache struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, entry]
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultMemoryConfig().Capacity
	}
	return &MemoryCache{
		entries: expirable.NewLRU[string, entry](cfg.Capacity, nil, cfg.TTL),
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (models.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Peek(key)
	if !ok {
		return models.SearchResult{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl {
		c.entries.Remove(key)
		return models.SearchResult{}, false
	}
	return e.result, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, result models.SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	flights := make([]models.FlightOption, len(result.Flights))
	copy(flights, result.Flights)
	c.entries.Add(key, entry{
		result:    result.WithFlights(flights),
		createdAt: c.now(),
	})
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	return nil
}

func (c *MemoryCache) Size(ctx context.Context) int {
	return c.entries.Len()
}

func (c *MemoryCache) Close() error {
	return nil
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, key string) (models.SearchResult, bool) {
	return models.SearchResult{}, false
}

func (c *NoOpCache) Set(ctx context.Context, key string, result models.SearchResult) error {
	return nil
}

func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

func (c *NoOpCache) Size(ctx context.Context) int {
	return 0
}

func (c *NoOpCache) Close() error {
	return nil
}
