package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/scraper"
)

// Scraper is the subset of *scraper.Scraper the handlers need.
type Scraper interface {
	Scrape(ctx context.Context, req models.SearchRequest) (*scraper.Result, error)
	BookingLink(req models.BookingLinkRequest) (models.BookingLinkResponse, error)
	RateLimitStats() models.RateLimitStats
	Reset(ctx context.Context) error
}

type SearchHandler struct {
	scraper         Scraper
	defaultCurrency string
}

func NewSearchHandler(s Scraper, defaultCurrency string) *SearchHandler {
	return &SearchHandler{
		scraper:         s,
		defaultCurrency: defaultCurrency,
	}
}

// Register mounts every route on e.
func (h *SearchHandler) Register(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/flights/search", h.Search)
	api.GET("/flights/search", h.SearchQuery)
	api.POST("/flights/booking-link", h.BookingLink)
	api.GET("/ratelimit/stats", h.RateLimitStats)
	api.POST("/admin/reset", h.Reset)
	e.GET("/health", HealthHandler)
}

func (h *SearchHandler) Search(c echo.Context) error {
	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, models.NewInvalidInput(fmt.Errorf("failed to parse request body: %w", err)))
	}
	return h.search(c, req)
}

// SearchQuery accepts the same request as Search through query parameters.
func (h *SearchHandler) SearchQuery(c echo.Context) error {
	req, err := requestFromQuery(c)
	if err != nil {
		return writeError(c, models.NewInvalidInput(err))
	}
	return h.search(c, req)
}

func (h *SearchHandler) search(c echo.Context, req models.SearchRequest) error {
	if req.Currency == "" {
		req.Currency = h.defaultCurrency
	}

	result, err := h.scraper.Scrape(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderXRequestID, result.RequestID)
	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: buildSearchCriteria(result.Request),
		Metadata: models.SearchMetadata{
			TotalResults: len(result.Flights),
			RequestID:    result.RequestID,
			SearchTimeMs: result.Elapsed.Milliseconds(),
			CacheHit:     result.CacheHit,
		},
		CurrentPrice: result.CurrentPrice,
		SearchURL:    result.SearchURL,
		Flights:      result.Flights,
	})
}

func (h *SearchHandler) BookingLink(c echo.Context) error {
	var req models.BookingLinkRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, models.NewInvalidInput(fmt.Errorf("failed to parse request body: %w", err)))
	}
	if req.Currency == "" {
		req.Currency = h.defaultCurrency
	}

	res, err := h.scraper.BookingLink(req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *SearchHandler) RateLimitStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scraper.RateLimitStats())
}

func (h *SearchHandler) Reset(c echo.Context) error {
	if err := h.scraper.Reset(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "reset",
	})
}

func buildSearchCriteria(req models.SearchRequest) models.SearchCriteria {
	return models.SearchCriteria{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		TripType:      req.TripType,
		Passengers:    req.Passengers,
		CabinClass:    req.CabinClass,
		Currency:      req.Currency,
		Filters:       req.Filters,
		SortBy:        req.SortBy,
		SortOrder:     req.SortOrder,
		Limit:         req.Limit,
	}
}

func statusFor(reason models.ErrorReason) int {
	switch reason {
	case models.ReasonInvalidInput:
		return http.StatusBadRequest
	case models.ReasonRateLimitExceeded:
		return http.StatusTooManyRequests
	case models.ReasonTimeout:
		return http.StatusGatewayTimeout
	case models.ReasonNavigationFailed, models.ReasonParsingError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	se := models.AsScrapeError(err)
	status := statusFor(se.Reason)

	resp := models.ErrorResponse{
		Error:   string(se.Reason),
		Message: se.Message,
		Hint:    se.Hint,
		Code:    status,
	}
	if se.RetryAfter > 0 {
		seconds := models.RetryAfterSeconds(se.RetryAfter)
		resp.RetryAfter = seconds
		c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	return c.JSON(status, resp)
}

func requestFromQuery(c echo.Context) (models.SearchRequest, error) {
	q := c.QueryParams()
	req := models.SearchRequest{
		Origin:        q.Get("origin"),
		Destination:   q.Get("destination"),
		DepartureDate: q.Get("departure_date"),
		TripType:      models.TripType(q.Get("trip_type")),
		CabinClass:    models.CabinClass(q.Get("cabin_class")),
		Currency:      q.Get("currency"),
		SortBy:        q.Get("sort_by"),
		SortOrder:     q.Get("sort_order"),
	}
	if ret := q.Get("return_date"); ret != "" {
		req.ReturnDate = &ret
	}

	var err error
	counts := []struct {
		name string
		dst  *int
	}{
		{"adults", &req.Passengers.Adults},
		{"children", &req.Passengers.Children},
		{"infants_in_seat", &req.Passengers.InfantsInSeat},
		{"infants_on_lap", &req.Passengers.InfantsOnLap},
	}
	for _, count := range counts {
		if *count.dst, err = queryInt(q.Get(count.name), count.name); err != nil {
			return req, err
		}
	}

	if req.Limit, err = models.ParseLimit(q.Get("limit")); err != nil {
		return req, err
	}

	filters := models.SearchFilters{}
	if filters.PriceMin, err = queryFloatPtr(q.Get("price_min"), "price_min"); err != nil {
		return req, err
	}
	if filters.PriceMax, err = queryFloatPtr(q.Get("price_max"), "price_max"); err != nil {
		return req, err
	}
	if filters.MaxStops, err = queryIntPtr(q.Get("max_stops"), "max_stops"); err != nil {
		return req, err
	}
	if filters.MaxDuration, err = queryIntPtr(q.Get("max_duration"), "max_duration"); err != nil {
		return req, err
	}
	if airlines := q.Get("airlines"); airlines != "" {
		for _, a := range strings.Split(airlines, ",") {
			if a = strings.TrimSpace(a); a != "" {
				filters.Airlines = append(filters.Airlines, a)
			}
		}
	}
	if v := q.Get("nonstop_only"); v != "" {
		if filters.NonstopOnly, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("nonstop_only must be a boolean")
		}
	}
	if filters.PriceMin != nil || filters.PriceMax != nil || filters.MaxStops != nil ||
		filters.MaxDuration != nil || len(filters.Airlines) > 0 || filters.NonstopOnly {
		req.Filters = &filters
	}

	return req, nil
}

func queryInt(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func queryIntPtr(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := queryInt(v, name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func queryFloatPtr(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &f, nil
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
