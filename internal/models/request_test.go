package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validRequest() SearchRequest {
	return SearchRequest{
		Origin:        " jfk",
		Destination:   "lax ",
		DepartureDate: "2025-01-01",
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	req := validRequest()
	req.Currency = "eur"
	require.NoError(t, req.Validate())

	assert.Equal(t, "JFK", req.Origin)
	assert.Equal(t, "LAX", req.Destination)
	assert.Equal(t, TripOneWay, req.TripType)
	assert.Equal(t, CabinEconomy, req.CabinClass)
	assert.Equal(t, Passengers{Adults: 1}, req.Passengers)
	assert.Equal(t, SortNone, req.SortBy)
	assert.Equal(t, SortAsc, req.SortOrder)
	assert.Equal(t, "EUR", req.Currency)
	assert.Equal(t, LimitAll, req.Limit)
}

func TestValidateInfersRoundTrip(t *testing.T) {
	req := validRequest()
	req.ReturnDate = strPtr("2025-01-05")
	require.NoError(t, req.Validate())
	assert.Equal(t, TripRoundTrip, req.TripType)
}

func TestValidateOneWayDropsReturnDate(t *testing.T) {
	req := validRequest()
	req.TripType = TripOneWay
	req.ReturnDate = strPtr("2025-01-05")
	require.NoError(t, req.Validate())
	assert.Nil(t, req.ReturnDate)
}

func TestValidateDropsLegsOutsideMultiCity(t *testing.T) {
	for _, trip := range []TripType{TripOneWay, TripRoundTrip} {
		req := validRequest()
		req.TripType = trip
		req.ReturnDate = strPtr("2025-01-05")
		req.Legs = []Leg{{Origin: "LAX", Destination: "SFO", Date: "2025-01-05"}}
		require.NoError(t, req.Validate())
		assert.Nil(t, req.Legs, trip)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*SearchRequest)
		expected ValidationError
	}{
		{"missing origin", func(r *SearchRequest) { r.Origin = "" }, ErrMissingOrigin},
		{"missing destination", func(r *SearchRequest) { r.Destination = "" }, ErrMissingDestination},
		{"bad airport", func(r *SearchRequest) { r.Origin = "JFKX" }, ErrInvalidAirport},
		{"same airports", func(r *SearchRequest) { r.Destination = "JFK" }, ErrSameAirports},
		{"missing date", func(r *SearchRequest) { r.DepartureDate = "" }, ErrMissingDepartureDate},
		{"bad date", func(r *SearchRequest) { r.DepartureDate = "01/01/2025" }, ErrInvalidDate},
		{"round trip without return", func(r *SearchRequest) { r.TripType = TripRoundTrip }, ErrMissingReturnDate},
		{"return before departure", func(r *SearchRequest) {
			r.TripType = TripRoundTrip
			r.ReturnDate = strPtr("2024-12-31")
		}, ErrReturnBeforeDeparture},
		{"multi city without legs", func(r *SearchRequest) { r.TripType = TripMultiCity }, ErrMissingLegs},
		{"multi city bad leg", func(r *SearchRequest) {
			r.TripType = TripMultiCity
			r.Legs = []Leg{{Origin: "LAX", Destination: "SE", Date: "2025-01-03"}}
		}, ErrInvalidAirport},
		{"unknown trip type", func(r *SearchRequest) { r.TripType = "open-jaw" }, ErrInvalidTripType},
		{"unknown cabin", func(r *SearchRequest) { r.CabinClass = "deck" }, ErrInvalidCabinClass},
		{"no adults", func(r *SearchRequest) { r.Passengers = Passengers{Children: 2} }, ErrNoAdults},
		{"negative children", func(r *SearchRequest) { r.Passengers = Passengers{Adults: 1, Children: -1} }, ErrNegativePassengers},
		{"too many passengers", func(r *SearchRequest) { r.Passengers = Passengers{Adults: 6, Children: 4} }, ErrTooManyPassengers},
		{"too many lap infants", func(r *SearchRequest) { r.Passengers = Passengers{Adults: 1, InfantsOnLap: 2} }, ErrTooManyLapInfants},
		{"bad currency", func(r *SearchRequest) { r.Currency = "EURO" }, ErrInvalidCurrency},
		{"bad sort", func(r *SearchRequest) { r.SortBy = "cheapest" }, ErrInvalidSort},
		{"bad order", func(r *SearchRequest) { r.SortOrder = "up" }, ErrInvalidSort},
		{"negative limit", func(r *SearchRequest) { r.Limit = -1 }, ErrInvalidLimit},
		{"negative max stops", func(r *SearchRequest) { r.Filters = &SearchFilters{MaxStops: new(int)}; *r.Filters.MaxStops = -1 }, ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.expected, err)
		})
	}
}

func TestLimitJSON(t *testing.T) {
	var body struct {
		Limit Limit `json:"limit"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"limit":"all"}`), &body))
	assert.Equal(t, LimitAll, body.Limit)

	require.NoError(t, json.Unmarshal([]byte(`{"limit":"5"}`), &body))
	assert.Equal(t, Limit(5), body.Limit)

	require.NoError(t, json.Unmarshal([]byte(`{"limit":3}`), &body))
	assert.Equal(t, Limit(3), body.Limit)

	assert.Error(t, json.Unmarshal([]byte(`{"limit":"lots"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"limit":-2}`), &body))

	out, err := json.Marshal(struct {
		Limit Limit `json:"limit"`
	}{LimitAll})
	require.NoError(t, err)
	assert.JSONEq(t, `{"limit":"all"}`, string(out))
}

func TestParseLimit(t *testing.T) {
	l, err := ParseLimit("ALL")
	require.NoError(t, err)
	assert.Equal(t, LimitAll, l)
	assert.Equal(t, "all", l.String())

	l, err = ParseLimit("10")
	require.NoError(t, err)
	assert.Equal(t, "10", l.String())

	_, err = ParseLimit("0")
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestBookingLinkRequestValidate(t *testing.T) {
	req := BookingLinkRequest{
		Origin:      "jfk",
		Destination: "lax",
		Segments: []BookingSegment{
			{Date: "2025-01-01", Origin: "jfk", Destination: "lax", Carrier: "aa", FlightNumber: " 1 "},
			{Date: "2025-01-10", Origin: "lax", Destination: "jfk", Carrier: "AA", FlightNumber: "4"},
		},
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, TripRoundTrip, req.TripType)
	assert.Equal(t, CabinEconomy, req.CabinClass)
	assert.Equal(t, "AA", req.Segments[0].Carrier)
	assert.Equal(t, "1", req.Segments[0].FlightNumber)

	req.Segments[1].FlightNumber = ""
	assert.Equal(t, ErrMissingFlightDetails, req.Validate())

	empty := BookingLinkRequest{Origin: "JFK", Destination: "LAX"}
	assert.Equal(t, ErrMissingSegments, empty.Validate())
}

func TestScrapeErrorClassification(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	nav := NewNavigationFailed("request failed", cause)

	assert.True(t, nav.Retryable())
	assert.ErrorIs(t, nav, cause)
	assert.Contains(t, nav.Description(), nav.Hint)

	wrapped := errors.Join(errors.New("context"), NewTimeout("slow", nil))
	assert.Equal(t, ReasonTimeout, ReasonOf(wrapped))
	assert.True(t, IsRetryable(wrapped))

	assert.Equal(t, ReasonUnknown, ReasonOf(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorReason(""), ReasonOf(nil))

	assert.False(t, NewParsingError("x", nil).Retryable())
	assert.False(t, NewInvalidInput(ErrNoAdults).Retryable())

	limited := NewRateLimitExceeded(1500 * time.Millisecond)
	assert.False(t, limited.Retryable())
	assert.Contains(t, limited.Message, "2 seconds")
}

func TestRateLimitMessageRoundsUp(t *testing.T) {
	tests := []struct {
		retryAfter time.Duration
		seconds    int
		expected   string
	}{
		{1400 * time.Millisecond, 2, "retry in 2 seconds"},
		{time.Second, 1, "retry in 1 second"},
		{200 * time.Millisecond, 1, "retry in 1 second"},
		{0, 1, "retry in 1 second"},
		{6 * time.Second, 6, "retry in 6 seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.retryAfter.String(), func(t *testing.T) {
			err := NewRateLimitExceeded(tt.retryAfter)
			assert.True(t, strings.HasSuffix(err.Message, tt.expected), err.Message)
			assert.Equal(t, tt.seconds, RetryAfterSeconds(tt.retryAfter))
		})
	}
}
