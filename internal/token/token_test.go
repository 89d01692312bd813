package token

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

var oneAdult = models.Passengers{Adults: 1}

func jfkLax() []Segment {
	return []Segment{{Date: "2025-01-01", From: "JFK", To: "LAX"}}
}

func TestEncodeSearchWireFormat(t *testing.T) {
	tok, err := EncodeSearch(jfkLax(), models.TripOneWay, models.CabinEconomy, oneAdult)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)

	data := []byte{0x12, 0x0a}
	data = append(data, "2025-01-01"...)
	data = append(data, 0x6a, 0x05, 0x12, 0x03, 'J', 'F', 'K')
	data = append(data, 0x72, 0x05, 0x12, 0x03, 'L', 'A', 'X')

	expected := []byte{0x1a, byte(len(data))}
	expected = append(expected, data...)
	expected = append(expected, 0x42, 0x01, 0x01) // passengers: [adult]
	expected = append(expected, 0x48, 0x01)       // seat: economy
	expected = append(expected, 0x98, 0x01, 0x02) // trip: one-way

	assert.Equal(t, expected, raw)
}

func TestEncodeSearchIsURLSafe(t *testing.T) {
	segments := []Segment{{Date: "2025-06-15", From: "SFO", To: "NRT", Airlines: []string{"UA", "NH"}}}
	tok, err := EncodeSearch(segments, models.TripOneWay, models.CabinBusiness, models.Passengers{Adults: 2, Children: 1, InfantsOnLap: 1})
	require.NoError(t, err)

	assert.NotContains(t, tok, "+")
	assert.NotContains(t, tok, "/")
	assert.NotContains(t, tok, "=")
}

func TestEncodeSearchDeterministic(t *testing.T) {
	first, err := EncodeSearch(jfkLax(), models.TripOneWay, models.CabinEconomy, oneAdult)
	require.NoError(t, err)
	second, err := EncodeSearch(jfkLax(), models.TripOneWay, models.CabinEconomy, oneAdult)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncodeSearchFieldChangesToken(t *testing.T) {
	base, err := EncodeSearch(jfkLax(), models.TripOneWay, models.CabinEconomy, oneAdult)
	require.NoError(t, err)

	tests := []struct {
		name       string
		segments   []Segment
		trip       models.TripType
		cabin      models.CabinClass
		passengers models.Passengers
	}{
		{"origin", []Segment{{Date: "2025-01-01", From: "EWR", To: "LAX"}}, models.TripOneWay, models.CabinEconomy, oneAdult},
		{"destination", []Segment{{Date: "2025-01-01", From: "JFK", To: "SFO"}}, models.TripOneWay, models.CabinEconomy, oneAdult},
		{"date", []Segment{{Date: "2025-01-02", From: "JFK", To: "LAX"}}, models.TripOneWay, models.CabinEconomy, oneAdult},
		{"cabin", jfkLax(), models.TripOneWay, models.CabinFirst, oneAdult},
		{"passengers", jfkLax(), models.TripOneWay, models.CabinEconomy, models.Passengers{Adults: 2}},
		{"children", jfkLax(), models.TripOneWay, models.CabinEconomy, models.Passengers{Adults: 1, Children: 1}},
		{"trip type", jfkLax(), models.TripMultiCity, models.CabinEconomy, oneAdult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := EncodeSearch(tt.segments, tt.trip, tt.cabin, tt.passengers)
			require.NoError(t, err)
			assert.NotEqual(t, base, tok)
		})
	}
}

func countField(t *testing.T, raw []byte, num protowire.Number) int {
	t.Helper()
	n := 0
	for len(raw) > 0 {
		got, typ, length := protowire.ConsumeTag(raw)
		require.GreaterOrEqual(t, length, 0)
		raw = raw[length:]
		length = protowire.ConsumeFieldValue(got, typ, raw)
		require.GreaterOrEqual(t, length, 0)
		raw = raw[length:]
		if got == num {
			n++
		}
	}
	return n
}

func TestRoundTripEncodesTwoSegments(t *testing.T) {
	ret := "2025-01-10"
	req := models.SearchRequest{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2025-01-01",
		ReturnDate:    &ret,
		TripType:      models.TripRoundTrip,
		CabinClass:    models.CabinEconomy,
		Passengers:    oneAdult,
	}
	roundTrip, err := EncodeSearch(SegmentsFor(req), req.TripType, req.CabinClass, req.Passengers)
	require.NoError(t, err)

	req.TripType = models.TripOneWay
	req.ReturnDate = nil
	oneWay, err := EncodeSearch(SegmentsFor(req), req.TripType, req.CabinClass, req.Passengers)
	require.NoError(t, err)

	assert.Greater(t, len(roundTrip), len(oneWay))

	raw, err := base64.RawURLEncoding.DecodeString(roundTrip)
	require.NoError(t, err)
	assert.Equal(t, 2, countField(t, raw, fieldInfoData))

	raw, err = base64.RawURLEncoding.DecodeString(oneWay)
	require.NoError(t, err)
	assert.Equal(t, 1, countField(t, raw, fieldInfoData))
}

func TestEncodeSearchErrors(t *testing.T) {
	tests := []struct {
		name       string
		segments   []Segment
		trip       models.TripType
		cabin      models.CabinClass
		passengers models.Passengers
	}{
		{"no segments", nil, models.TripOneWay, models.CabinEconomy, oneAdult},
		{"bad cabin", jfkLax(), models.TripOneWay, "steerage", oneAdult},
		{"bad trip", jfkLax(), "open-jaw", models.CabinEconomy, oneAdult},
		{"no adults", jfkLax(), models.TripOneWay, models.CabinEconomy, models.Passengers{Children: 1}},
		{"empty segment", []Segment{{From: "JFK", To: "LAX"}}, models.TripOneWay, models.CabinEconomy, oneAdult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeSearch(tt.segments, tt.trip, tt.cabin, tt.passengers)
			require.Error(t, err)
			assert.Equal(t, models.ReasonParsingError, models.ReasonOf(err))
			assert.False(t, models.IsRetryable(err))
		})
	}
}

func TestSegmentsForMaxStops(t *testing.T) {
	one := 1
	req := models.SearchRequest{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2025-01-01",
		TripType:      models.TripMultiCity,
		Legs:          []models.Leg{{Origin: "LAX", Destination: "SEA", Date: "2025-01-05"}},
		Filters:       &models.SearchFilters{MaxStops: &one},
	}

	segments := SegmentsFor(req)
	require.Len(t, segments, 2)
	for _, s := range segments {
		require.NotNil(t, s.MaxStops)
		assert.Equal(t, 1, *s.MaxStops)
	}
	assert.Equal(t, "SEA", segments[1].To)

	req.Filters.NonstopOnly = true
	segments = SegmentsFor(req)
	assert.Equal(t, 0, *segments[0].MaxStops)
}

func TestBuildSearchURL(t *testing.T) {
	req := models.SearchRequest{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2025-01-01",
		TripType:      models.TripOneWay,
		CabinClass:    models.CabinEconomy,
		Passengers:    oneAdult,
		Currency:      "EUR",
	}
	u, err := DefaultURLConfig().BuildSearchURL(req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(u, DefaultSearchBaseURL+"?tfs="))
	assert.True(t, strings.HasSuffix(u, "&hl=en&tfu="+searchTFU+"&curr=EUR"))

	req.Currency = ""
	u, err = DefaultURLConfig().BuildSearchURL(req)
	require.NoError(t, err)
	assert.NotContains(t, u, "curr=")
}

func TestBookingURL(t *testing.T) {
	u := URLConfig{BookingBaseURL: "https://example.test/booking"}.BookingURL("abc_-", "USD")
	assert.Equal(t, "https://example.test/booking?tfs=abc_-&hl=en&curr=USD", u)
}
