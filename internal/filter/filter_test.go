package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

func ptr[T any](v T) *T { return &v }

func sampleFlights() []models.FlightOption {
	return []models.FlightOption{
		{Name: "Delta", Price: "$200", Duration: "5 hr 30 min", Stops: 0},
		{Name: "United", Price: "$350", Duration: "7 hr", Stops: 1},
		{Name: "JetBlue", Price: models.PriceUnavailable, Duration: "6 hr 10 min", Stops: 0},
		{Name: "American, Alaska", Price: "$500", Duration: "4 hr 55 min", Stops: 2},
	}
}

func prices(flights []models.FlightOption) []string {
	out := make([]string, len(flights))
	for i, f := range flights {
		out[i] = f.Price
	}
	return out
}

func names(flights []models.FlightOption) []string {
	out := make([]string, len(flights))
	for i, f := range flights {
		out[i] = f.Name
	}
	return out
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name     string
		filters  *models.SearchFilters
		expected []string
	}{
		{
			name:     "nil filters keep everything",
			filters:  nil,
			expected: []string{"Delta", "United", "JetBlue", "American, Alaska"},
		},
		{
			name:     "max price drops unreadable prices",
			filters:  &models.SearchFilters{PriceMax: ptr(300.0)},
			expected: []string{"Delta"},
		},
		{
			name:     "min price keeps unreadable prices",
			filters:  &models.SearchFilters{PriceMin: ptr(400.0)},
			expected: []string{"JetBlue", "American, Alaska"},
		},
		{
			name:     "max duration",
			filters:  &models.SearchFilters{MaxDuration: ptr(360)},
			expected: []string{"Delta", "American, Alaska"},
		},
		{
			name:     "airline substring is case insensitive",
			filters:  &models.SearchFilters{Airlines: []string{"alaska", "DELTA"}},
			expected: []string{"Delta", "American, Alaska"},
		},
		{
			name:     "nonstop only",
			filters:  &models.SearchFilters{NonstopOnly: true},
			expected: []string{"Delta", "JetBlue"},
		},
		{
			name:     "max stops",
			filters:  &models.SearchFilters{MaxStops: ptr(1)},
			expected: []string{"Delta", "United", "JetBlue"},
		},
		{
			name:     "filters are conjunctive",
			filters:  &models.SearchFilters{PriceMax: ptr(400.0), MaxStops: ptr(0)},
			expected: []string{"Delta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := Apply(sampleFlights(), tt.filters, models.SortNone, models.SortAsc, models.LimitAll)
			assert.Equal(t, tt.expected, names(actual))
		})
	}
}

func TestSortPriceUnreadableLast(t *testing.T) {
	asc := Apply(sampleFlights(), nil, models.SortPrice, models.SortAsc, models.LimitAll)
	assert.Equal(t, []string{"$200", "$350", "$500", models.PriceUnavailable}, prices(asc))

	desc := Apply(sampleFlights(), nil, models.SortPrice, models.SortDesc, models.LimitAll)
	assert.Equal(t, []string{"$500", "$350", "$200", models.PriceUnavailable}, prices(desc))
}

func TestSortDuration(t *testing.T) {
	asc := Apply(sampleFlights(), nil, models.SortDuration, models.SortAsc, models.LimitAll)
	assert.Equal(t, []string{"American, Alaska", "Delta", "JetBlue", "United"}, names(asc))

	desc := Apply(sampleFlights(), nil, models.SortDuration, models.SortDesc, models.LimitAll)
	assert.Equal(t, []string{"United", "JetBlue", "Delta", "American, Alaska"}, names(desc))
}

func TestSortAirline(t *testing.T) {
	actual := Apply(sampleFlights(), nil, models.SortAirline, models.SortAsc, models.LimitAll)
	assert.Equal(t, []string{"American, Alaska", "Delta", "JetBlue", "United"}, names(actual))
}

func TestSortNonePreservesOrder(t *testing.T) {
	actual := Apply(sampleFlights(), nil, models.SortNone, models.SortDesc, models.LimitAll)
	assert.Equal(t, names(sampleFlights()), names(actual))
}

func TestSortBestValueUnreadableLast(t *testing.T) {
	for _, order := range []string{models.SortAsc, models.SortDesc} {
		actual := Apply(sampleFlights(), nil, models.SortBestValue, order, models.LimitAll)
		assert.Equal(t, "JetBlue", actual[len(actual)-1].Name, order)
	}
	asc := Apply(sampleFlights(), nil, models.SortBestValue, models.SortAsc, models.LimitAll)
	assert.Equal(t, "Delta", asc[0].Name)
}

func TestLimitAfterSort(t *testing.T) {
	actual := Apply(sampleFlights(), nil, models.SortPrice, models.SortDesc, 2)
	assert.Equal(t, []string{"$500", "$350"}, prices(actual))

	all := Apply(sampleFlights(), nil, models.SortNone, models.SortAsc, models.LimitAll)
	assert.Len(t, all, 4)

	over := Apply(sampleFlights(), nil, models.SortNone, models.SortAsc, 10)
	assert.Len(t, over, 4)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	input := sampleFlights()
	_ = Apply(input, nil, models.SortAirline, models.SortDesc, 1)
	_ = Apply(input, nil, models.SortPrice, models.SortAsc, 1)
	assert.Equal(t, sampleFlights(), input)
}

func TestApplyRequestKeepsMetadata(t *testing.T) {
	raw := models.SearchResult{
		CurrentPrice: models.PriceLevelLow,
		SearchURL:    "https://example.test/search",
		Flights:      sampleFlights(),
	}
	req := models.SearchRequest{SortBy: models.SortPrice, SortOrder: models.SortAsc, Limit: 1}

	presented := ApplyRequest(raw, req)
	assert.Equal(t, models.PriceLevelLow, presented.CurrentPrice)
	assert.Equal(t, raw.SearchURL, presented.SearchURL)
	assert.Equal(t, []string{"$200"}, prices(presented.Flights))
	assert.Len(t, raw.Flights, 4)
}
