package extractor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/token"
)

type item struct {
	carrier   string
	depart    string
	arrive    string
	dayOffset string
	duration  string
	stops     string
	delay     string
	price     string
	extra     string
}

func (i item) html() string {
	var b strings.Builder
	b.WriteString("<li>")
	if i.carrier != "" {
		fmt.Fprintf(&b, `<div class="sSHqwe tPgKwe ogfYpf"><span>%s</span></div>`, i.carrier)
	}
	fmt.Fprintf(&b, `<span class="mv1WYe"><div> %s </div> – <div>%s`, i.depart, i.arrive)
	if i.dayOffset != "" {
		fmt.Fprintf(&b, `<span class="bOzv6">%s</span>`, i.dayOffset)
	}
	b.WriteString(`</div></span>`)
	if i.duration != "" {
		fmt.Fprintf(&b, `<div class="Ak5kof"><div>%s</div></div>`, i.duration)
	}
	if i.stops != "" {
		fmt.Fprintf(&b, `<div class="BbR8Ec"><span class="ogfYpf">%s</span></div>`, i.stops)
	}
	if i.delay != "" {
		fmt.Fprintf(&b, `<div class="GsCCve">%s</div>`, i.delay)
	}
	if i.price != "" {
		fmt.Fprintf(&b, `<div class="YMlIz FpEdX"><span>%s</span></div>`, i.price)
	}
	b.WriteString(i.extra)
	b.WriteString("</li>")
	return b.String()
}

func page(banner string, containers ...[]item) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if banner != "" {
		fmt.Fprintf(&b, `<div><span class="gOatQ">%s</span></div>`, banner)
	}
	for i, items := range containers {
		jsname := "IWWDBc"
		if i > 0 {
			jsname = "YdtKid"
		}
		fmt.Fprintf(&b, `<div jsname="%s"><ul class="Rk10dc">`, jsname)
		for _, it := range items {
			b.WriteString(it.html())
		}
		b.WriteString("</ul></div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func extract(t *testing.T, markup string) models.SearchResult {
	t.Helper()
	result, err := NewDefault().Extract(context.Background(), markup)
	require.NoError(t, err)
	return result
}

func TestExtractUnrelatedMarkup(t *testing.T) {
	result := extract(t, "<html><body><p>nothing to see</p></body></html>")
	assert.Empty(t, result.Flights)
	assert.NotNil(t, result.Flights)
	assert.Equal(t, models.PriceLevel(""), result.CurrentPrice)
}

func TestExtractPriceLevel(t *testing.T) {
	tests := []struct {
		banner   string
		expected models.PriceLevel
	}{
		{"Prices are currently low for your search", models.PriceLevelLow},
		{"Prices are currently typical", models.PriceLevelTypical},
		{"Prices are currently HIGH", models.PriceLevelHigh},
		{"Prices are below average", ""},
	}

	for _, tt := range tests {
		t.Run(tt.banner, func(t *testing.T) {
			result := extract(t, page(tt.banner))
			assert.Equal(t, tt.expected, result.CurrentPrice)
		})
	}
}

func TestExtractFlights(t *testing.T) {
	markup := page("Prices are currently typical",
		[]item{
			{carrier: "Delta", depart: "6:00 AM", arrive: "9:30 AM", duration: "5 hr 30 min", stops: "Nonstop", price: "$1,234"},
			{carrier: "United", depart: "7:15  AM", arrive: "1:05 AM", dayOffset: "+1", duration: "8 hr 50 min", stops: "1 stop", delay: "Often delayed by 30+ min", price: "$350"},
		},
		[]item{
			{carrier: "American, Alaska", depart: "10:00 PM", arrive: "6:45 AM", stops: "2 stops"},
		},
	)

	expected := []models.FlightOption{
		{IsBest: true, Name: "Delta", Departure: "6:00 AM", Arrival: "9:30 AM", Duration: "5 hr 30 min", Stops: 0, Price: "$1234"},
		{Name: "United", Departure: "7:15 AM", Arrival: "1:05 AM", ArrivalTimeAhead: "+1", Duration: "8 hr 50 min", Stops: 1, Delay: "Often delayed by 30+ min", Price: "$350"},
		{Name: "American, Alaska", Departure: "10:00 PM", Arrival: "6:45 AM", Duration: "N/A", Stops: 2, Price: models.PriceUnavailable},
	}

	result := extract(t, markup)
	assert.Equal(t, models.PriceLevelTypical, result.CurrentPrice)
	if diff := cmp.Diff(expected, result.Flights); diff != "" {
		t.Errorf("flights mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractDropsItemsWithoutCarrier(t *testing.T) {
	markup := page("",
		[]item{
			{depart: "6:00 AM", arrive: "9:30 AM", price: "$200"},
			{carrier: "Delta", depart: "7:00 AM", arrive: "10:30 AM", price: "$210"},
		},
	)

	result := extract(t, markup)
	require.Len(t, result.Flights, 1)
	assert.Equal(t, "Delta", result.Flights[0].Name)
	assert.False(t, result.Flights[0].IsBest, "only the first item of the first container is best")
}

func TestExtractOnlyFirstItemIsBest(t *testing.T) {
	markup := page("",
		[]item{{carrier: "A", price: "$1"}, {carrier: "B", price: "$2"}},
		[]item{{carrier: "C", price: "$3"}},
	)

	result := extract(t, markup)
	require.Len(t, result.Flights, 3)
	assert.True(t, result.Flights[0].IsBest)
	assert.False(t, result.Flights[1].IsBest)
	assert.False(t, result.Flights[2].IsBest)
}

func TestParseStops(t *testing.T) {
	assert.Equal(t, 0, parseStops(""))
	assert.Equal(t, 0, parseStops("Nonstop"))
	assert.Equal(t, 1, parseStops("1 stop"))
	assert.Equal(t, 3, parseStops(" 3 stops in LHR"))
	assert.Equal(t, 0, parseStops("stops vary"))
}

func TestDeepLinkStrategies(t *testing.T) {
	urls := token.URLConfig{BookingBaseURL: "https://flights.example/travel/flights/booking"}

	tests := []struct {
		name     string
		extra    string
		expected string
	}{
		{
			name:     "relative href",
			extra:    `<a href="/travel/flights/booking?tfs=ABC&hl=en">Select</a>`,
			expected: "https://flights.example/travel/flights/booking?tfs=ABC&hl=en",
		},
		{
			name:     "absolute href with token",
			extra:    `<a href="https://other.example/x?tfs=XYZ">Select</a>`,
			expected: "https://other.example/x?tfs=XYZ",
		},
		{
			name:     "anchor data raw token",
			extra:    `<a data-tfs="Cjw_raw-token">Select</a>`,
			expected: "https://flights.example/travel/flights/booking?tfs=Cjw_raw-token&hl=en",
		},
		{
			name:     "anchor data partial url",
			extra:    `<a data-url="?tfs=PART&amp;hl=en">Select</a>`,
			expected: "https://flights.example/travel/flights/booking?tfs=PART&hl=en",
		},
		{
			name:     "embedded structured data",
			extra:    `<div jsdata="x;y;booking?tfs=EMB_1-2&amp;z"></div>`,
			expected: "https://flights.example/travel/flights/booking?tfs=EMB_1-2&hl=en",
		},
		{
			name:     "onclick booking path",
			extra:    `<button onclick="location.href='/travel/flights/booking?tfs=CLICK'">Go</button>`,
			expected: "https://flights.example/travel/flights/booking?tfs=CLICK",
		},
		{
			name:     "href wins over data attributes",
			extra:    `<a data-tfs="DATA" href="/travel/flights/booking?tfs=HREF">Select</a>`,
			expected: "https://flights.example/travel/flights/booking?tfs=HREF",
		},
		{
			name:     "unrelated links are ignored",
			extra:    `<a href="/help">Help</a>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markup := page("", []item{{carrier: "Delta", price: "$200", extra: tt.extra}})
			result, err := NewGoogleFlights(DefaultSelectors(), urls).Extract(context.Background(), markup)
			require.NoError(t, err)
			require.Len(t, result.Flights, 1)
			assert.Equal(t, tt.expected, result.Flights[0].DeepLink)
		})
	}
}

func TestCustomSelectors(t *testing.T) {
	selectors := DefaultSelectors()
	selectors.Containers = "section.results"
	selectors.Items = "article"
	selectors.Carrier = ".airline"
	selectors.Price = ".fare"

	markup := `<section class="results"><article><p class="airline">Qantas</p><p class="fare">A$999</p></article></section>`
	result, err := NewGoogleFlights(selectors, token.DefaultURLConfig()).Extract(context.Background(), markup)
	require.NoError(t, err)
	require.Len(t, result.Flights, 1)
	assert.Equal(t, "Qantas", result.Flights[0].Name)
	assert.Equal(t, "A$999", result.Flights[0].Price)
}

func TestInvalidSelectorIsParsingError(t *testing.T) {
	selectors := DefaultSelectors()
	selectors.Containers = "div[unclosed"

	_, err := NewGoogleFlights(selectors, token.DefaultURLConfig()).Extract(context.Background(), page(""))
	require.Error(t, err)
	assert.Equal(t, models.ReasonParsingError, models.ReasonOf(err))
	assert.False(t, models.IsRetryable(err))
}
