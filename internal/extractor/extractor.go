package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/token"
	"github.com/dharmasatrya/flightscrape/pkg/currency"
)

var tracer = otel.Tracer("flightscrape.internal.extractor")

// Extractor turns a fetched results page into a raw SearchResult. It never
// performs I/O; ctx only carries tracing.
type Extractor interface {
	Extract(ctx context.Context, markup string) (models.SearchResult, error)
}

const (
	unknownCarrier = "Unknown"
	notAvailable   = "N/A"
)

// Selectors locates every field on the results page. Upstream markup changes
// without notice, so these are data rather than code.
type Selectors struct {
	Containers  string
	Items       string
	Carrier     string
	Times       string
	DayOffset   string
	Duration    string
	Stops       string
	Delay       string
	Price       string
	PriceBanner string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Containers:  `div[jsname="IWWDBc"], div[jsname="YdtKid"]`,
		Items:       "ul.Rk10dc li",
		Carrier:     "div.sSHqwe.tPgKwe.ogfYpf span",
		Times:       "span.mv1WYe div",
		DayOffset:   "span.bOzv6",
		Duration:    "div.Ak5kof div",
		Stops:       ".BbR8Ec .ogfYpf",
		Delay:       ".GsCCve",
		Price:       ".YMlIz.FpEdX",
		PriceBanner: "span.gOatQ",
	}
}

// Validate compiles every selector. goquery treats an invalid selector as
// matching nothing, which would otherwise look like an empty result page.
func (s Selectors) Validate() error {
	fields := []struct{ name, selector string }{
		{"containers", s.Containers},
		{"items", s.Items},
		{"carrier", s.Carrier},
		{"times", s.Times},
		{"day offset", s.DayOffset},
		{"duration", s.Duration},
		{"stops", s.Stops},
		{"delay", s.Delay},
		{"price", s.Price},
		{"price banner", s.PriceBanner},
	}
	for _, f := range fields {
		if _, err := cascadia.Compile(f.selector); err != nil {
			return fmt.Errorf("selector %s %q: %w", f.name, f.selector, err)
		}
	}
	return nil
}

var (
	leadingInt  = regexp.MustCompile(`^\s*(\d+)`)
	priceLevels = regexp.MustCompile(`\b(low|typical|high)\b`)
)

// GoogleFlights extracts results from the Google Flights search page.
type GoogleFlights struct {
	selectors Selectors
	urls      token.URLConfig
}

func NewGoogleFlights(selectors Selectors, urls token.URLConfig) *GoogleFlights {
	return &GoogleFlights{selectors: selectors, urls: urls}
}

func NewDefault() *GoogleFlights {
	return NewGoogleFlights(DefaultSelectors(), token.DefaultURLConfig())
}

func (g *GoogleFlights) Extract(ctx context.Context, markup string) (result models.SearchResult, err error) {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = models.SearchResult{}
			err = models.NewParsingError(fmt.Sprintf("unexpected page structure: %v", r), nil)
			span.SetStatus(codes.Error, "panic while parsing markup")
		}
	}()

	if err := g.selectors.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid selectors")
		return models.SearchResult{}, models.NewParsingError("extractor selectors are invalid", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return models.SearchResult{}, models.NewParsingError("failed to parse results page", err)
	}

	result = models.SearchResult{
		CurrentPrice: g.priceLevel(doc.Selection),
		Flights:      []models.FlightOption{},
	}

	doc.Find(g.selectors.Containers).Each(func(ci int, container *goquery.Selection) {
		container.Find(g.selectors.Items).Each(func(ii int, item *goquery.Selection) {
			flight, ok := g.flight(item)
			if !ok {
				return
			}
			flight.IsBest = ci == 0 && ii == 0
			result.Flights = append(result.Flights, flight)
		})
	})

	span.SetAttributes(
		attribute.Int("flights", len(result.Flights)),
		attribute.String("price_level", string(result.CurrentPrice)),
	)
	return result, nil
}

func (g *GoogleFlights) flight(item *goquery.Selection) (models.FlightOption, bool) {
	name := normalizeSpace(item.Find(g.selectors.Carrier).First().Text())
	if name == "" {
		name = unknownCarrier
	}
	if name == unknownCarrier {
		return models.FlightOption{}, false
	}

	times := item.Find(g.selectors.Times)
	flight := models.FlightOption{
		Name:             name,
		Departure:        normalizeSpace(times.Eq(0).Text()),
		Arrival:          normalizeSpace(times.Eq(1).Text()),
		ArrivalTimeAhead: normalizeSpace(item.Find(g.selectors.DayOffset).First().Text()),
		Duration:         normalizeSpace(item.Find(g.selectors.Duration).First().Text()),
		Stops:            parseStops(item.Find(g.selectors.Stops).First().Text()),
		Delay:            normalizeSpace(item.Find(g.selectors.Delay).First().Text()),
		Price:            parsePrice(item.Find(g.selectors.Price).First().Text()),
		DeepLink:         g.deepLink(item),
	}
	if flight.ArrivalTimeAhead != "" {
		flight.Arrival = strings.TrimSpace(strings.TrimSuffix(flight.Arrival, flight.ArrivalTimeAhead))
	}
	if flight.Duration == "" {
		flight.Duration = notAvailable
	}
	return flight, true
}

func (g *GoogleFlights) priceLevel(doc *goquery.Selection) models.PriceLevel {
	banner := strings.ToLower(doc.Find(g.selectors.PriceBanner).Text())
	match := priceLevels.FindStringSubmatch(banner)
	if match == nil {
		return ""
	}
	return models.PriceLevel(match[1])
}

func parseStops(label string) int {
	label = strings.TrimSpace(label)
	if label == "" || strings.Contains(strings.ToLower(label), "nonstop") {
		return 0
	}
	match := leadingInt.FindStringSubmatch(label)
	if match == nil {
		return 0
	}
	stops, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return stops
}

func parsePrice(display string) string {
	cleaned := strings.ReplaceAll(normalizeSpace(display), ",", "")
	if _, ok := currency.ParseAmount(cleaned); !ok {
		return models.PriceUnavailable
	}
	return cleaned
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
