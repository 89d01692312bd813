package token

import (
	"net/url"
	"strings"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

const (
	DefaultSearchBaseURL  = "https://www.google.com/travel/flights/search"
	DefaultBookingBaseURL = "https://www.google.com/travel/flights/booking"

	// searchTFU is sent unchanged with every search request.
	searchTFU = "EgQIABABIgA"

	UserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	consentCookie = "CONSENT=YES+cb.20230531-04-p0.en+FX+908"
)

type URLConfig struct {
	SearchBaseURL  string
	BookingBaseURL string
}

func DefaultURLConfig() URLConfig {
	return URLConfig{
		SearchBaseURL:  DefaultSearchBaseURL,
		BookingBaseURL: DefaultBookingBaseURL,
	}
}

func (c URLConfig) withDefaults() URLConfig {
	if c.SearchBaseURL == "" {
		c.SearchBaseURL = DefaultSearchBaseURL
	}
	if c.BookingBaseURL == "" {
		c.BookingBaseURL = DefaultBookingBaseURL
	}
	return c
}

// SearchURL keeps the parameter order tfs, hl, tfu, curr.
func (c URLConfig) SearchURL(tfs, currency string) string {
	c = c.withDefaults()
	var b strings.Builder
	b.WriteString(c.SearchBaseURL)
	b.WriteString("?tfs=")
	b.WriteString(url.QueryEscape(tfs))
	b.WriteString("&hl=en&tfu=")
	b.WriteString(searchTFU)
	if currency != "" {
		b.WriteString("&curr=")
		b.WriteString(url.QueryEscape(currency))
	}
	return b.String()
}

func (c URLConfig) BookingURL(tfs, currency string) string {
	c = c.withDefaults()
	var b strings.Builder
	b.WriteString(c.BookingBaseURL)
	b.WriteString("?tfs=")
	b.WriteString(url.QueryEscape(tfs))
	b.WriteString("&hl=en")
	if currency != "" {
		b.WriteString("&curr=")
		b.WriteString(url.QueryEscape(currency))
	}
	return b.String()
}

// BuildSearchURL encodes a validated request into its search URL.
func (c URLConfig) BuildSearchURL(req models.SearchRequest) (string, error) {
	tfs, err := EncodeSearch(SegmentsFor(req), req.TripType, req.CabinClass, req.Passengers)
	if err != nil {
		return "", err
	}
	return c.SearchURL(tfs, req.Currency), nil
}

// Headers is the fixed header set sent with every upstream request.
func Headers() map[string]string {
	return map[string]string{
		"User-Agent":      UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept-Encoding": "gzip",
		"Cookie":          consentCookie,
	}
}
