package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/flightscrape/internal/scraper"
	"github.com/dharmasatrya/flightscrape/pkg/currency"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderFlights(w io.Writer, result *scraper.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"", "Airline", "Departure", "Arrival", "Duration", "Stops", "Price", "Delay"})
	for _, f := range result.Flights {
		best := ""
		if f.IsBest {
			best = "*"
		}
		arrival := f.Arrival
		if f.ArrivalTimeAhead != "" {
			arrival += " " + f.ArrivalTimeAhead
		}
		t.AppendRow(table.Row{best, f.Name, f.Departure, arrival, f.Duration, f.Stops, f.Price, f.Delay})
	}
	t.Render()

	summary := fmt.Sprintf("%s flights", humanize.Comma(int64(len(result.Flights))))
	if result.CurrentPrice != "" {
		summary += fmt.Sprintf(", prices are %s", result.CurrentPrice)
	}
	if cheapest, ok := cheapestFare(result); ok {
		summary += ", cheapest " + currency.Format(cheapest, result.Request.Currency)
	}
	if result.CacheHit {
		summary += ", from cache"
	}
	fmt.Fprintf(w, "%s (%s)\n", summary, result.Elapsed.Round(time.Millisecond))
	if result.SearchURL != "" {
		fmt.Fprintln(w, result.SearchURL)
	}
}

func cheapestFare(result *scraper.Result) (decimal.Decimal, bool) {
	var (
		cheapest decimal.Decimal
		found    bool
	)
	for _, f := range result.Flights {
		amount, ok := currency.ParseAmount(f.Price)
		if !ok {
			continue
		}
		if !found || amount.LessThan(cheapest) {
			cheapest, found = amount, true
		}
	}
	return cheapest, found
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
