package filter

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/ranking"
	"github.com/dharmasatrya/flightscrape/pkg/currency"
)

// Apply runs filter, sort and limit in that order. The input slice is never
// modified, so cached results can be presented many times.
func Apply(flights []models.FlightOption, filters *models.SearchFilters, sortBy, sortOrder string, limit models.Limit) []models.FlightOption {
	filtered := applyFilters(flights, filters)
	sorted := applySort(filtered, sortBy, sortOrder)
	return applyLimit(sorted, limit)
}

// ApplyRequest presents a raw result for the given request.
func ApplyRequest(raw models.SearchResult, req models.SearchRequest) models.SearchResult {
	return raw.WithFlights(Apply(raw.Flights, req.Filters, req.SortBy, req.SortOrder, req.Limit))
}

func applyFilters(flights []models.FlightOption, filters *models.SearchFilters) []models.FlightOption {
	result := make([]models.FlightOption, 0, len(flights))

	for _, f := range flights {
		if filters == nil || matchesFilters(f, filters) {
			result = append(result, f)
		}
	}

	return result
}

func matchesFilters(f models.FlightOption, filters *models.SearchFilters) bool {
	if filters.PriceMax != nil || filters.PriceMin != nil {
		amount, ok := currency.ParseAmount(f.Price)

		// an unreadable price is treated as larger than any bound
		if filters.PriceMax != nil && (!ok || amount.GreaterThan(decimal.NewFromFloat(*filters.PriceMax))) {
			return false
		}
		if filters.PriceMin != nil && ok && amount.LessThan(decimal.NewFromFloat(*filters.PriceMin)) {
			return false
		}
	}

	if filters.MaxDuration != nil && models.DurationMinutes(f.Duration) > *filters.MaxDuration {
		return false
	}

	if len(filters.Airlines) > 0 {
		name := strings.ToLower(f.Name)
		found := false
		for _, airline := range filters.Airlines {
			if airline != "" && strings.Contains(name, strings.ToLower(airline)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filters.NonstopOnly && f.Stops != 0 {
		return false
	}

	if filters.MaxStops != nil && f.Stops > *filters.MaxStops {
		return false
	}

	return true
}

func applySort(flights []models.FlightOption, sortBy, sortOrder string) []models.FlightOption {
	if len(flights) == 0 {
		return flights
	}

	ascending := strings.ToLower(sortOrder) != models.SortDesc

	switch strings.ToLower(sortBy) {
	case models.SortPrice:
		type priced struct {
			amount decimal.Decimal
			ok     bool
		}
		keys := make([]priced, len(flights))
		idx := indices(len(flights))
		for i, f := range flights {
			amount, ok := currency.ParseAmount(f.Price)
			keys[i] = priced{amount, ok}
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ka, kb := keys[idx[a]], keys[idx[b]]
			if ka.ok != kb.ok {
				return ka.ok
			}
			if !ka.ok {
				return false
			}
			if ascending {
				return ka.amount.LessThan(kb.amount)
			}
			return ka.amount.GreaterThan(kb.amount)
		})
		return reorder(flights, idx)

	case models.SortDuration:
		minutes := make([]int, len(flights))
		for i, f := range flights {
			minutes[i] = models.DurationMinutes(f.Duration)
		}
		idx := indices(len(flights))
		sort.SliceStable(idx, func(a, b int) bool {
			if ascending {
				return minutes[idx[a]] < minutes[idx[b]]
			}
			return minutes[idx[a]] > minutes[idx[b]]
		})
		return reorder(flights, idx)

	case models.SortAirline:
		sort.SliceStable(flights, func(i, j int) bool {
			a, b := strings.ToLower(flights[i].Name), strings.ToLower(flights[j].Name)
			if ascending {
				return a < b
			}
			return a > b
		})

	case models.SortBestValue:
		scores := ranking.CalculateScores(flights)
		idx := indices(len(flights))
		sort.SliceStable(idx, func(a, b int) bool {
			sa, sb := scores[idx[a]], scores[idx[b]]
			if math.IsInf(sa, 1) || math.IsInf(sb, 1) {
				return !math.IsInf(sa, 1) && math.IsInf(sb, 1)
			}
			if ascending {
				return sa < sb
			}
			return sa > sb
		})
		return reorder(flights, idx)
	}

	return flights
}

func applyLimit(flights []models.FlightOption, limit models.Limit) []models.FlightOption {
	if limit == models.LimitAll || int(limit) >= len(flights) {
		return flights
	}
	return flights[:limit]
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func reorder(flights []models.FlightOption, idx []int) []models.FlightOption {
	out := make([]models.FlightOption, len(idx))
	for i, j := range idx {
		out[i] = flights[j]
	}
	return out
}
