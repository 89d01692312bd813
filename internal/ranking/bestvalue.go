package ranking

import (
	"math"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/pkg/currency"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

// CalculateScores returns one best-value score per flight, in input order.
// Flights without a readable price score +Inf so they rank last.
func CalculateScores(flights []models.FlightOption) []float64 {
	scores := make([]float64, len(flights))
	if len(flights) == 0 {
		return scores
	}

	maxPrice := findMaxPrice(flights)
	maxDuration := findMaxDuration(flights)

	for i, f := range flights {
		scores[i] = CalculateBestValue(f, maxPrice, maxDuration)
	}
	return scores
}

// Lower score = better value
func CalculateBestValue(flight models.FlightOption, maxPrice, maxDuration float64) float64 {
	amount, ok := currency.ParseAmount(flight.Price)
	if !ok {
		return math.Inf(1)
	}

	priceScore := 0.0
	if maxPrice > 0 {
		priceScore = (amount.InexactFloat64() / maxPrice) * 100
	}

	durationScore := 0.0
	if maxDuration > 0 {
		durationScore = (float64(models.DurationMinutes(flight.Duration)) / maxDuration) * 100
	}

	stopsScore := float64(flight.Stops) * 15
	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)

	return math.Round(score*100) / 100
}

func findMaxPrice(flights []models.FlightOption) float64 {
	maxPrice := 0.0
	for _, f := range flights {
		amount, ok := currency.ParseAmount(f.Price)
		if !ok {
			continue
		}
		if v := amount.InexactFloat64(); v > maxPrice {
			maxPrice = v
		}
	}
	return maxPrice
}

func findMaxDuration(flights []models.FlightOption) float64 {
	maxDuration := 0.0
	for _, f := range flights {
		dur := float64(models.DurationMinutes(f.Duration))
		if dur > maxDuration {
			maxDuration = dur
		}
	}
	return maxDuration
}
