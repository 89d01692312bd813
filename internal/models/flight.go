package models

type PriceLevel string

const (
	PriceLevelLow     PriceLevel = "low"
	PriceLevelTypical PriceLevel = "typical"
	PriceLevelHigh    PriceLevel = "high"
)

// PriceUnavailable is the display price used when none could be read.
// It is a non-numeric sentinel, never zero.
const PriceUnavailable = "N/A"

type FlightOption struct {
	IsBest           bool   `json:"is_best"`
	Name             string `json:"name"`
	Departure        string `json:"departure"`
	Arrival          string `json:"arrival"`
	ArrivalTimeAhead string `json:"arrival_time_ahead,omitempty"`
	Duration         string `json:"duration"`
	Stops            int    `json:"stops"`
	Delay            string `json:"delay,omitempty"`
	Price            string `json:"price"`
	DeepLink         string `json:"deep_link,omitempty"`
}

// LinkOr returns the flight deep link, or fallback when none was recovered.
func (f FlightOption) LinkOr(fallback string) string {
	if f.DeepLink != "" {
		return f.DeepLink
	}
	return fallback
}

type SearchResult struct {
	CurrentPrice PriceLevel     `json:"current_price,omitempty"`
	Flights      []FlightOption `json:"flights"`
	SearchURL    string         `json:"search_url,omitempty"`
}

// WithFlights returns a copy of r carrying flights instead of r.Flights.
func (r SearchResult) WithFlights(flights []FlightOption) SearchResult {
	r.Flights = flights
	return r
}
