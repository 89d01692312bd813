package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type TripType string

const (
	TripOneWay    TripType = "one-way"
	TripRoundTrip TripType = "round-trip"
	TripMultiCity TripType = "multi-city"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium-economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

const (
	SortNone      = "none"
	SortPrice     = "price"
	SortDuration  = "duration"
	SortAirline   = "airline"
	SortBestValue = "best_value"

	SortAsc  = "asc"
	SortDesc = "desc"
)

const (
	DateLayout    = "2006-01-02"
	MaxPassengers = 9
)

type Passengers struct {
	Adults        int `json:"adults"`
	Children      int `json:"children"`
	InfantsInSeat int `json:"infants_in_seat"`
	InfantsOnLap  int `json:"infants_on_lap"`
}

func (p Passengers) Total() int {
	return p.Adults + p.Children + p.InfantsInSeat + p.InfantsOnLap
}

// Limit caps the number of presented flights. LimitAll (zero) means no cap.
type Limit int

const LimitAll Limit = 0

func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return LimitAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, ErrInvalidLimit
	}
	return Limit(n), nil
}

func (l Limit) String() string {
	if l == LimitAll {
		return "all"
	}
	return strconv.Itoa(int(l))
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l == LimitAll {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(int(l))), nil
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseLimit(s)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidLimit
	}
	if n < 0 {
		return ErrInvalidLimit
	}
	*l = Limit(n)
	return nil
}

type SearchFilters struct {
	PriceMin    *float64 `json:"price_min,omitempty"`
	PriceMax    *float64 `json:"price_max,omitempty"`
	MaxStops    *int     `json:"max_stops,omitempty"`
	Airlines    []string `json:"airlines,omitempty"`
	MaxDuration *int     `json:"max_duration,omitempty"`
	NonstopOnly bool     `json:"nonstop_only,omitempty"`
}

// Leg is an additional multi-city leg after the first origin/destination pair.
type Leg struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

type SearchRequest struct {
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	DepartureDate string         `json:"departure_date"`
	ReturnDate    *string        `json:"return_date,omitempty"`
	TripType      TripType       `json:"trip_type"`
	Legs          []Leg          `json:"legs,omitempty"`
	CabinClass    CabinClass     `json:"cabin_class"`
	Passengers    Passengers     `json:"passengers"`
	Currency      string         `json:"currency,omitempty"`
	Filters       *SearchFilters `json:"filters,omitempty"`
	SortBy        string         `json:"sort_by,omitempty"`
	SortOrder     string         `json:"sort_order,omitempty"`
	Limit         Limit          `json:"limit,omitempty"`
}

// Validate fills defaults and checks every request invariant. The returned
// error is always a ValidationError.
func (r *SearchRequest) Validate() error {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))

	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if !IsAirportCode(r.Origin) || !IsAirportCode(r.Destination) {
		return ErrInvalidAirport
	}
	if r.Origin == r.Destination {
		return ErrSameAirports
	}
	if r.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	departure, err := time.Parse(DateLayout, r.DepartureDate)
	if err != nil {
		return ErrInvalidDate
	}

	if r.TripType == "" {
		r.TripType = TripOneWay
		if r.ReturnDate != nil && *r.ReturnDate != "" {
			r.TripType = TripRoundTrip
		}
	}
	switch r.TripType {
	case TripOneWay:
		r.ReturnDate = nil
		r.Legs = nil
	case TripRoundTrip:
		r.Legs = nil
		if r.ReturnDate == nil || *r.ReturnDate == "" {
			return ErrMissingReturnDate
		}
		ret, err := time.Parse(DateLayout, *r.ReturnDate)
		if err != nil {
			return ErrInvalidDate
		}
		if ret.Before(departure) {
			return ErrReturnBeforeDeparture
		}
	case TripMultiCity:
		if len(r.Legs) == 0 {
			return ErrMissingLegs
		}
		for i := range r.Legs {
			leg := &r.Legs[i]
			leg.Origin = strings.ToUpper(strings.TrimSpace(leg.Origin))
			leg.Destination = strings.ToUpper(strings.TrimSpace(leg.Destination))
			if !IsAirportCode(leg.Origin) || !IsAirportCode(leg.Destination) {
				return ErrInvalidAirport
			}
			if _, err := time.Parse(DateLayout, leg.Date); err != nil {
				return ErrInvalidDate
			}
		}
		r.ReturnDate = nil
	default:
		return ErrInvalidTripType
	}

	if r.CabinClass == "" {
		r.CabinClass = CabinEconomy
	}
	switch r.CabinClass {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
	default:
		return ErrInvalidCabinClass
	}

	if r.Passengers == (Passengers{}) {
		r.Passengers.Adults = 1
	}
	if err := r.Passengers.Validate(); err != nil {
		return err
	}

	if r.Currency != "" && !isAlpha(r.Currency, 3) {
		return ErrInvalidCurrency
	}

	r.SortBy = strings.ToLower(r.SortBy)
	if r.SortBy == "" {
		r.SortBy = SortNone
	}
	switch r.SortBy {
	case SortNone, SortPrice, SortDuration, SortAirline, SortBestValue:
	default:
		return ErrInvalidSort
	}
	r.SortOrder = strings.ToLower(r.SortOrder)
	if r.SortOrder == "" {
		r.SortOrder = SortAsc
	}
	if r.SortOrder != SortAsc && r.SortOrder != SortDesc {
		return ErrInvalidSort
	}

	if r.Limit < 0 {
		return ErrInvalidLimit
	}
	if r.Filters != nil {
		if r.Filters.MaxStops != nil && *r.Filters.MaxStops < 0 {
			return ErrInvalidFilter
		}
		if r.Filters.MaxDuration != nil && *r.Filters.MaxDuration <= 0 {
			return ErrInvalidFilter
		}
	}
	return nil
}

func (p Passengers) Validate() error {
	if p.Adults < 1 {
		return ErrNoAdults
	}
	if p.Children < 0 || p.InfantsInSeat < 0 || p.InfantsOnLap < 0 {
		return ErrNegativePassengers
	}
	if p.Total() > MaxPassengers {
		return ErrTooManyPassengers
	}
	if p.InfantsOnLap > p.Adults {
		return ErrTooManyLapInfants
	}
	return nil
}

func IsAirportCode(s string) bool {
	return isAlpha(s, 3)
}

func isAlpha(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrMissingReturnDate     ValidationError = "return_date is required for round-trip searches"
	ErrMissingLegs           ValidationError = "multi-city searches need at least one additional leg"
	ErrInvalidAirport        ValidationError = "airport codes must be 3 letters"
	ErrSameAirports          ValidationError = "origin and destination must differ"
	ErrInvalidDate           ValidationError = "dates must use the YYYY-MM-DD format"
	ErrReturnBeforeDeparture ValidationError = "return_date must not be before departure_date"
	ErrInvalidTripType       ValidationError = "trip_type must be one-way, round-trip or multi-city"
	ErrInvalidCabinClass     ValidationError = "cabin_class must be economy, premium-economy, business or first"
	ErrNoAdults              ValidationError = "at least one adult passenger is required"
	ErrNegativePassengers    ValidationError = "passenger counts must not be negative"
	ErrTooManyPassengers     ValidationError = "no more than 9 passengers per search"
	ErrTooManyLapInfants     ValidationError = "each infant on lap needs an adult"
	ErrInvalidCurrency       ValidationError = "currency must be a 3-letter code"
	ErrInvalidSort           ValidationError = "sort_by must be none, price, duration, airline or best_value and sort_order asc or desc"
	ErrInvalidLimit          ValidationError = "limit must be a positive integer or \"all\""
	ErrInvalidFilter         ValidationError = "filters contain a negative or zero bound"
)
