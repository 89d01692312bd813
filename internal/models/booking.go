package models

import (
	"strings"
	"time"
)

const (
	ErrMissingSegments      ValidationError = "booking links need at least one segment"
	ErrMissingFlightDetails ValidationError = "every segment needs a carrier and flight number"
)

// Validate normalizes codes and fills the same defaults as a search.
func (r *BookingLinkRequest) Validate() error {
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
	if len(r.Segments) == 0 {
		return ErrMissingSegments
	}
	for i := range r.Segments {
		s := &r.Segments[i]
		s.Origin = strings.ToUpper(strings.TrimSpace(s.Origin))
		s.Destination = strings.ToUpper(strings.TrimSpace(s.Destination))
		s.Carrier = strings.ToUpper(strings.TrimSpace(s.Carrier))
		s.FlightNumber = strings.TrimSpace(s.FlightNumber)
		if !IsAirportCode(s.Origin) || !IsAirportCode(s.Destination) {
			return ErrInvalidAirport
		}
		if _, err := time.Parse(DateLayout, s.Date); err != nil {
			return ErrInvalidDate
		}
		if s.Carrier == "" || s.FlightNumber == "" {
			return ErrMissingFlightDetails
		}
	}

	if r.TripType == "" {
		r.TripType = TripOneWay
		if len(r.Segments) > 1 {
			r.TripType = TripRoundTrip
		}
	}
	switch r.TripType {
	case TripOneWay, TripRoundTrip, TripMultiCity:
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
	return nil
}
