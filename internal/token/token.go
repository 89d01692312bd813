// Package token builds the opaque "tfs" query parameter the flight search
// site uses to describe a search or a booking.
//
// The search token is a protobuf message serialized by hand with protowire
// against the upstream's undocumented schema:
//
//	message Airport    { string airport = 2; }
//	message FlightData { string date = 2; optional int32 max_stops = 5;
//	                     repeated string airlines = 6;
//	                     Airport from = 13; Airport to = 14; }
//	message Info       { repeated FlightData data = 3;
//	                     repeated Passenger passengers = 8; // packed
//	                     Seat seat = 9; Trip trip = 19; }
package token

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

const (
	fieldInfoData       protowire.Number = 3
	fieldInfoPassengers protowire.Number = 8
	fieldInfoSeat       protowire.Number = 9
	fieldInfoTrip       protowire.Number = 19

	fieldDataDate     protowire.Number = 2
	fieldDataMaxStops protowire.Number = 5
	fieldDataAirlines protowire.Number = 6
	fieldDataFrom     protowire.Number = 13
	fieldDataTo       protowire.Number = 14

	fieldAirportCode protowire.Number = 2
)

const (
	passengerAdult        uint64 = 1
	passengerChild        uint64 = 2
	passengerInfantInSeat uint64 = 3
	passengerInfantOnLap  uint64 = 4
)

// Segment is one leg of a trip. Carrier and FlightNumber are only used by
// booking tokens.
type Segment struct {
	Date         string
	From         string
	To           string
	MaxStops     *int
	Airlines     []string
	Carrier      string
	FlightNumber string
}

func seatValue(c models.CabinClass) (uint64, error) {
	switch c {
	case models.CabinEconomy:
		return 1, nil
	case models.CabinPremiumEconomy:
		return 2, nil
	case models.CabinBusiness:
		return 3, nil
	case models.CabinFirst:
		return 4, nil
	}
	return 0, fmt.Errorf("unsupported cabin class %q", c)
}

func tripValue(t models.TripType) (uint64, error) {
	switch t {
	case models.TripRoundTrip:
		return 1, nil
	case models.TripOneWay:
		return 2, nil
	case models.TripMultiCity:
		return 3, nil
	}
	return 0, fmt.Errorf("unsupported trip type %q", t)
}

// passengerValues expands counts to one enum per traveller, adults first.
func passengerValues(p models.Passengers) []uint64 {
	values := make([]uint64, 0, p.Total())
	for i := 0; i < p.Adults; i++ {
		values = append(values, passengerAdult)
	}
	for i := 0; i < p.Children; i++ {
		values = append(values, passengerChild)
	}
	for i := 0; i < p.InfantsInSeat; i++ {
		values = append(values, passengerInfantInSeat)
	}
	for i := 0; i < p.InfantsOnLap; i++ {
		values = append(values, passengerInfantOnLap)
	}
	return values
}

func encodeSegment(s Segment) ([]byte, error) {
	if s.Date == "" || s.From == "" || s.To == "" {
		return nil, fmt.Errorf("segment needs date, origin and destination")
	}

	var b []byte
	b = protowire.AppendTag(b, fieldDataDate, protowire.BytesType)
	b = protowire.AppendString(b, s.Date)

	if s.MaxStops != nil {
		if *s.MaxStops < 0 {
			return nil, fmt.Errorf("max stops must not be negative")
		}
		b = protowire.AppendTag(b, fieldDataMaxStops, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*s.MaxStops))
	}
	for _, airline := range s.Airlines {
		b = protowire.AppendTag(b, fieldDataAirlines, protowire.BytesType)
		b = protowire.AppendString(b, airline)
	}

	b = protowire.AppendTag(b, fieldDataFrom, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeAirport(s.From))
	b = protowire.AppendTag(b, fieldDataTo, protowire.BytesType)
	b = protowire.AppendBytes(b, encodeAirport(s.To))
	return b, nil
}

func encodeAirport(code string) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldAirportCode, protowire.BytesType)
	return protowire.AppendString(b, code)
}

// EncodeSearch serializes a search into a URL-safe token. Any failure is a
// ParsingError: it means the inputs cannot be expressed in the wire schema.
func EncodeSearch(segments []Segment, trip models.TripType, cabin models.CabinClass, passengers models.Passengers) (string, error) {
	raw, err := encodeSearch(segments, trip, cabin, passengers)
	if err != nil {
		return "", models.NewParsingError("failed to encode search token", err)
	}
	return urlSafe(raw), nil
}

func encodeSearch(segments []Segment, trip models.TripType, cabin models.CabinClass, passengers models.Passengers) ([]byte, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("at least one segment is required")
	}
	if err := passengers.Validate(); err != nil {
		return nil, err
	}
	seat, err := seatValue(cabin)
	if err != nil {
		return nil, err
	}
	tripV, err := tripValue(trip)
	if err != nil {
		return nil, err
	}

	var b []byte
	for _, s := range segments {
		data, err := encodeSegment(s)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, fieldInfoData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}

	var packed []byte
	for _, v := range passengerValues(passengers) {
		packed = protowire.AppendVarint(packed, v)
	}
	b = protowire.AppendTag(b, fieldInfoPassengers, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	b = protowire.AppendTag(b, fieldInfoSeat, protowire.VarintType)
	b = protowire.AppendVarint(b, seat)
	b = protowire.AppendTag(b, fieldInfoTrip, protowire.VarintType)
	b = protowire.AppendVarint(b, tripV)
	return b, nil
}

// urlSafe is standard base64 with '+' -> '-', '/' -> '_' and no padding.
func urlSafe(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// SegmentsFor derives the token segments of a validated request.
func SegmentsFor(req models.SearchRequest) []Segment {
	var maxStops *int
	if req.Filters != nil && req.Filters.MaxStops != nil {
		v := *req.Filters.MaxStops
		maxStops = &v
	}
	if req.Filters != nil && req.Filters.NonstopOnly {
		zero := 0
		maxStops = &zero
	}

	segments := []Segment{{
		Date:     req.DepartureDate,
		From:     req.Origin,
		To:       req.Destination,
		MaxStops: maxStops,
	}}

	switch req.TripType {
	case models.TripRoundTrip:
		if req.ReturnDate != nil {
			segments = append(segments, Segment{
				Date:     *req.ReturnDate,
				From:     req.Destination,
				To:       req.Origin,
				MaxStops: maxStops,
			})
		}
	case models.TripMultiCity:
		for _, leg := range req.Legs {
			segments = append(segments, Segment{
				Date:     leg.Date,
				From:     leg.Origin,
				To:       leg.Destination,
				MaxStops: maxStops,
			})
		}
	}
	return segments
}
