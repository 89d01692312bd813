package token

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

// The booking endpoint has no known schema. Its layout was recovered from
// captured booking links and is packed field by field.
const (
	fieldBookingTrip        protowire.Number = 1
	fieldBookingOrigin      protowire.Number = 2
	fieldBookingDestination protowire.Number = 3
	fieldBookingSegment     protowire.Number = 4
	fieldBookingPassengers  protowire.Number = 8
	fieldBookingSeat        protowire.Number = 9

	fieldLegOrigin       protowire.Number = 1
	fieldLegDate         protowire.Number = 2
	fieldLegDestination  protowire.Number = 3
	fieldLegCarrier      protowire.Number = 4
	fieldLegFlightNumber protowire.Number = 5
)

// bookingPassengerCount is written verbatim; the upstream ignores the real
// traveller count here and rejects links without it.
const bookingPassengerCount = 1

// Trailing fields of every captured booking link. Their meaning is unknown;
// they are reproduced byte for byte.
// TODO: re-verify both sentinels against fresh captures when booking links start failing.
var (
	bookingSentinelA = []byte{0x70, 0x01}                   // field 14, varint 1
	bookingSentinelB = []byte{0x82, 0x01, 0x02, 0x08, 0x01} // field 16, bytes {field 1: 1}
)

type packer struct {
	buf []byte
}

func (p *packer) varint(num protowire.Number, v uint64) {
	p.buf = protowire.AppendTag(p.buf, num, protowire.VarintType)
	p.buf = protowire.AppendVarint(p.buf, v)
}

func (p *packer) str(num protowire.Number, s string) {
	p.buf = protowire.AppendTag(p.buf, num, protowire.BytesType)
	p.buf = protowire.AppendString(p.buf, s)
}

func (p *packer) bytes(num protowire.Number, b []byte) {
	p.buf = protowire.AppendTag(p.buf, num, protowire.BytesType)
	p.buf = protowire.AppendBytes(p.buf, b)
}

func (p *packer) raw(b []byte) {
	p.buf = append(p.buf, b...)
}

// EncodeBooking packs a booking deep-link token for an already chosen
// itinerary. Segments must carry carrier and flight number.
func EncodeBooking(segments []Segment, origin, destination string, trip models.TripType, cabin models.CabinClass, passengers models.Passengers) (string, error) {
	raw, err := encodeBooking(segments, origin, destination, trip, cabin, passengers)
	if err != nil {
		return "", models.NewParsingError("failed to encode booking token", err)
	}
	return urlSafe(raw), nil
}

func encodeBooking(segments []Segment, origin, destination string, trip models.TripType, cabin models.CabinClass, passengers models.Passengers) ([]byte, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("at least one segment is required")
	}
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("origin and destination airports are required")
	}
	if err := passengers.Validate(); err != nil {
		return nil, err
	}
	tripV, err := tripValue(trip)
	if err != nil {
		return nil, err
	}
	seat, err := seatValue(cabin)
	if err != nil {
		return nil, err
	}

	var p packer
	p.varint(fieldBookingTrip, tripV)
	p.str(fieldBookingOrigin, origin)
	p.str(fieldBookingDestination, destination)

	for i, s := range segments {
		if s.Date == "" || s.From == "" || s.To == "" || s.Carrier == "" || s.FlightNumber == "" {
			return nil, fmt.Errorf("segment %d is missing date, airports, carrier or flight number", i)
		}
		var leg packer
		leg.str(fieldLegOrigin, s.From)
		leg.str(fieldLegDate, s.Date)
		leg.str(fieldLegDestination, s.To)
		leg.str(fieldLegCarrier, s.Carrier)
		leg.str(fieldLegFlightNumber, s.FlightNumber)
		p.bytes(fieldBookingSegment, leg.buf)
	}

	p.varint(fieldBookingPassengers, bookingPassengerCount)
	p.varint(fieldBookingSeat, seat)
	p.raw(bookingSentinelA)
	p.raw(bookingSentinelB)
	return p.buf, nil
}
