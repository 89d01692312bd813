package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

var bookingOpts struct {
	cabin    string
	trip     string
	adults   int
	currency string
}

func init() {
	f := bookingLinkCmd.Flags()
	f.StringVar(&bookingOpts.cabin, "cabin", "", "Cabin class.")
	f.StringVar(&bookingOpts.trip, "trip", "", "Trip type; inferred from the segment count when empty.")
	f.IntVar(&bookingOpts.adults, "adults", 1, "Number of adults.")
	f.StringVar(&bookingOpts.currency, "currency", "", "Currency code for the booking page.")

	rootCmd.AddCommand(bookingLinkCmd)
}

var bookingLinkCmd = &cobra.Command{
	Use:   "booking-link <origin> <destination> <date:FROM-TO:CARRIER:NUMBER>...",
	Short: "Builds a booking deep link for the given flight segments.",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		segments := make([]models.BookingSegment, 0, len(args)-2)
		for _, arg := range args[2:] {
			seg, err := parseSegment(arg)
			if err != nil {
				return models.NewInvalidInput(err)
			}
			segments = append(segments, seg)
		}

		s, cfg, err := loadScraper()
		if err != nil {
			return err
		}
		defer s.Close()

		req := models.BookingLinkRequest{
			Origin:      args[0],
			Destination: args[1],
			TripType:    models.TripType(bookingOpts.trip),
			CabinClass:  models.CabinClass(bookingOpts.cabin),
			Passengers:  models.Passengers{Adults: bookingOpts.adults},
			Currency:    bookingOpts.currency,
			Segments:    segments,
		}
		if req.Currency == "" {
			req.Currency = cfg.Currency
		}

		res, err := s.BookingLink(req)
		if err != nil {
			return err
		}
		if *jsonOutput {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.URL)
		return nil
	},
}

// parseSegment reads "2025-01-01:JFK-LAX:DL:123".
func parseSegment(s string) (models.BookingSegment, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return models.BookingSegment{}, fmt.Errorf("segment %q must look like DATE:FROM-TO:CARRIER:NUMBER", s)
	}
	route := strings.SplitN(parts[1], "-", 2)
	if len(route) != 2 {
		return models.BookingSegment{}, fmt.Errorf("segment %q route must look like FROM-TO", s)
	}
	return models.BookingSegment{
		Date:         parts[0],
		Origin:       route[0],
		Destination:  route[1],
		Carrier:      parts[2],
		FlightNumber: parts[3],
	}, nil
}
