package commands

import (
	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightscrape/internal/models"
)

var searchOpts struct {
	returnDate  string
	tripType    string
	cabin       string
	adults      int
	children    int
	infantsSeat int
	infantsLap  int
	currency    string
	sortBy      string
	sortOrder   string
	limit       string
	priceMin    float64
	priceMax    float64
	maxStops    int
	maxDuration int
	airlines    []string
	nonstop     bool
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchOpts.returnDate, "return", "", "Return date (YYYY-MM-DD); implies a round trip.")
	f.StringVar(&searchOpts.tripType, "trip", "", "Trip type: one-way or round-trip.")
	f.StringVar(&searchOpts.cabin, "cabin", "", "Cabin class: economy, premium-economy, business or first.")
	f.IntVar(&searchOpts.adults, "adults", 1, "Number of adults.")
	f.IntVar(&searchOpts.children, "children", 0, "Number of children.")
	f.IntVar(&searchOpts.infantsSeat, "infants-in-seat", 0, "Number of infants with their own seat.")
	f.IntVar(&searchOpts.infantsLap, "infants-on-lap", 0, "Number of infants on lap.")
	f.StringVar(&searchOpts.currency, "currency", "", "Currency code for prices.")
	f.StringVar(&searchOpts.sortBy, "sort", "", "Sort by none, price, duration, airline or best_value.")
	f.StringVar(&searchOpts.sortOrder, "order", "", "Sort order: asc or desc.")
	f.StringVar(&searchOpts.limit, "limit", "all", "Maximum number of flights, or \"all\".")
	f.Float64Var(&searchOpts.priceMin, "price-min", 0, "Minimum price.")
	f.Float64Var(&searchOpts.priceMax, "price-max", 0, "Maximum price.")
	f.IntVar(&searchOpts.maxStops, "max-stops", -1, "Maximum number of stops.")
	f.IntVar(&searchOpts.maxDuration, "max-duration", 0, "Maximum duration in minutes.")
	f.StringSliceVar(&searchOpts.airlines, "airline", nil, "Only show these airlines (repeatable).")
	f.BoolVar(&searchOpts.nonstop, "nonstop", false, "Only show nonstop flights.")

	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <origin> <destination> <departure-date>",
	Short: "Searches flights and prints the presented results.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildSearchRequest(cmd, args)
		if err != nil {
			return models.NewInvalidInput(err)
		}

		s, cfg, err := loadScraper()
		if err != nil {
			return err
		}
		defer s.Close()

		if req.Currency == "" {
			req.Currency = cfg.Currency
		}
		result, err := s.Scrape(cmd.Context(), req)
		if err != nil {
			return err
		}

		if *jsonOutput {
			return writeJSON(cmd.OutOrStdout(), result.SearchResult)
		}
		renderFlights(cmd.OutOrStdout(), result)
		return nil
	},
}

func buildSearchRequest(cmd *cobra.Command, args []string) (models.SearchRequest, error) {
	req := models.SearchRequest{
		Origin:        args[0],
		Destination:   args[1],
		DepartureDate: args[2],
		TripType:      models.TripType(searchOpts.tripType),
		CabinClass:    models.CabinClass(searchOpts.cabin),
		Passengers: models.Passengers{
			Adults:        searchOpts.adults,
			Children:      searchOpts.children,
			InfantsInSeat: searchOpts.infantsSeat,
			InfantsOnLap:  searchOpts.infantsLap,
		},
		Currency:  searchOpts.currency,
		SortBy:    searchOpts.sortBy,
		SortOrder: searchOpts.sortOrder,
	}
	if searchOpts.returnDate != "" {
		ret := searchOpts.returnDate
		req.ReturnDate = &ret
	}

	limit, err := models.ParseLimit(searchOpts.limit)
	if err != nil {
		return req, err
	}
	req.Limit = limit

	flags := cmd.Flags()
	filters := models.SearchFilters{
		Airlines:    searchOpts.airlines,
		NonstopOnly: searchOpts.nonstop,
	}
	set := searchOpts.nonstop || len(searchOpts.airlines) > 0
	if flags.Changed("price-min") {
		v := searchOpts.priceMin
		filters.PriceMin, set = &v, true
	}
	if flags.Changed("price-max") {
		v := searchOpts.priceMax
		filters.PriceMax, set = &v, true
	}
	if flags.Changed("max-stops") {
		v := searchOpts.maxStops
		filters.MaxStops, set = &v, true
	}
	if flags.Changed("max-duration") {
		v := searchOpts.maxDuration
		filters.MaxDuration, set = &v, true
	}
	if set {
		req.Filters = &filters
	}
	return req, nil
}
