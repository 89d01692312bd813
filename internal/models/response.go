package models

type SearchMetadata struct {
	TotalResults int    `json:"total_results"`
	RequestID    string `json:"request_id,omitempty"`
	SearchTimeMs int64  `json:"search_time_ms"`
	CacheHit     bool   `json:"cache_hit"`
}

type SearchCriteria struct {
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	DepartureDate string         `json:"departure_date"`
	ReturnDate    *string        `json:"return_date,omitempty"`
	TripType      TripType       `json:"trip_type"`
	Passengers    Passengers     `json:"passengers"`
	CabinClass    CabinClass     `json:"cabin_class"`
	Currency      string         `json:"currency,omitempty"`
	Filters       *SearchFilters `json:"filters,omitempty"`
	SortBy        string         `json:"sort_by"`
	SortOrder     string         `json:"sort_order"`
	Limit         Limit          `json:"limit"`
}

type SearchResponse struct {
	SearchCriteria SearchCriteria `json:"search_criteria"`
	Metadata       SearchMetadata `json:"metadata"`
	CurrentPrice   PriceLevel     `json:"current_price,omitempty"`
	SearchURL      string         `json:"search_url,omitempty"`
	Flights        []FlightOption `json:"flights"`
}

type BookingSegment struct {
	Date         string `json:"date"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Carrier      string `json:"carrier"`
	FlightNumber string `json:"flight_number"`
}

type BookingLinkRequest struct {
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	TripType    TripType         `json:"trip_type"`
	CabinClass  CabinClass       `json:"cabin_class"`
	Passengers  Passengers       `json:"passengers"`
	Currency    string           `json:"currency,omitempty"`
	Segments    []BookingSegment `json:"segments"`
}

type BookingLinkResponse struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

type RateLimitStats struct {
	Count    int   `json:"count"`
	WindowMs int64 `json:"window_ms"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Hint       string `json:"hint,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
	Code       int    `json:"code"`
}
