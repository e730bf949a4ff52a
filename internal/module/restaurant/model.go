package restaurant

// Location is a latitude/longitude pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Candidate is a restaurant returned by the places search, eligible for
// random selection. Name is the identity used by the rest of the flow; the
// result list is not deduplicated, so the same name may appear more than
// once and carries proportionally more selection weight.
type Candidate struct {
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating,omitempty"`
	RatingsTotal *int     `json:"user_ratings_total,omitempty"`
	PlaceID      string   `json:"place_id,omitempty"`
}

// Details is the LLM-generated detail record for a picked restaurant. It is
// a best-effort plausibility contract, produced per request and never cached.
type Details struct {
	Address        string `json:"address"`
	CuisineType    string `json:"cuisineType"`
	CustomerRating string `json:"customerRating"`
	RecentReview   string `json:"recentReview"`
}
