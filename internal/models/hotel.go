package models

// HotelCandidate is a normalized entry of the upstream hotel list.
type HotelCandidate struct {
	ID           string  `json:"property_id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	PricePerDay  string  `json:"price_per_day"`
	PricePerStay string  `json:"price_per_stay"`
	Distance     float64 `json:"distance"`
	DistanceText string  `json:"distance_text"`
	// Unpriced marks an entry the upstream listed without a lead price.
	Unpriced     bool    `json:"unpriced,omitempty"`
}

// HotelDetail is a candidate enriched with the detail endpoint data.
type HotelDetail struct {
	HotelCandidate
	Address string   `json:"address"`
	Rating  string   `json:"rating"`
	SiteURL string   `json:"site_url"`
	Photos  []string `json:"photos,omitempty"`
}

// DisplayUnit is one chat message: a caption, optionally grouped with photos.
type DisplayUnit struct {
	Caption string   `json:"caption"`
	Photos  []string `json:"photos,omitempty"`
}
