package models

// Stats summarises the community tables.
type Stats struct {
	Users        int `json:"users"`
	Posts        int `json:"posts"`
	Comments     int `json:"comments"`
	Listings     int `json:"listings"`
	OpenListings int `json:"open_listings"`
	Likes        int `json:"likes"`
}
