package domain

import "time"

// ContentStatus is the moderation state of user-submitted content.
type ContentStatus string

const (
	ContentStatusPending  ContentStatus = "pending"
	ContentStatusApproved ContentStatus = "approved"
	ContentStatusRejected ContentStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusPending, ContentStatusApproved, ContentStatusRejected:
		return true
	}
	return false
}

// GardenLocation is a community-submitted garden on the map.
type GardenLocation struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Address     *string       `json:"address"`
	City        *string       `json:"city"`
	Country     *string       `json:"country"`
	SpeciesIDs  []string      `json:"species_ids"`
	IsFeatured  bool          `json:"is_featured"`
	IsPublic    bool          `json:"is_public"`
	Status      ContentStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	User        *UserSummary  `json:"user,omitempty"`
	Photos      []Photo       `json:"photos,omitempty"`
	PhotoCount  *int          `json:"photo_count,omitempty"`
}

// NearbyGarden is a garden annotated with its distance from a query point.
type NearbyGarden struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	DistanceKM  float64 `json:"distance_km"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PhotoURL    *string `json:"photo_url"`
	VoteCount   int     `json:"vote_count"`
}
