package domain

import "time"

// Photo is an uploaded garden photo that can be voted on.
type Photo struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	GardenLocationID *string      `json:"garden_location_id"`
	StoragePath      string       `json:"storage_path"`
	ThumbnailPath    *string      `json:"thumbnail_path"`
	Title            *string      `json:"title"`
	Description      *string      `json:"description"`
	IsPrimary        bool         `json:"is_primary"`
	VoteCount        int          `json:"vote_count"`
	WilsonScore      float64      `json:"wilson_score"`
	CreatedAt        time.Time    `json:"created_at"`
	User             *UserSummary `json:"user,omitempty"`
	GardenName       *string      `json:"garden_name,omitempty"`
}

// VoteValue is an up (+1) or down (-1) vote.
type VoteValue int

const (
	VoteUp   VoteValue = 1
	VoteDown VoteValue = -1
)

// Valid reports whether v is +1 or -1.
func (v VoteValue) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// PhotoTally aggregates the votes of a single photo.
type PhotoTally struct {
	PhotoID string
	Up      int
	Down    int
}
