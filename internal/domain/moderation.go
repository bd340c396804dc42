package domain

import "time"

// ContentType identifies what a moderation item refers to.
type ContentType string

const (
	ContentTypeGarden  ContentType = "garden"
	ContentTypePhoto   ContentType = "photo"
	ContentTypeComment ContentType = "comment"
)

// ModerationItem is an entry in the moderation queue.
type ModerationItem struct {
	ID             string        `json:"id"`
	ContentType    ContentType   `json:"content_type"`
	ContentID      string        `json:"content_id"`
	ReportedBy     *string       `json:"reported_by"`
	Reason         *string       `json:"reason"`
	Status         ContentStatus `json:"status"`
	ModeratorID    *string       `json:"moderator_id"`
	ModeratorNotes *string       `json:"moderator_notes"`
	CreatedAt      time.Time     `json:"created_at"`
	ResolvedAt     *time.Time    `json:"resolved_at"`
}
