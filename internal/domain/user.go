package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// CanModerate reports whether the role may resolve moderation items.
func (r UserRole) CanModerate() bool {
	return r == UserRoleModerator || r == UserRoleAdmin
}

// User mirrors an identity-provider account synchronised through webhooks.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	Username    *string   `json:"username"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Bio         *string   `json:"bio"`
	Role        UserRole  `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSummary is the public slice of a user embedded in other resources.
type UserSummary struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}
