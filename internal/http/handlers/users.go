package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"niwaki/internal/domain"
	"niwaki/internal/infra"
	"niwaki/internal/sqlinline"
)

const profileGardenLimit = 50

type clerkEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type clerkUser struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	ImageURL  *string `json:"image_url"`
}

func (u clerkUser) email() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
}

func (u clerkUser) displayName() string {
	var parts []string
	for _, p := range []*string{u.FirstName, u.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return deref(u.Username)
}

// ClerkWebhook keeps the users table in sync with the identity provider.
func (a *App) ClerkWebhook(w http.ResponseWriter, r *http.Request) {
	if a.Webhook == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "webhook secret is not configured")
		return
	}
	for _, h := range []string{"svix-id", "svix-timestamp", "svix-signature"} {
		if r.Header.Get(h) == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "missing svix headers")
			return
		}
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable payload")
		return
	}
	if err := a.Webhook.Verify(payload, r.Header); err != nil {
		a.Logger.Warn().Err(err).Msg("webhook verification failed")
		a.error(w, http.StatusBadRequest, "bad_request", "invalid webhook signature")
		return
	}
	var evt clerkEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	var user clerkUser
	if err := json.Unmarshal(evt.Data, &user); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	switch evt.Type {
	case "user.created", "user.updated":
		email := user.email()
		if email == "" {
			a.Logger.Warn().Str("user_id", user.ID).Msg("webhook user has no email")
			a.error(w, http.StatusBadRequest, "bad_request", "no email found")
			return
		}
		var synced domain.User
		err := a.SQL.QueryRow(r.Context(), sqlinline.QUpsertUser,
			user.ID, email, deref(user.Username), user.displayName(), deref(user.ImageURL),
		).Scan(
			&synced.ID,
			&synced.Email,
			&synced.Username,
			&synced.DisplayName,
			&synced.AvatarURL,
			&synced.Bio,
			&synced.Role,
			&synced.IsActive,
			&synced.CreatedAt,
			&synced.UpdatedAt,
		)
		if err != nil {
			a.internal(w, r, err, "failed to sync user")
			return
		}
		a.Logger.Info().Str("user_id", synced.ID).Str("event", evt.Type).Msg("user synchronised")
	case "user.deleted":
		if user.ID == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "no user id")
			return
		}
		if _, err := a.SQL.Exec(r.Context(), sqlinline.QDeactivateUser, user.ID); err != nil {
			a.internal(w, r, err, "failed to deactivate user")
			return
		}
		a.Logger.Info().Str("user_id", user.ID).Msg("user deactivated")
	default:
		a.Logger.Debug().Str("event", evt.Type).Msg("ignoring webhook event")
	}
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	user, err := a.loadUser(r, userID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "profile not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to load profile")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"user": user})
}

// UserProfile is the public view of a gardener and their approved gardens.
func (a *App) UserProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	user, err := a.loadUser(r, userID)
	if infra.IsNoRows(err) || (err == nil && !user.IsActive) {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to load user")
		return
	}
	user.Email = ""

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListUserGardens, userID, profileGardenLimit)
	if err != nil {
		a.internal(w, r, err, "failed to load gardens")
		return
	}
	defer rows.Close()
	gardens := make([]domain.GardenLocation, 0)
	for rows.Next() {
		g := domain.GardenLocation{UserID: userID, Status: domain.ContentStatusApproved, IsPublic: true}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Latitude, &g.Longitude, &g.City, &g.Country, &g.IsFeatured, &g.CreatedAt); err != nil {
			a.Logger.Warn().Err(err).Msg("skipping profile garden row")
			continue
		}
		gardens = append(gardens, g)
	}
	if err := rows.Err(); err != nil {
		a.internal(w, r, err, "failed to load gardens")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"user": user, "gardens": gardens})
}

func (a *App) loadUser(r *http.Request, userID string) (domain.User, error) {
	var u domain.User
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByID, userID).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Bio,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
