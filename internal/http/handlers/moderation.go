package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"niwaki/internal/domain"
	"niwaki/internal/infra"
	"niwaki/internal/sqlinline"
)

const moderationListLimit = 50

type moderationActionRequest struct {
	ItemID string               `json:"itemId"`
	Action domain.ContentStatus `json:"action"`
	Notes  string               `json:"notes"`
}

func (a *App) ModerationList(w http.ResponseWriter, r *http.Request) {
	if !a.requireModerator(w, r) {
		return
	}
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if status == "" {
		status = string(domain.ContentStatusPending)
	}
	if status != "all" && !domain.ContentStatus(status).Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown status")
		return
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListModeration, status, moderationListLimit)
	if err != nil {
		a.internal(w, r, err, "failed to load moderation queue")
		return
	}
	defer rows.Close()
	items := make([]domain.ModerationItem, 0)
	for rows.Next() {
		var it domain.ModerationItem
		if err := rows.Scan(
			&it.ID,
			&it.ContentType,
			&it.ContentID,
			&it.ReportedBy,
			&it.Reason,
			&it.Status,
			&it.ModeratorID,
			&it.ModeratorNotes,
			&it.CreatedAt,
			&it.ResolvedAt,
		); err != nil {
			a.Logger.Warn().Err(err).Msg("skipping moderation row")
			continue
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		a.internal(w, r, err, "failed to load moderation queue")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ModerationResolve approves or rejects an item and applies the decision to
// the content it refers to.
func (a *App) ModerationResolve(w http.ResponseWriter, r *http.Request) {
	if !a.requireModerator(w, r) {
		return
	}
	var req moderationActionRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	if _, err := uuid.Parse(req.ItemID); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "itemId is required")
		return
	}
	if req.Action != domain.ContentStatusApproved && req.Action != domain.ContentStatusRejected {
		a.error(w, http.StatusBadRequest, "bad_request", "action must be approved or rejected")
		return
	}
	moderatorID := a.currentUserID(r)
	var (
		contentType domain.ContentType
		contentID   string
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QResolveModeration,
		req.ItemID, string(req.Action), moderatorID, strings.TrimSpace(req.Notes),
	).Scan(&contentType, &contentID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "moderation item not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to resolve moderation item")
		return
	}

	switch contentType {
	case domain.ContentTypeGarden:
		_, err = a.SQL.Exec(r.Context(), sqlinline.QSetGardenStatus, contentID, string(req.Action))
	case domain.ContentTypeComment:
		_, err = a.SQL.Exec(r.Context(), sqlinline.QSetCommentVisibility, contentID, req.Action == domain.ContentStatusApproved)
	default:
		a.Logger.Debug().Str("content_type", string(contentType)).Msg("moderation decision has no content side effect")
	}
	if err != nil {
		a.internal(w, r, err, "failed to apply moderation decision")
		return
	}
	a.Logger.Info().
		Str("item_id", req.ItemID).
		Str("content_type", string(contentType)).
		Str("action", string(req.Action)).
		Str("moderator_id", moderatorID).
		Msg("moderation item resolved")
	a.json(w, http.StatusOK, map[string]any{"success": true})
}

func (a *App) requireModerator(w http.ResponseWriter, r *http.Request) bool {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return false
	}
	var role domain.UserRole
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserRole, userID).Scan(&role)
	if infra.IsNoRows(err) || (err == nil && !role.CanModerate()) {
		a.error(w, http.StatusForbidden, "forbidden", "moderator access required")
		return false
	}
	if err != nil {
		a.internal(w, r, err, "failed to check role")
		return false
	}
	return true
}
