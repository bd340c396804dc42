package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"niwaki/internal/domain"
	"niwaki/internal/infra"
	"niwaki/internal/sqlinline"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

type voteRequest struct {
	PhotoID string           `json:"photoId"`
	Value   domain.VoteValue `json:"value"`
}

func (a *App) VotesCast(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	var req voteRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	if _, err := uuid.Parse(req.PhotoID); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "photoId is required")
		return
	}
	if !req.Value.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "value must be 1 or -1")
		return
	}
	_, err := a.SQL.Exec(r.Context(), sqlinline.QUpsertVote, userID, req.PhotoID, int(req.Value))
	if isForeignKeyViolation(err) {
		a.error(w, http.StatusNotFound, "not_found", "photo not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to record vote")
		return
	}
	count, ok := a.refreshVoteCount(w, r, req.PhotoID)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "vote": int(req.Value), "voteCount": count})
}

func (a *App) VotesDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	photoID := strings.TrimSpace(r.URL.Query().Get("photoId"))
	if _, err := uuid.Parse(photoID); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "photoId is required")
		return
	}
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QDeleteVote, userID, photoID); err != nil {
		a.internal(w, r, err, "failed to remove vote")
		return
	}
	count, ok := a.refreshVoteCount(w, r, photoID)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "vote": nil, "voteCount": count})
}

// VotesGet returns the caller's vote on a photo; anonymous callers get null.
func (a *App) VotesGet(w http.ResponseWriter, r *http.Request) {
	photoID := strings.TrimSpace(r.URL.Query().Get("photoId"))
	if _, err := uuid.Parse(photoID); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "photoId is required")
		return
	}
	userID := a.currentUserID(r)
	if userID == "" {
		a.json(w, http.StatusOK, map[string]any{"vote": nil})
		return
	}
	var value int
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectVote, userID, photoID).Scan(&value)
	if infra.IsNoRows(err) {
		a.json(w, http.StatusOK, map[string]any{"vote": nil})
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to load vote")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"vote": value})
}

func (a *App) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if a.LeaderboardRepo == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "leaderboard unavailable")
		return
	}
	limit := queryInt(r, "limit", defaultLeaderboardLimit, maxLeaderboardLimit)
	photos, err := a.LeaderboardRepo.TopPhotos(r.Context(), limit)
	if err != nil {
		a.internal(w, r, err, "failed to load leaderboard")
		return
	}
	type entry struct {
		Rank int `json:"rank"`
		domain.Photo
	}
	entries := make([]entry, len(photos))
	for i, p := range photos {
		entries[i] = entry{Rank: i + 1, Photo: p}
	}
	a.json(w, http.StatusOK, map[string]any{"photos": entries})
}

func (a *App) refreshVoteCount(w http.ResponseWriter, r *http.Request, photoID string) (int, bool) {
	var count int
	err := a.SQL.QueryRow(r.Context(), sqlinline.QRefreshPhotoVoteCount, photoID).Scan(&count)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "photo not found")
		return 0, false
	}
	if err != nil {
		a.internal(w, r, err, "failed to refresh vote count")
		return 0, false
	}
	return count, true
}
