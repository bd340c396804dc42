package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"niwaki/internal/content"
	"niwaki/internal/domain"
	"niwaki/internal/imagegen"
	"niwaki/internal/infra"
	"niwaki/internal/infra/geoip"
	"niwaki/internal/middleware"
	"niwaki/internal/storage"
	"niwaki/internal/visualize"
)

// VisualizeService is the slice of visualize.Service the handlers use.
type VisualizeService interface {
	Submit(ctx context.Context, prefs visualize.Preferences, image imagegen.SourceImage) (visualize.Job, error)
	Status(ctx context.Context, id string) (visualize.Job, error)
	Cancel(ctx context.Context, id string) error
	Image(ctx context.Context, jobID, resultID string) (imagegen.Image, error)
}

// WebhookVerifier checks the signature headers of an inbound webhook.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// ErrorReporter receives unexpected server-side failures.
type ErrorReporter interface {
	Capture(err error, tags map[string]string)
}

type App struct {
	SQL             infra.SQLExecutor
	Logger          zerolog.Logger
	Config          *infra.Config
	Visualizer      VisualizeService
	Generator       imagegen.Generator
	Analyser        imagegen.Analyser
	Storage         storage.Store
	Content         *content.Library
	Geo             geoip.Locator
	Webhook         WebhookVerifier
	LeaderboardRepo domain.LeaderboardRepository
	Reporter        ErrorReporter
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": msg, "code": errCode})
}

// internal logs err, reports it and writes a generic 500.
func (a *App) internal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	a.Logger.Error().Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	if a.Reporter != nil {
		a.Reporter.Capture(err, map[string]string{"path": r.URL.Path})
	}
	a.error(w, http.StatusInternalServerError, "internal", msg)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) maxUploadBytes() int64 {
	if a.Config != nil && a.Config.MaxUploadBytes > 0 {
		return a.Config.MaxUploadBytes
	}
	return 10 << 20
}

// decode reads a JSON body capped at the upload limit.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes())
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeError writes the response for a failed decode.
func (a *App) decodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
		return
	}
	a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
}

func queryInt(r *http.Request, key string, fallback, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
