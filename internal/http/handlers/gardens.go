package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"niwaki/internal/domain"
	"niwaki/internal/infra"
	"niwaki/internal/infra/geoip"
	"niwaki/internal/middleware"
	"niwaki/internal/sqlinline"
)

const (
	defaultGardenLimit = 50
	maxGardenLimit     = 100
	maxGardenName      = 120
	gardenPhotoLimit   = 50

	defaultNearbyRadiusKM = 50
	maxNearbyRadiusKM     = 500
	defaultNearbyLimit    = 20
	maxNearbyLimit        = 100
)

type createGardenRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	SpeciesIDs  []string `json:"species_ids"`
}

func (a *App) GardensList(w http.ResponseWriter, r *http.Request) {
	featured, _ := strconv.ParseBool(r.URL.Query().Get("featured"))
	limit := queryInt(r, "limit", defaultGardenLimit, maxGardenLimit)
	rows, err := a.SQL.Query(r.Context(), sqlinline.QListGardens, featured, limit)
	if err != nil {
		a.internal(w, r, err, "failed to load gardens")
		return
	}
	defer rows.Close()
	items := make([]domain.GardenLocation, 0)
	for rows.Next() {
		var (
			g           domain.GardenLocation
			displayName *string
			avatarURL   *string
			photoCount  int
		)
		if err := rows.Scan(
			&g.ID,
			&g.UserID,
			&g.Name,
			&g.Description,
			&g.Latitude,
			&g.Longitude,
			&g.City,
			&g.Country,
			&g.IsFeatured,
			&g.CreatedAt,
			&displayName,
			&avatarURL,
			&photoCount,
		); err != nil {
			a.Logger.Warn().Err(err).Msg("skipping garden row")
			continue
		}
		g.Status = domain.ContentStatusApproved
		g.IsPublic = true
		g.User = &domain.UserSummary{ID: g.UserID, DisplayName: displayName, AvatarURL: avatarURL}
		g.PhotoCount = &photoCount
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		a.internal(w, r, err, "failed to load gardens")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"gardens": items})
}

func (a *App) GardensGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "garden not found")
		return
	}
	var (
		g           domain.GardenLocation
		displayName *string
		avatarURL   *string
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectGarden, id).Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.Description,
		&g.Latitude,
		&g.Longitude,
		&g.Address,
		&g.City,
		&g.Country,
		&g.SpeciesIDs,
		&g.IsFeatured,
		&g.IsPublic,
		&g.Status,
		&g.CreatedAt,
		&g.UpdatedAt,
		&displayName,
		&avatarURL,
	)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "not_found", "garden not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to load garden")
		return
	}
	g.User = &domain.UserSummary{ID: g.UserID, DisplayName: displayName, AvatarURL: avatarURL}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListGardenPhotos, id, gardenPhotoLimit)
	if err != nil {
		a.internal(w, r, err, "failed to load garden photos")
		return
	}
	defer rows.Close()
	g.Photos = make([]domain.Photo, 0)
	for rows.Next() {
		p := domain.Photo{GardenLocationID: &g.ID}
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.StoragePath,
			&p.ThumbnailPath,
			&p.Title,
			&p.Description,
			&p.IsPrimary,
			&p.VoteCount,
			&p.WilsonScore,
			&p.CreatedAt,
		); err != nil {
			a.Logger.Warn().Err(err).Msg("skipping photo row")
			continue
		}
		g.Photos = append(g.Photos, p)
	}
	if err := rows.Err(); err != nil {
		a.internal(w, r, err, "failed to load garden photos")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"garden": g})
}

// GardensCreate submits a garden for moderation.
func (a *App) GardensCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	var req createGardenRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	if err := req.normalize(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Country == "" {
		if loc, ok := a.locate(r); ok {
			req.Country = loc.Country
		}
	}
	var (
		id                   string
		createdAt, updatedAt time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QInsertGarden,
		userID,
		req.Name,
		req.Description,
		*req.Latitude,
		*req.Longitude,
		req.Address,
		req.City,
		req.Country,
		req.SpeciesIDs,
	).Scan(&id, &createdAt, &updatedAt)
	if isForeignKeyViolation(err) {
		a.error(w, http.StatusConflict, "profile_missing", "user profile has not been synchronised yet")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to create garden")
		return
	}
	a.Logger.Info().Str("garden_id", id).Str("user_id", userID).Msg("garden submitted for moderation")
	a.json(w, http.StatusCreated, map[string]any{
		"garden": map[string]any{
			"id":         id,
			"name":       req.Name,
			"latitude":   *req.Latitude,
			"longitude":  *req.Longitude,
			"status":     domain.ContentStatusPending,
			"created_at": createdAt,
			"updated_at": updatedAt,
		},
		"message": "Garden submitted for review",
	})
}

// GardensNearby searches approved gardens around a point. Without explicit
// coordinates the caller's IP location is used.
func (a *App) GardensNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	source := "query"
	if latErr != nil || lngErr != nil {
		loc, ok := a.locate(r)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "lat and lng are required")
			return
		}
		lat, lng, source = loc.Latitude, loc.Longitude, "geoip"
	}
	if !validCoordinates(lat, lng) {
		a.error(w, http.StatusBadRequest, "bad_request", "coordinates out of range")
		return
	}
	radius := defaultNearbyRadiusKM * 1.0
	if raw := q.Get("radius"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			radius = math.Min(v, maxNearbyRadiusKM)
		}
	}
	limit := queryInt(r, "limit", defaultNearbyLimit, maxNearbyLimit)

	rows, err := a.SQL.Query(r.Context(), sqlinline.QNearbyGardens, lat, lng, radius, limit)
	if err != nil {
		a.internal(w, r, err, "failed to search gardens")
		return
	}
	defer rows.Close()
	items := make([]domain.NearbyGarden, 0)
	for rows.Next() {
		var g domain.NearbyGarden
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.DistanceKM, &g.Latitude, &g.Longitude, &g.PhotoURL, &g.VoteCount); err != nil {
			a.Logger.Warn().Err(err).Msg("skipping nearby row")
			continue
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		a.internal(w, r, err, "failed to search gardens")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"gardens": items,
		"center":  map[string]any{"latitude": lat, "longitude": lng, "source": source},
		"radius":  radius,
	})
}

func (a *App) locate(r *http.Request) (geoip.Location, bool) {
	if a.Geo == nil {
		return geoip.Location{}, false
	}
	loc, err := a.Geo.Locate(middleware.ClientIP(r))
	if err != nil {
		return geoip.Location{}, false
	}
	return loc, true
}

func (req *createGardenRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if len([]rune(req.Name)) > maxGardenName {
		return errors.New("name is too long")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return errors.New("latitude and longitude are required")
	}
	if !validCoordinates(*req.Latitude, *req.Longitude) {
		return errors.New("coordinates out of range")
	}
	req.Description = strings.TrimSpace(req.Description)
	req.Address = strings.TrimSpace(req.Address)
	req.City = cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(req.City))
	req.Country = strings.TrimSpace(req.Country)
	if req.SpeciesIDs == nil {
		req.SpeciesIDs = []string{}
	}
	return nil
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
