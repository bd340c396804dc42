package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"niwaki/internal/http/handlers"
	"niwaki/internal/middleware"
)

// NewRouter mounts every endpoint under /v1. verifier may be nil, in which
// case all requests are anonymous.
func NewRouter(app *handlers.App, verifier middleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()

	origins := []string{"http://localhost:3000"}
	rateLimit := 0
	if app.Config != nil {
		origins = app.Config.CORSAllowedOrigins
		rateLimit = app.Config.RateLimitPerMin
	}
	limited := middleware.RateLimit(rateLimit, time.Minute)

	r.Use(
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(origins),
		middleware.Auth(verifier, app.Logger),
	)

	r.Route("/v1", func(r chi.Router) {
		// Health
		r.Get("/healthz", app.Health)

		r.Route("/visualize", func(r chi.Router) {
			r.With(limited).Post("/", app.VisualizeCreate)
			r.Get("/", app.VisualizeStatus)
			r.With(limited).Post("/analyse", app.VisualizeAnalyse)
			r.Get("/{jobId}", app.VisualizeStatus)
			r.Delete("/{jobId}", app.VisualizeCancel)
			r.Get("/{jobId}/archive", app.VisualizeArchive)
			r.Get("/{jobId}/images/{resultId}", app.VisualizeImage)
		})
		r.With(limited).Post("/generate-image", app.GenerateImage)
		r.With(limited).Post("/upload", app.Upload)

		r.Route("/gardens", func(r chi.Router) {
			r.Get("/", app.GardensList)
			r.Get("/nearby", app.GardensNearby)
			r.Get("/{id}", app.GardensGet)
			r.With(middleware.RequireUser).Post("/", app.GardensCreate)
		})

		r.Route("/votes", func(r chi.Router) {
			r.Get("/", app.VotesGet)
			r.With(middleware.RequireUser).Post("/", app.VotesCast)
			r.With(middleware.RequireUser).Delete("/", app.VotesDelete)
		})
		r.Get("/leaderboard", app.Leaderboard)

		r.Route("/moderation", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", app.ModerationList)
			r.Post("/", app.ModerationResolve)
		})

		r.With(middleware.RequireUser).Get("/me", app.Me)
		r.Get("/users/{id}", app.UserProfile)
		r.Post("/webhooks/clerk", app.ClerkWebhook)

		if app.Content != nil {
			r.Get("/species", app.SpeciesList)
			r.Get("/species/{slug}", app.SpeciesGet)
			r.Get("/techniques", app.TechniquesList)
			r.Get("/techniques/{slug}", app.TechniquesGet)
			r.Get("/places", app.PlacesList)
			r.Get("/places/{slug}", app.PlacesGet)
		}
	})

	return r
}
