package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *App) SpeciesList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"species": a.Content.Species()})
}

func (a *App) SpeciesGet(w http.ResponseWriter, r *http.Request) {
	s, ok := a.Content.SpeciesBySlug(chi.URLParam(r, "slug"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "species not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"species": s})
}

func (a *App) TechniquesList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"techniques": a.Content.Techniques()})
}

func (a *App) TechniquesGet(w http.ResponseWriter, r *http.Request) {
	t, ok := a.Content.TechniqueBySlug(chi.URLParam(r, "slug"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "technique not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"technique": t})
}

func (a *App) PlacesList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"places": a.Content.Places()})
}

func (a *App) PlacesGet(w http.ResponseWriter, r *http.Request) {
	p, ok := a.Content.PlaceBySlug(chi.URLParam(r, "slug"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "place not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"place": p})
}
