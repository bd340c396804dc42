package handlers

import (
	"net/http"
)

// Health reports liveness plus which optional features this process was
// started with. It never touches the database so liveness checks stay cheap.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	features := map[string]bool{
		"database":   a.SQL != nil,
		"visualiser": a.Visualizer != nil,
		"generator":  a.Generator != nil,
		"analyser":   a.Analyser != nil,
		"storage":    a.Storage != nil,
		"content":    a.Content != nil,
		"geoip":      a.Geo != nil,
		"webhook":    a.Webhook != nil,
	}
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "features": features})
}
