package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"niwaki/internal/imagegen"
	"niwaki/internal/visualize"
	"niwaki/pkg/zip"
)

type visualizeRequest struct {
	ImageID     string                `json:"imageId"`
	ImageData   string                `json:"imageData"`
	Preferences visualize.Preferences `json:"preferences"`
}

type visualizeResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
}

type analyseRequest struct {
	ImageData string `json:"imageData"`
}

func (a *App) VisualizeCreate(w http.ResponseWriter, r *http.Request) {
	if a.Visualizer == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "visualiser is not configured")
		return
	}
	var req visualizeRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	if strings.TrimSpace(req.ImageData) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "imageData is required")
		return
	}
	src, err := imagegen.DecodeImagePayload(req.ImageData)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "imageData must be a base64 image")
		return
	}
	job, err := a.Visualizer.Submit(r.Context(), req.Preferences, src)
	switch {
	case err == nil:
	case errors.Is(err, visualize.ErrInvalidPreferences):
		a.error(w, http.StatusBadRequest, "bad_request", strings.TrimPrefix(err.Error(), "visualize: "))
		return
	case errors.Is(err, visualize.ErrQueueFull), errors.Is(err, visualize.ErrStopped):
		w.Header().Set("Retry-After", "30")
		a.error(w, http.StatusServiceUnavailable, "busy", "visualiser is busy, try again shortly")
		return
	default:
		a.internal(w, r, err, "failed to start visualisation")
		return
	}
	a.Logger.Info().
		Str("job_id", job.ID).
		Str("image_id", req.ImageID).
		Str("user_id", a.currentUserID(r)).
		Msg("visualisation accepted")
	a.json(w, http.StatusAccepted, visualizeResponse{Success: true, JobID: job.ID})
}

// VisualizeStatus answers polls on /visualize/{jobId} and /visualize?jobId=.
func (a *App) VisualizeStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.lookupJob(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	a.json(w, http.StatusOK, job)
}

func (a *App) VisualizeCancel(w http.ResponseWriter, r *http.Request) {
	if a.Visualizer == nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	jobID := jobIDFromRequest(r)
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "jobId is required")
		return
	}
	switch err := a.Visualizer.Cancel(r.Context(), jobID); {
	case err == nil:
		a.json(w, http.StatusAccepted, map[string]any{"success": true, "jobId": jobID})
	case errors.Is(err, visualize.ErrJobNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, visualize.ErrJobFinished):
		a.error(w, http.StatusConflict, "conflict", "job already finished")
	default:
		a.internal(w, r, err, "failed to cancel visualisation")
	}
}

// VisualizeArchive streams the rendered styles of a completed job as a zip.
func (a *App) VisualizeArchive(w http.ResponseWriter, r *http.Request) {
	job, ok := a.lookupJob(w, r)
	if !ok {
		return
	}
	if job.Status != visualize.StatusCompleted {
		a.error(w, http.StatusConflict, "conflict", "job has not completed")
		return
	}
	assets := make([]zip.Asset, 0, len(job.Results))
	for _, res := range job.Results {
		img, err := imagegen.DecodeImagePayload(res.ImageURL)
		if err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Str("style", string(res.Style)).Msg("skipping undecodable result")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: string(res.Style) + zip.ExtensionFor(img.MIMEType),
			MIME:     img.MIMEType,
			Data:     img.Data,
		})
	}
	archive, err := zip.ArchiveAssets(assets, job.UpdatedAt)
	if err != nil {
		a.internal(w, r, err, "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=niwaki-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// VisualizeImage serves the bytes behind a result's thumbnailUrl.
func (a *App) VisualizeImage(w http.ResponseWriter, r *http.Request) {
	if a.Visualizer == nil {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	img, err := a.Visualizer.Image(r.Context(), chi.URLParam(r, "jobId"), chi.URLParam(r, "resultId"))
	if errors.Is(err, visualize.ErrImageNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	if err != nil {
		a.internal(w, r, err, "failed to load image")
		return
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (a *App) VisualizeAnalyse(w http.ResponseWriter, r *http.Request) {
	if a.Analyser == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "image analysis is not configured")
		return
	}
	var req analyseRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	src, err := imagegen.DecodeImagePayload(req.ImageData)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "imageData must be a base64 image")
		return
	}
	analysis, err := a.Analyser.Analyse(r.Context(), src)
	if err != nil {
		a.Logger.Error().Err(err).Msg("garden analysis failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "failed to analyse image")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "analysis": analysis})
}

func (a *App) lookupJob(w http.ResponseWriter, r *http.Request) (visualize.Job, bool) {
	jobID := jobIDFromRequest(r)
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "jobId is required")
		return visualize.Job{}, false
	}
	if a.Visualizer == nil {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return visualize.Job{}, false
	}
	job, err := a.Visualizer.Status(r.Context(), jobID)
	if errors.Is(err, visualize.ErrJobNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return visualize.Job{}, false
	}
	if err != nil {
		a.internal(w, r, err, "failed to load visualisation")
		return visualize.Job{}, false
	}
	return job, true
}

func jobIDFromRequest(r *http.Request) string {
	if id := chi.URLParam(r, "jobId"); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("jobId"))
}

