package handlers

import (
	"errors"
	"net/http"
	"strings"

	"niwaki/internal/imagegen"
	"niwaki/internal/storage"
)

type uploadRequest struct {
	Image string `json:"image"`
}

type generateImageRequest struct {
	Prompt   string `json:"prompt"`
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
}

// Upload accepts a base64 photo and returns an id for later visualisation.
// Signed-in uploads are also persisted; a storage failure is logged and the
// id is still returned.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image is required")
		return
	}
	src, err := imagegen.DecodeImagePayload(req.Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image must be a base64 image")
		return
	}
	imageID := storage.NewImageID()
	userID := a.currentUserID(r)
	if userID != "" && a.Storage != nil {
		key := storage.UploadKey(userID, imageID, storage.ExtensionFor(src.MIMEType))
		if _, err := a.Storage.Write(r.Context(), key, src.Data, src.MIMEType); err != nil {
			a.Logger.Error().Err(err).Str("user_id", userID).Str("key", key).Msg("upload persist failed")
		}
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "imageId": imageID})
}

// GenerateImage renders a prompt directly, optionally conditioned on an image.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if a.Generator == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "image generation is not configured")
		return
	}
	var req generateImageRequest
	if err := a.decode(w, r, &req); err != nil {
		a.decodeError(w, err)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	genReq := imagegen.Request{Prompt: prompt}
	if req.Image != "" {
		payload := req.Image
		if req.MIMEType != "" && !strings.HasPrefix(payload, "data:") {
			payload = "data:" + req.MIMEType + ";base64," + payload
		}
		src, err := imagegen.DecodeImagePayload(payload)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "image must be a base64 image")
			return
		}
		genReq.Source = &src
	}
	images, err := a.Generator.Generate(r.Context(), genReq)
	if errors.Is(err, imagegen.ErrNoImage) {
		a.error(w, http.StatusBadGateway, "no_image", "model returned no image")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("direct image generation failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "failed to generate image")
		return
	}
	uris := make([]string, len(images))
	for i, img := range images {
		uris[i] = img.DataURI()
	}
	a.json(w, http.StatusOK, map[string]any{"images": uris})
}
