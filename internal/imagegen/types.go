package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// SourceImage is the photograph a generation or analysis call is conditioned on.
type SourceImage struct {
	Data     []byte
	MIMEType string
}

// Request describes a single call to the generative-image API.
type Request struct {
	Prompt string
	Source *SourceImage
}

// Image is one generated image.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the image as a data: URI.
func (i Image) DataURI() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Generator produces images from a prompt and optional source photograph.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Image, error)
}

// PlantAnalysis describes one plant found in a garden photograph.
type PlantAnalysis struct {
	ID                string `json:"id"`
	Species           string `json:"species"`
	Location          string `json:"location"`
	NiwakiSuitability int    `json:"niwakiSuitability"`
	RecommendedStyle  Style  `json:"recommendedStyle"`
}

// GardenAnalysis is the vision model's assessment of a garden photograph.
type GardenAnalysis struct {
	Plants            []PlantAnalysis `json:"plants"`
	OverallAssessment string          `json:"overallAssessment"`
}

// Analyser assesses a garden photograph for niwaki potential.
type Analyser interface {
	Analyse(ctx context.Context, src SourceImage) (*GardenAnalysis, error)
}

var (
	// ErrNoImage is returned when a model response contains no image part.
	ErrNoImage = errors.New("imagegen: no image generated")
	// ErrProviderFailure wraps transport and API errors from the model provider.
	ErrProviderFailure = errors.New("imagegen: provider failure")
)

// DecodeImagePayload accepts raw base64 or a data: URL and returns the bytes
// and MIME type. Payloads without a declared type default to JPEG.
func DecodeImagePayload(payload string) (SourceImage, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return SourceImage{}, errors.New("imagegen: empty image payload")
	}
	mime := "image/jpeg"
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return SourceImage{}, errors.New("imagegen: malformed data url")
		}
		header := payload[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return SourceImage{}, errors.New("imagegen: data url must be base64 encoded")
		}
		if declared := strings.TrimSuffix(header, ";base64"); declared != "" {
			mime = declared
		}
		payload = payload[comma+1:]
	}
	if !strings.HasPrefix(mime, "image/") {
		return SourceImage{}, fmt.Errorf("imagegen: unsupported media type %q", mime)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return SourceImage{}, fmt.Errorf("imagegen: decode base64: %w", err)
	}
	if len(data) == 0 {
		return SourceImage{}, errors.New("imagegen: empty image payload")
	}
	return SourceImage{Data: data, MIMEType: mime}, nil
}
