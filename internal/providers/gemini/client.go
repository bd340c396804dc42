package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"niwaki/internal/imagegen"
)

const (
	DefaultImageModel  = "gemini-2.0-flash-exp-image-generation"
	DefaultVisionModel = "gemini-2.0-flash"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey      string
	ImageModel  string
	VisionModel string
	Logger      zerolog.Logger
}

// contentGenerator is the slice of *genai.Models the client depends on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps the Gemini SDK for image generation and garden analysis.
type Client struct {
	models      contentGenerator
	imageModel  string
	visionModel string
	logger      zerolog.Logger
}

// New creates a Gemini client. An empty API key is an error; callers decide
// whether the feature is optional.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(sdk.Models, opts), nil
}

func newClient(models contentGenerator, opts Options) *Client {
	c := &Client{
		models:      models,
		imageModel:  opts.ImageModel,
		visionModel: opts.VisionModel,
		logger:      opts.Logger.With().Str("component", "gemini").Logger(),
	}
	if c.imageModel == "" {
		c.imageModel = DefaultImageModel
	}
	if c.visionModel == "" {
		c.visionModel = DefaultVisionModel
	}
	return c
}

func buildContents(prompt string, src *imagegen.SourceImage) []*genai.Content {
	parts := make([]*genai.Part, 0, 2)
	if src != nil && len(src.Data) > 0 {
		mime := src.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(src.Data, mime))
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// Generate sends the prompt and optional source image to the image model and
// returns every image part in the first candidate.
func (c *Client) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	resp, err := c.models.GenerateContent(ctx, c.imageModel, buildContents(req.Prompt, req.Source), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imagegen.ErrProviderFailure, err)
	}
	images := extractImages(resp)
	if len(images) == 0 {
		return nil, imagegen.ErrNoImage
	}
	c.logger.Debug().Str("model", c.imageModel).Int("images", len(images)).Msg("gemini images generated")
	return images, nil
}

func extractImages(resp *genai.GenerateContentResponse) []imagegen.Image {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return nil
	}
	var out []imagegen.Image
	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			continue
		}
		out = append(out, imagegen.Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType})
	}
	return out
}

// Analyse asks the vision model to assess a garden photograph. Replies that
// cannot be parsed yield the fallback analysis rather than an error.
func (c *Client) Analyse(ctx context.Context, src imagegen.SourceImage) (*imagegen.GardenAnalysis, error) {
	resp, err := c.models.GenerateContent(ctx, c.visionModel, buildContents(imagegen.BuildAnalysisPrompt(), &src), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imagegen.ErrProviderFailure, err)
	}
	text := ""
	if resp != nil {
		text = resp.Text()
	}
	analysis, err := ParseAnalysis(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("reply", truncate(text, 500)).Msg("failed to parse garden analysis")
		return imagegen.FallbackAnalysis(), nil
	}
	return analysis, nil
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseAnalysis extracts a GardenAnalysis from a model reply, tolerating a
// markdown code fence around the JSON.
func ParseAnalysis(text string) (*imagegen.GardenAnalysis, error) {
	body := text
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New("gemini: empty analysis reply")
	}
	var out imagegen.GardenAnalysis
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("gemini: decode analysis: %w", err)
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var (
	_ imagegen.Generator = (*Client)(nil)
	_ imagegen.Analyser  = (*Client)(nil)
)
