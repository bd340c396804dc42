package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"niwaki/internal/imagegen"
)

type fakeModels struct {
	resp      *genai.GenerateContentResponse
	err       error
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	gotParts  []*genai.Part
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 {
		f.gotParts = contents[0].Parts
	}
	return f.resp, f.err
}

func responseWith(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}}},
	}
}

func TestGenerateReturnsImageParts(t *testing.T) {
	fake := &fakeModels{resp: responseWith(
		genai.NewPartFromText("here you go"),
		genai.NewPartFromBytes([]byte("png-bytes"), "image/png"),
	)}
	c := newClient(fake, Options{Logger: zerolog.Nop()})

	images, err := c.Generate(context.Background(), imagegen.Request{
		Prompt: "prune it",
		Source: &imagegen.SourceImage{Data: []byte("jpeg"), MIMEType: "image/jpeg"},
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, []byte("png-bytes"), images[0].Data)

	assert.Equal(t, DefaultImageModel, fake.gotModel)
	require.NotNil(t, fake.gotConfig)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, fake.gotConfig.ResponseModalities)
	require.Len(t, fake.gotParts, 2)
	require.NotNil(t, fake.gotParts[0].InlineData)
	assert.Equal(t, "image/jpeg", fake.gotParts[0].InlineData.MIMEType)
	assert.Equal(t, "prune it", fake.gotParts[1].Text)
}

func TestGenerateWithoutImagePart(t *testing.T) {
	fake := &fakeModels{resp: responseWith(genai.NewPartFromText("sorry"))}
	c := newClient(fake, Options{Logger: zerolog.Nop()})

	_, err := c.Generate(context.Background(), imagegen.Request{Prompt: "x"})
	assert.ErrorIs(t, err, imagegen.ErrNoImage)
}

func TestGenerateWrapsProviderError(t *testing.T) {
	fake := &fakeModels{err: errors.New("quota exceeded")}
	c := newClient(fake, Options{Logger: zerolog.Nop(), ImageModel: "custom-model"})

	_, err := c.Generate(context.Background(), imagegen.Request{Prompt: "x"})
	assert.ErrorIs(t, err, imagegen.ErrProviderFailure)
	assert.Equal(t, "custom-model", fake.gotModel)
}

func TestParseAnalysis(t *testing.T) {
	reply := "```json\n{\"plants\":[{\"id\":\"plant_1\",\"species\":\"Yew\",\"location\":\"left\",\"niwakiSuitability\":9,\"recommendedStyle\":\"tiered\"}],\"overallAssessment\":\"Great.\"}\n```"
	got, err := ParseAnalysis(reply)
	require.NoError(t, err)
	require.Len(t, got.Plants, 1)
	assert.Equal(t, "Yew", got.Plants[0].Species)
	assert.Equal(t, 9, got.Plants[0].NiwakiSuitability)
	assert.Equal(t, imagegen.StyleTiered, got.Plants[0].RecommendedStyle)
	assert.Equal(t, "Great.", got.OverallAssessment)

	_, err = ParseAnalysis(`{"plants":[],"overallAssessment":"ok"}`)
	require.NoError(t, err)

	_, err = ParseAnalysis("I could not analyse this image")
	assert.Error(t, err)
}

func TestAnalyseFallsBackOnUnparseableReply(t *testing.T) {
	fake := &fakeModels{resp: responseWith(genai.NewPartFromText("not json"))}
	c := newClient(fake, Options{Logger: zerolog.Nop()})

	got, err := c.Analyse(context.Background(), imagegen.SourceImage{Data: []byte("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, imagegen.FallbackAnalysis(), got)
	assert.Equal(t, DefaultVisionModel, fake.gotModel)
}
