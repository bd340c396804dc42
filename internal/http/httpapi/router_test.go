package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niwaki/internal/http/handlers"
	"niwaki/internal/imagegen"
	"niwaki/internal/infra"
	"niwaki/internal/infra/clerk"
	"niwaki/internal/visualize"
)

type styleGenerator struct {
	failing map[imagegen.Style]bool
}

func (g styleGenerator) Generate(_ context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	for _, s := range imagegen.Styles {
		if strings.Contains(req.Prompt, "authentic "+string(s)+" style") {
			if g.failing[s] {
				return nil, errors.New("model refused")
			}
			return []imagegen.Image{{Data: []byte(string(s)), MIMEType: "image/png"}}, nil
		}
	}
	return nil, imagegen.ErrNoImage
}

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, token string) (*clerk.Claims, error) {
	if token != "good" {
		return nil, clerk.ErrInvalidToken
	}
	return &clerk.Claims{Subject: "user_1"}, nil
}

func newTestServer(t *testing.T, gen imagegen.Generator) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	store, err := visualize.OpenBadgerStore(time.Minute, logger)
	require.NoError(t, err)
	runner := visualize.NewRunner(store, gen, logger, nil)
	dispatcher := visualize.NewDispatcher(1, 4, runner.Run, logger)
	dispatcher.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = dispatcher.Stop(ctx)
		_ = store.Close()
	})
	app := &handlers.App{
		Logger:     logger,
		Config:     &infra.Config{CORSAllowedOrigins: []string{"https://niwaki.example"}, MaxUploadBytes: 1 << 20},
		Visualizer: visualize.NewService(store, dispatcher, logger),
		Generator:  gen,
	}
	srv := httptest.NewServer(NewRouter(app, staticVerifier{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVisualizeFlow_PartialSuccess(t *testing.T) {
	srv := newTestServer(t, styleGenerator{failing: map[imagegen.Style]bool{imagegen.StyleTiered: true}})

	body, _ := json.Marshal(map[string]any{
		"imageData": base64.StdEncoding.EncodeToString([]byte("garden")),
		"preferences": map[string]any{
			"years":            3,
			"pruningFrequency": "weekly",
			"styles":           []string{"spherical", "tiered"},
		},
	})
	resp, err := http.Post(srv.URL+"/v1/visualize", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted struct {
		Success bool   `json:"success"`
		JobID   string `json:"jobId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	require.True(t, accepted.Success)
	require.NotEmpty(t, accepted.JobID)

	var job visualize.Job
	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/v1/visualize?jobId=" + accepted.JobID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			return false
		}
		job = visualize.Job{}
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			return false
		}
		return job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, visualize.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.Len(t, job.Results, 1)
	assert.Equal(t, imagegen.StyleSpherical, job.Results[0].Style)
	assert.True(t, strings.HasPrefix(job.Results[0].ImageURL, "data:image/png;base64,"))
	assert.Equal(t, []imagegen.Style{imagegen.StyleTiered}, job.FailedStyles)

	thumb, err := http.Get(srv.URL + job.Results[0].ThumbnailURL)
	require.NoError(t, err)
	defer thumb.Body.Close()
	assert.Equal(t, http.StatusOK, thumb.StatusCode)
	assert.Equal(t, "image/png", thumb.Header.Get("Content-Type"))

	archive, err := http.Get(srv.URL + "/v1/visualize/" + accepted.JobID + "/archive")
	require.NoError(t, err)
	defer archive.Body.Close()
	assert.Equal(t, http.StatusOK, archive.StatusCode)
	assert.Equal(t, "application/zip", archive.Header.Get("Content-Type"))
}

func TestVisualizeFlow_AllStylesFail(t *testing.T) {
	srv := newTestServer(t, styleGenerator{failing: map[imagegen.Style]bool{imagegen.StyleWindswept: true}})

	body, _ := json.Marshal(map[string]any{
		"imageData":   base64.StdEncoding.EncodeToString([]byte("garden")),
		"preferences": map[string]any{"years": 1, "pruningFrequency": "minimal", "styles": []string{"windswept"}},
	})
	resp, err := http.Post(srv.URL+"/v1/visualize", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	resp.Body.Close()

	var job visualize.Job
	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/v1/visualize/" + accepted.JobID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		job = visualize.Job{}
		_ = json.NewDecoder(r.Body).Decode(&job)
		return job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, visualize.StatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Empty(t, job.Results)
	assert.Equal(t, "failed to generate any visualisations", job.Error)

	archive, err := http.Get(srv.URL + "/v1/visualize/" + accepted.JobID + "/archive")
	require.NoError(t, err)
	archive.Body.Close()
	assert.Equal(t, http.StatusConflict, archive.StatusCode)
}

func TestRouter_UnknownJobAndHealth(t *testing.T) {
	srv := newTestServer(t, styleGenerator{})

	r, err := http.Get(srv.URL + "/v1/visualize/does-not-exist")
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
	assert.Equal(t, "job not found", body["error"])

	r, err = http.Get(srv.URL + "/v1/healthz")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
}

func TestRouter_AuthAndCORS(t *testing.T) {
	srv := newTestServer(t, styleGenerator{})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/me", nil)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/v1/healthz", nil)
	req.Header.Set("Authorization", "Bearer forged")
	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, r.StatusCode)

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+"/v1/visualize", nil)
	req.Header.Set("Origin", "https://niwaki.example")
	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusNoContent, r.StatusCode)
	assert.Equal(t, "https://niwaki.example", r.Header.Get("Access-Control-Allow-Origin"))
}
