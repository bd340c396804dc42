package visualize

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niwaki/internal/imagegen"
)

func runJob(t *testing.T, gen imagegen.Generator, prefs Preferences) (Job, *recordingStore, *captureReporter) {
	t.Helper()
	ctx := context.Background()
	store := &recordingStore{Store: newTestStore(t, time.Hour)}
	reporter := &captureReporter{}
	runner := NewRunner(store, gen, zerolog.Nop(), reporter)

	job, err := store.Create(ctx, prefs)
	require.NoError(t, err)
	_ = runner.Run(ctx, Task{JobID: job.ID, Prefs: prefs, Image: testImage()})

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	return got, store, reporter
}

func TestRunnerPartialSuccessCompletes(t *testing.T) {
	gen := &fakeGenerator{failing: map[imagegen.Style]bool{imagegen.StyleTiered: true}}
	job, _, reporter := runJob(t, gen, testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered))

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.Len(t, job.Results, 1)
	assert.Equal(t, imagegen.StyleSpherical, job.Results[0].Style)
	assert.Equal(t, "Spherical Clouds", job.Results[0].StyleName)
	assert.Equal(t, "data:image/jpeg;base64,aW1nLXNwaGVyaWNhbA==", job.Results[0].ImageURL)
	assert.Equal(t, ImagePath(job.ID, job.Results[0].ID), job.Results[0].ThumbnailURL)
	assert.Equal(t, []imagegen.Style{imagegen.StyleTiered}, job.FailedStyles)
	assert.Empty(t, job.Error)
	assert.Len(t, reporter.errs, 1)
}

func TestRunnerAllStylesFail(t *testing.T) {
	gen := &fakeGenerator{failing: map[imagegen.Style]bool{imagegen.StyleWindswept: true}}
	job, _, _ := runJob(t, gen, testPrefs(imagegen.StyleWindswept))

	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Empty(t, job.Results)
	assert.Equal(t, msgAllStylesFailed, job.Error)
}

func TestRunnerResultsFollowRequestOrder(t *testing.T) {
	gen := &fakeGenerator{}
	styles := []imagegen.Style{imagegen.StyleNaturalistic, imagegen.StyleSpherical, imagegen.StyleWindswept, imagegen.StyleTiered}
	job, _, _ := runJob(t, gen, testPrefs(styles...))

	require.Equal(t, StatusCompleted, job.Status)
	require.Len(t, job.Results, len(styles))
	for i, style := range styles {
		assert.Equal(t, style, job.Results[i].Style)
	}
	assert.Equal(t, styles, gen.Calls(), "styles are generated sequentially in request order")
}

func TestRunnerProgressNeverDecreases(t *testing.T) {
	gen := &fakeGenerator{failing: map[imagegen.Style]bool{imagegen.StyleTiered: true}}
	_, store, _ := runJob(t, gen, testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered, imagegen.StyleWindswept))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.NotEmpty(t, store.progress)
	assert.Equal(t, []int{10, 20, 45, 70, 95, 100}, store.progress)
}

func TestRunnerCancellation(t *testing.T) {
	store := newTestStore(t, time.Hour)
	gen := &fakeGenerator{block: make(chan struct{})}
	runner := NewRunner(store, gen, zerolog.Nop(), nil)

	job, err := store.Create(context.Background(), testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, Task{JobID: job.ID, Prefs: testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered), Image: testImage()}) }()

	require.Eventually(t, func() bool { return len(gen.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, msgCancelled, got.Error)
	assert.Equal(t, 100, got.Progress)
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, imagegen.Request) ([]imagegen.Image, error) {
	panic("boom")
}

func TestRunnerRecoversFromPanic(t *testing.T) {
	job, _, reporter := runJob(t, panicGenerator{}, testPrefs(imagegen.StyleSpherical))

	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, msgInternal, job.Error)
	assert.Len(t, reporter.errs, 1)
}

// sizedGenerator returns an image of the configured size for each style.
type sizedGenerator map[imagegen.Style]int

func (g sizedGenerator) Generate(_ context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	size := g[styleFromPrompt(req.Prompt)]
	return []imagegen.Image{{Data: bytes.Repeat([]byte{0x42}, size), MIMEType: "image/png"}}, nil
}

func TestRunnerHandlesMultiMegabyteImages(t *testing.T) {
	gen := sizedGenerator{
		imagegen.StyleSpherical: 300 << 10,
		imagegen.StyleTiered:    800 << 10,
		imagegen.StyleWindswept: 1536 << 10,
	}
	job, _, reporter := runJob(t, gen, testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered, imagegen.StyleWindswept))

	require.Equal(t, StatusCompleted, job.Status, job.Error)
	assert.Equal(t, 100, job.Progress)
	assert.Empty(t, reporter.errs)
	require.Len(t, job.Results, 3)
	for _, res := range job.Results {
		img, err := imagegen.DecodeImagePayload(res.ImageURL)
		require.NoError(t, err)
		assert.Len(t, img.Data, gen[res.Style])
	}
}

// failingStore rejects the per-style writes that carry results.
type failingStore struct {
	Store
}

func (f failingStore) Update(ctx context.Context, id string, patch Patch) error {
	if patch.Results != nil {
		return errors.New("store unavailable")
	}
	return f.Store.Update(ctx, id, patch)
}

func TestRunnerStoreFailureLeavesJobFailed(t *testing.T) {
	ctx := context.Background()
	base := newTestStore(t, time.Hour)
	reporter := &captureReporter{}
	runner := NewRunner(failingStore{Store: base}, &fakeGenerator{}, zerolog.Nop(), reporter)

	job, err := base.Create(ctx, testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered))
	require.NoError(t, err)

	err = runner.Run(ctx, Task{JobID: job.ID, Prefs: testPrefs(imagegen.StyleSpherical, imagegen.StyleTiered), Image: testImage()})
	require.Error(t, err)

	got, err := base.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, msgInternal, got.Error)
	assert.Len(t, reporter.errs, 1)
}
