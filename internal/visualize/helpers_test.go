package visualize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"niwaki/internal/imagegen"
)

func newTestStore(t *testing.T, retention time.Duration) *BadgerStore {
	t.Helper()
	store, err := OpenBadgerStore(retention, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fakeGenerator fails the styles listed in failing and blocks on block when set.
type fakeGenerator struct {
	mu      sync.Mutex
	failing map[imagegen.Style]bool
	block   chan struct{}
	calls   []imagegen.Style
}

func (g *fakeGenerator) Generate(ctx context.Context, req imagegen.Request) ([]imagegen.Image, error) {
	style := styleFromPrompt(req.Prompt)
	g.mu.Lock()
	g.calls = append(g.calls, style)
	g.mu.Unlock()

	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.failing[style] {
		return nil, errors.New("model refused " + string(style))
	}
	return []imagegen.Image{{Data: []byte("img-" + string(style)), MIMEType: "image/jpeg"}}, nil
}

func (g *fakeGenerator) Calls() []imagegen.Style {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]imagegen.Style(nil), g.calls...)
}

func styleFromPrompt(prompt string) imagegen.Style {
	for _, s := range imagegen.Styles {
		if strings.Contains(prompt, "authentic "+string(s)+" style") {
			return s
		}
	}
	return ""
}

// recordingStore captures every progress value written for a job.
type recordingStore struct {
	Store
	mu       sync.Mutex
	progress []int
}

func (r *recordingStore) Update(ctx context.Context, id string, patch Patch) error {
	err := r.Store.Update(ctx, id, patch)
	if err == nil {
		job, gerr := r.Store.Get(ctx, id)
		if gerr == nil {
			r.mu.Lock()
			r.progress = append(r.progress, job.Progress)
			r.mu.Unlock()
		}
	}
	return err
}

type captureReporter struct {
	mu   sync.Mutex
	errs []error
}

func (c *captureReporter) Capture(err error, _ map[string]string) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

func testPrefs(styles ...imagegen.Style) Preferences {
	return Preferences{
		Years:            5,
		PruningFrequency: imagegen.FrequencyMonthly,
		Styles:           styles,
		Resolution:       imagegen.ResolutionMedium,
	}
}

func testImage() imagegen.SourceImage {
	return imagegen.SourceImage{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"}
}
