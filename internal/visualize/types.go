// Package visualize tracks AI garden visualisation jobs: an in-memory job
// store, a runner that renders each requested style in turn, and a dispatcher
// that hands jobs to a fixed set of workers.
package visualize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"niwaki/internal/imagegen"
)

// Status is the lifecycle state of a visualisation job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAnalysing  Status = "analysing"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	MinYears  = 1
	MaxYears  = 10
	MaxStyles = 4

	progressAnalysing  = 10
	progressGenerating = 20
	progressStyleSpan  = 75
	progressDone       = 100

	// MaxJobDuration bounds a single run. Stored images outlive their job
	// because they are written with retention plus this bound.
	MaxJobDuration = 15 * time.Minute
	// MaxImageBytes caps one generated image.
	MaxImageBytes = 20 << 20
)

// Failure messages surfaced to polling clients.
const (
	msgAllStylesFailed = "failed to generate any visualisations"
	msgCancelled       = "visualisation cancelled"
	msgTimedOut        = "visualisation timed out"
	msgQueueFull       = "visualiser is busy, try again shortly"
	msgInternal        = "internal error while generating visualisations"
)

var (
	ErrJobNotFound        = errors.New("visualize: job not found")
	ErrJobFinished        = errors.New("visualize: job already finished")
	ErrImageNotFound      = errors.New("visualize: image not found")
	ErrImageTooLarge      = errors.New("visualize: image too large")
	ErrQueueFull          = errors.New("visualize: queue full")
	ErrStopped            = errors.New("visualize: dispatcher stopped")
	ErrInvalidPreferences = errors.New("visualize: invalid preferences")
)

// Preferences describe what the user wants rendered.
type Preferences struct {
	Years            int                 `json:"years"`
	PruningFrequency imagegen.Frequency  `json:"pruningFrequency"`
	Styles           []imagegen.Style    `json:"styles"`
	Resolution       imagegen.Resolution `json:"resolution,omitempty"`
	ClimateZone      string              `json:"climateZone,omitempty"`
}

// Normalize lower-cases enum fields and applies defaults.
func (p *Preferences) Normalize() {
	p.PruningFrequency = imagegen.Frequency(strings.ToLower(strings.TrimSpace(string(p.PruningFrequency))))
	p.Resolution = imagegen.Resolution(strings.ToLower(strings.TrimSpace(string(p.Resolution))))
	if p.Resolution == "" {
		p.Resolution = imagegen.ResolutionMedium
	}
	for i, s := range p.Styles {
		p.Styles[i] = imagegen.Style(strings.ToLower(strings.TrimSpace(string(s))))
	}
	p.ClimateZone = strings.TrimSpace(p.ClimateZone)
}

// Validate checks the preferences; errors wrap ErrInvalidPreferences.
func (p Preferences) Validate() error {
	if p.Years < MinYears || p.Years > MaxYears {
		return fmt.Errorf("%w: years must be between %d and %d", ErrInvalidPreferences, MinYears, MaxYears)
	}
	if !p.PruningFrequency.Valid() {
		return fmt.Errorf("%w: unknown pruning frequency %q", ErrInvalidPreferences, p.PruningFrequency)
	}
	if !p.Resolution.Valid() {
		return fmt.Errorf("%w: unknown resolution %q", ErrInvalidPreferences, p.Resolution)
	}
	if len(p.Styles) == 0 {
		return fmt.Errorf("%w: at least one style is required", ErrInvalidPreferences)
	}
	if len(p.Styles) > MaxStyles {
		return fmt.Errorf("%w: at most %d styles", ErrInvalidPreferences, MaxStyles)
	}
	seen := make(map[imagegen.Style]struct{}, len(p.Styles))
	for _, s := range p.Styles {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown style %q", ErrInvalidPreferences, s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate style %q", ErrInvalidPreferences, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Result is one rendered style. Immutable once appended to a job. The job
// record keeps ImageURL empty; Get fills it with a data: URI from the image
// entries so the record itself stays small.
type Result struct {
	ID           string         `json:"id"`
	Style        imagegen.Style `json:"style"`
	StyleName    string         `json:"styleName"`
	ImageURL     string         `json:"imageUrl"`
	ThumbnailURL string         `json:"thumbnailUrl"`
}

// Job is the pollable state of a visualisation request.
type Job struct {
	ID           string           `json:"id"`
	Status       Status           `json:"status"`
	Progress     int              `json:"progress"`
	Results      []Result         `json:"results"`
	Error        string           `json:"error,omitempty"`
	FailedStyles []imagegen.Style `json:"failedStyles,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Patch lists the fields an Update replaces. Nil fields are left untouched.
type Patch struct {
	Status       *Status
	Progress     *int
	Results      []Result
	FailedStyles []imagegen.Style
	Error        *string
}

func (p Patch) apply(job *Job) {
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.Progress != nil && *p.Progress > job.Progress {
		job.Progress = min(*p.Progress, progressDone)
	}
	if p.Results != nil {
		job.Results = append([]Result(nil), p.Results...)
	}
	if p.FailedStyles != nil {
		job.FailedStyles = append([]imagegen.Style(nil), p.FailedStyles...)
	}
	if p.Error != nil {
		job.Error = *p.Error
	}
}

// ImagePath is the route that serves the stored bytes of one result.
func ImagePath(jobID, resultID string) string {
	return "/v1/visualize/" + jobID + "/images/" + resultID
}

func ptr[T any](v T) *T { return &v }
