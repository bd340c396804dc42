package visualize

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"niwaki/internal/imagegen"
)

// ErrorReporter receives failures worth alerting on.
type ErrorReporter interface {
	Capture(err error, tags map[string]string)
}

// Task is the unit of work handed from submission to a worker.
type Task struct {
	JobID string
	Prefs Preferences
	Image imagegen.SourceImage
}

// Runner drives a single job through its states. It is the only writer of a
// job after creation.
type Runner struct {
	store     Store
	generator imagegen.Generator
	logger    zerolog.Logger
	reporter  ErrorReporter
}

func NewRunner(store Store, generator imagegen.Generator, logger zerolog.Logger, reporter ErrorReporter) *Runner {
	return &Runner{
		store:     store,
		generator: generator,
		logger:    logger.With().Str("component", "visualize_runner").Logger(),
		reporter:  reporter,
	}
}

// Run renders every requested style in order. Individual style failures are
// logged and skipped; the job completes if at least one style succeeded.
// Every return path leaves the job terminal unless the store itself is gone.
func (r *Runner) Run(ctx context.Context, task Task) (err error) {
	log := r.logger.With().Str("job_id", task.JobID).Logger()
	// Store writes after a cancellation still need a live context.
	storeCtx := context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, MaxJobDuration)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("visualize: runner panic: %v", rec)
			log.Error().Err(err).Msg("visualisation runner panicked")
			r.report(err, task.JobID, "")
			_ = r.finish(storeCtx, task.JobID, StatusFailed, msgInternal)
		}
	}()

	if ctx.Err() != nil {
		return r.cancelled(ctx, storeCtx, task.JobID)
	}
	if err := r.store.Update(storeCtx, task.JobID, Patch{Status: ptr(StatusAnalysing), Progress: ptr(progressAnalysing)}); err != nil {
		return r.abort(storeCtx, task.JobID, err)
	}
	if err := r.store.Update(storeCtx, task.JobID, Patch{Status: ptr(StatusGenerating), Progress: ptr(progressGenerating)}); err != nil {
		return r.abort(storeCtx, task.JobID, err)
	}

	total := len(task.Prefs.Styles)
	results := make([]Result, 0, total)
	var failed []imagegen.Style

	for i, style := range task.Prefs.Styles {
		if ctx.Err() != nil {
			return r.cancelled(ctx, storeCtx, task.JobID)
		}
		prompt := imagegen.BuildPrompt(imagegen.PromptParams{
			Style:      style,
			Years:      task.Prefs.Years,
			Frequency:  task.Prefs.PruningFrequency,
			Resolution: task.Prefs.Resolution,
		})
		images, genErr := r.generator.Generate(ctx, imagegen.Request{Prompt: prompt, Source: &task.Image})
		if genErr == nil && (len(images) == 0 || len(images[0].Data) == 0) {
			genErr = imagegen.ErrNoImage
		}
		resultID := uuid.NewString()
		if genErr == nil {
			genErr = r.store.PutImage(storeCtx, task.JobID, resultID, images[0])
		}
		if genErr != nil {
			if ctx.Err() != nil {
				return r.cancelled(ctx, storeCtx, task.JobID)
			}
			log.Warn().Err(genErr).Str("style", string(style)).Msg("style generation failed")
			r.report(genErr, task.JobID, string(style))
			failed = append(failed, style)
		} else {
			results = append(results, Result{
				ID:           resultID,
				Style:        style,
				StyleName:    style.DisplayName(),
				ThumbnailURL: ImagePath(task.JobID, resultID),
			})
		}

		patch := Patch{
			Progress:     ptr(progressGenerating + progressStyleSpan*(i+1)/total),
			Results:      results,
			FailedStyles: failed,
		}
		if err := r.store.Update(storeCtx, task.JobID, patch); err != nil {
			return r.abort(storeCtx, task.JobID, err)
		}
	}

	status, msg := StatusCompleted, ""
	if len(results) == 0 {
		log.Warn().Int("styles", total).Msg("no visualisations generated")
		status, msg = StatusFailed, msgAllStylesFailed
	} else {
		log.Info().Int("results", len(results)).Int("failed", len(failed)).Msg("visualisation completed")
	}
	if err := r.finish(storeCtx, task.JobID, status, msg); err != nil {
		return r.abort(storeCtx, task.JobID, err)
	}
	return nil
}

// abort handles a failed store write: it reports the error and makes a best
// effort to leave the job failed so pollers stop waiting on it.
func (r *Runner) abort(ctx context.Context, jobID string, err error) error {
	if errors.Is(err, ErrJobFinished) {
		return nil
	}
	log := r.logger.With().Str("job_id", jobID).Logger()
	log.Error().Err(err).Msg("job store write failed")
	r.report(err, jobID, "")
	if ferr := r.finish(ctx, jobID, StatusFailed, msgInternal); ferr != nil {
		log.Error().Err(ferr).Msg("could not mark job failed")
	}
	return err
}

func (r *Runner) cancelled(runCtx, storeCtx context.Context, jobID string) error {
	msg := msgCancelled
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		msg = msgTimedOut
	}
	r.logger.Info().Str("job_id", jobID).Str("reason", msg).Msg("visualisation stopped")
	if err := r.finish(storeCtx, jobID, StatusFailed, msg); err != nil {
		return err
	}
	return runCtx.Err()
}

func (r *Runner) finish(ctx context.Context, jobID string, status Status, msg string) error {
	patch := Patch{Status: ptr(status), Progress: ptr(progressDone)}
	if msg != "" {
		patch.Error = ptr(msg)
	}
	err := r.store.Update(ctx, jobID, patch)
	if errors.Is(err, ErrJobFinished) {
		return nil
	}
	return err
}

func (r *Runner) report(err error, jobID, style string) {
	if r.reporter == nil {
		return
	}
	tags := map[string]string{"job_id": jobID}
	if style != "" {
		tags["style"] = style
	}
	r.reporter.Capture(err, tags)
}
