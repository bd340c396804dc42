package visualize

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"niwaki/internal/imagegen"
)

// Service is the entry point used by HTTP handlers: it creates jobs, hands
// them to the dispatcher and answers polls.
type Service struct {
	store      Store
	dispatcher *Dispatcher
	logger     zerolog.Logger

	// handoff covers the gap between creating a job and queueing it, so a
	// Cancel never sees a pending job the dispatcher does not know yet.
	handoff sync.Mutex
}

func NewService(store Store, dispatcher *Dispatcher, logger zerolog.Logger) *Service {
	return &Service{store: store, dispatcher: dispatcher, logger: logger.With().Str("component", "visualize").Logger()}
}

// Submit validates the preferences, records a pending job and queues it.
// When the queue is full the job is marked failed and ErrQueueFull returned.
func (s *Service) Submit(ctx context.Context, prefs Preferences, image imagegen.SourceImage) (Job, error) {
	prefs.Normalize()
	if err := prefs.Validate(); err != nil {
		return Job{}, err
	}
	if len(image.Data) == 0 {
		return Job{}, fmt.Errorf("%w: image is required", ErrInvalidPreferences)
	}
	s.handoff.Lock()
	job, err := s.store.Create(ctx, prefs)
	if err != nil {
		s.handoff.Unlock()
		return Job{}, err
	}
	err = s.dispatcher.Submit(Task{JobID: job.ID, Prefs: prefs, Image: image})
	s.handoff.Unlock()
	if err != nil {
		msg := msgQueueFull
		if errors.Is(err, ErrStopped) {
			msg = msgCancelled
		}
		if uerr := s.store.Update(context.WithoutCancel(ctx), job.ID, Patch{
			Status:   ptr(StatusFailed),
			Progress: ptr(progressDone),
			Error:    ptr(msg),
		}); uerr != nil {
			s.logger.Error().Err(uerr).Str("job_id", job.ID).Msg("failed to mark rejected job")
		}
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("visualisation rejected")
		return job, err
	}
	s.logger.Info().Str("job_id", job.ID).Strs("styles", stylesToStrings(prefs.Styles)).Msg("visualisation submitted")
	return job, nil
}

// Status returns the current snapshot of a job.
func (s *Service) Status(ctx context.Context, id string) (Job, error) {
	return s.store.Get(ctx, id)
}

// Cancel stops a job that has not finished yet.
func (s *Service) Cancel(ctx context.Context, id string) error {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobFinished
	}
	s.handoff.Lock()
	known := s.dispatcher.Cancel(id)
	s.handoff.Unlock()
	if !known {
		// The worker released the job between the read and the cancel.
		return ErrJobFinished
	}
	s.logger.Info().Str("job_id", id).Msg("visualisation cancel requested")
	return nil
}

// Image returns the stored bytes of one result.
func (s *Service) Image(ctx context.Context, jobID, resultID string) (imagegen.Image, error) {
	return s.store.Image(ctx, jobID, resultID)
}

func stylesToStrings(styles []imagegen.Style) []string {
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = string(s)
	}
	return out
}
