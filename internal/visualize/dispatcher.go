package visualize

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// RunFunc processes one task. Runner.Run satisfies it.
type RunFunc func(ctx context.Context, task Task) error

type queuedTask struct {
	task Task
	ctx  context.Context
}

// Dispatcher hands tasks to a fixed pool of workers over a buffered channel.
// Every task runs under its own context so it can be cancelled on its own or
// together with the rest on Stop.
type Dispatcher struct {
	workers int
	tasks   chan queuedTask
	run     RunFunc
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	started bool
	stopped bool
}

func NewDispatcher(workers, queueSize int, run RunFunc, logger zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		workers: workers,
		tasks:   make(chan queuedTask, queueSize),
		run:     run,
		logger:  logger.With().Str("component", "visualize_dispatcher").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	d.logger.Info().Int("workers", d.workers).Int("queue", cap(d.tasks)).Msg("starting visualisation workers")
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Submit enqueues a task without blocking. It returns ErrQueueFull when the
// buffer is full and ErrStopped after Stop.
func (d *Dispatcher) Submit(task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancels[task.JobID] = cancel
	select {
	case d.tasks <- queuedTask{task: task, ctx: ctx}:
		d.logger.Debug().Str("job_id", task.JobID).Int("queued", len(d.tasks)).Msg("visualisation queued")
		return nil
	default:
		delete(d.cancels, task.JobID)
		cancel()
		return ErrQueueFull
	}
}

// Cancel cancels a queued or running task. It reports whether the job was
// known to the dispatcher.
func (d *Dispatcher) Cancel(jobID string) bool {
	d.mu.Lock()
	cancel, ok := d.cancels[jobID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Pending returns the number of tasks waiting for a worker.
func (d *Dispatcher) Pending() int {
	return len(d.tasks)
}

// Stop rejects new submissions, cancels every task and waits for the workers
// to drain the queue or for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.tasks)
	d.mu.Unlock()

	d.logger.Info().Msg("stopping visualisation workers")
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.logger.Info().Msg("visualisation workers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for q := range d.tasks {
		log := d.logger.With().Int("worker_id", id).Str("job_id", q.task.JobID).Logger()
		log.Debug().Msg("worker picked up visualisation")
		if err := d.run(q.ctx, q.task); err != nil && q.ctx.Err() == nil {
			log.Error().Err(err).Msg("visualisation run failed")
		}
		d.release(q.task.JobID)
	}
}

func (d *Dispatcher) release(jobID string) {
	d.mu.Lock()
	cancel, ok := d.cancels[jobID]
	delete(d.cancels, jobID)
	d.mu.Unlock()
	if ok {
		cancel()
	}
}
