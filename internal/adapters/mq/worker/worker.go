// Package worker drains artist registration jobs off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/kyoden/utagoe/internal/adapters/mq/queue"
	"github.com/kyoden/utagoe/internal/domain/model"
	"github.com/kyoden/utagoe/pkg/logger"
	"github.com/kyoden/utagoe/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Registrar resolves and stores an artist by name.
type Registrar interface {
	RegisterIfNeeded(ctx context.Context, name string) (model.Artist, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes registration jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// RegistrationWorker implements Worker over a Registrar.
type RegistrationWorker struct {
	queue     Queue
	registrar Registrar
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRegistrationWorker creates a worker with configuration options.
func NewRegistrationWorker(q Queue, registrar Registrar, opts ...Option) *RegistrationWorker {
	w := &RegistrationWorker{
		queue:     q,
		registrar: registrar,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *RegistrationWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing registration job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *RegistrationWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *RegistrationWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	artist, err := w.registrar.RegisterIfNeeded(ctx, job.Name)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "registration_error")
		w.logger.Error(ctx, "artist registration failed",
			logger.String("job_id", job.JobID),
			logger.String("artist", job.Name),
			logger.Error(err),
		)
		return fmt.Errorf("register artist %q: %w", job.Name, err)
	}

	w.logger.Debug(ctx, "artist registration done",
		logger.String("job_id", job.JobID),
		logger.String("artist", artist.Name),
		logger.Bool("resolved", artist.MusicBrainzID != nil),
	)
	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers   []*RegistrationWorker
	queue     Queue
	registrar Registrar

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. A count below one defaults to the
// number of CPUs.
func NewPool(workerCount int, q Queue, registrar Registrar) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:   make([]*RegistrationWorker, workerCount),
		queue:     q,
		registrar: registrar,
		shutdown:  make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewRegistrationWorker(
			q,
			registrar,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
