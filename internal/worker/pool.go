// Package worker runs background jobs on a fixed pool of goroutines fed by a
// bounded queue.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrQueueFull is returned by Submit when the queue has no free slot.
	ErrQueueFull = errors.New("worker: job queue is full")
	// ErrStopped is returned by Submit after Stop was called.
	ErrStopped = errors.New("worker: dispatcher is stopped")
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error // The method that performs the actual work
	ID() string                        // A unique identifier for the job
}

// Worker pulls jobs from the shared queue until it is closed.
type Worker struct {
	ID     int
	queue  <-chan Job
	ctx    context.Context
	logger logrus.FieldLogger
}

func (w Worker) start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for job := range w.queue {
			w.run(job)
		}
		w.logger.WithField("worker", w.ID).Debug("Worker stopped")
	}()
}

func (w Worker) run(job Job) {
	log := w.logger.WithFields(logrus.Fields{"worker": w.ID, "job": job.ID()})
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Job panicked: %v", r)
		}
	}()

	log.Debug("Started job")
	if err := job.Execute(w.ctx); err != nil {
		log.WithError(err).Warn("Error processing job")
		return
	}
	log.Debug("Finished job")
}

// Dispatcher manages a pool of workers and dispatches jobs to them.
type Dispatcher struct {
	maxWorkers int
	queue      chan Job
	logger     logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	running bool
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher. Values below one are raised to one.
func NewDispatcher(maxWorkers, jobQueueSize int, logger logrus.FieldLogger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if jobQueueSize < 1 {
		jobQueueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		maxWorkers: maxWorkers,
		queue:      make(chan Job, jobQueueSize),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the workers. Calling it more than once has no effect.
func (d *Dispatcher) Run() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running || d.stopped {
		return
	}
	d.running = true

	for i := 1; i <= d.maxWorkers; i++ {
		Worker{ID: i, queue: d.queue, ctx: d.ctx, logger: d.logger}.start(&d.wg)
	}
	d.logger.WithField("workers", d.maxWorkers).Info("Dispatcher is running")
}

// Submit enqueues a job without blocking.
func (d *Dispatcher) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- job:
		return nil
	default:
		d.logger.WithField("job", job.ID()).Warn("Job queue full, dropping job")
		return ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued jobs to finish. If ctx ends
// first, the context handed to running jobs is cancelled and Stop returns
// ctx.Err() once the workers exit.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	running := d.running
	d.mu.Unlock()

	if !running {
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("Dispatcher: all workers have stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
