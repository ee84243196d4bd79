package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/auditoria/auditoria/pkg/logger"
	"github.com/auditoria/auditoria/pkg/webhook"
)

// Job is a unit of background work.
type Job func(ctx context.Context) error

type queuedJob struct {
	ctx   context.Context
	name  string
	run   Job
	attrs []slog.Attr
}

// Dispatcher runs jobs on a fixed worker pool fed by a buffered queue.
// When the queue is full a job runs on its own goroutine instead of
// blocking the caller. Failed jobs are retried with the configured backoff
// and logged once retries are exhausted.
type Dispatcher struct {
	jobs    chan queuedJob
	quit    chan struct{}
	workers int
	retries int
	backoff webhook.BackoffStrategy
	logger  *slog.Logger

	mu       sync.RWMutex
	stopped  bool
	pending  sync.WaitGroup
	running  sync.WaitGroup
	quitOnce sync.Once
}

type DispatcherOption func(*Dispatcher)

// WithWorkers sets the worker count. Values below 1 are ignored.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithQueueSize sets the queue capacity. Zero makes every job overflow to
// its own goroutine.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.jobs = make(chan queuedJob, n)
		}
	}
}

// WithRetries sets how many times a failing job is retried.
func WithRetries(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.retries = n
		}
	}
}

func WithBackoff(b webhook.BackoffStrategy) DispatcherOption {
	return func(d *Dispatcher) {
		if b != nil {
			d.backoff = b
		}
	}
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher starts the worker pool. Call Stop to release it.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		jobs:    make(chan queuedJob, 1024),
		quit:    make(chan struct{}),
		workers: 4,
		backoff: webhook.DefaultBackoffStrategy(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logger.Component("notifications.dispatcher"))

	d.running.Add(d.workers)
	for range d.workers {
		go d.worker()
	}
	return d
}

// Submit enqueues job. ctx is handed to the job as is, so callers that must
// outlive a request should detach it with context.WithoutCancel.
func (d *Dispatcher) Submit(ctx context.Context, name string, job Job, attrs ...slog.Attr) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	q := queuedJob{ctx: ctx, name: name, run: job, attrs: attrs}
	d.pending.Add(1)
	select {
	case d.jobs <- q:
	default:
		go d.execute(q)
	}
	return nil
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Stop refuses new jobs and waits for queued ones to finish. When ctx ends
// first, pending retries are abandoned and ctx.Err is returned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.running.Wait()
		d.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.quitOnce.Do(func() { close(d.quit) })
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.running.Done()
	for q := range d.jobs {
		d.execute(q)
	}
}

func (d *Dispatcher) execute(q queuedJob) {
	defer d.pending.Done()

	start := time.Now()
	for attempt := 1; ; attempt++ {
		err := q.run(q.ctx)
		if err == nil {
			return
		}

		attrs := append([]slog.Attr{
			slog.String("job", q.name),
			logger.Attempt(attempt),
			logger.Error(err),
		}, q.attrs...)

		if attempt > d.retries {
			attrs = append(attrs, logger.Duration(time.Since(start)))
			d.logger.LogAttrs(q.ctx, slog.LevelError, "background job failed", attrs...)
			return
		}
		d.logger.LogAttrs(q.ctx, slog.LevelWarn, "background job failed, retrying", attrs...)

		timer := time.NewTimer(d.backoff.NextInterval(attempt))
		select {
		case <-timer.C:
		case <-d.quit:
			timer.Stop()
			d.logger.LogAttrs(q.ctx, slog.LevelError, "background job abandoned on shutdown", attrs...)
			return
		}
	}
}
