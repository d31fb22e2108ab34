package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when jobs are pushed before Start.
	ErrNotStarted = errors.New("queue not started")
	// ErrClosed is returned once Stop has been called.
	ErrClosed = errors.New("queue closed")
	// ErrFull is returned when the buffer cannot take another job. Enqueue never blocks the caller.
	ErrFull = errors.New("queue full")
)

// Job is a unit of background work routed by Type.
type Job struct {
	ID        string
	Type      string
	Payload   interface{}
	RequestID string
	Attempt   int
	Enqueued  time.Time
}

// Handler processes a job of one type.
type Handler func(context.Context, Job) error

// Config sizes the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory dispatcher with a fixed worker pool and linear retry backoff.
type Queue struct {
	name       string
	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	handlers map[string]Handler

	mu      sync.Mutex
	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
	drained bool

	// inflight counts accepted jobs until they succeed or are given up, retry waits included.
	inflight sync.WaitGroup
	delayed  atomic.Int64
}

// New builds a queue. Handlers must be registered before Start.
func New(name string, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		handlers:   make(map[string]Handler),
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Handle registers the handler for a job type.
func (q *Queue) Handle(jobType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop refuses new jobs and waits until every accepted job, including those waiting
// for a retry, has finished or ctx expires.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started || q.closed {
		q.closed = true
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(idle)
	}()

	var err error
	select {
	case <-idle:
	case <-ctx.Done():
		q.logger.Warn("queue stop timed out",
			zap.Int("pending", len(q.jobs)),
			zap.Int64("awaiting_retry", q.delayed.Load()),
		)
		err = fmt.Errorf("stop queue %s: %w", q.name, ctx.Err())
	}

	q.cancel()
	q.mu.Lock()
	q.drained = true
	close(q.jobs)
	q.mu.Unlock()

	if err != nil {
		return err
	}
	q.wg.Wait()
	q.logger.Info("queue stopped")
	return nil
}

// Enqueue hands a job to the pool without blocking.
func (q *Queue) Enqueue(job Job) error {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return q.push(job)
}

// Pending reports how many jobs are buffered.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) push(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.closed:
		return ErrClosed
	case !q.started:
		return ErrNotStarted
	}
	q.inflight.Add(1)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.inflight.Done()
		return ErrFull
	}
}

// requeue puts a retried job back. It is accepted while Stop waits for in-flight work.
func (q *Queue) requeue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.drained {
		return ErrClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrFull
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(job)
	}
}

func (q *Queue) process(job Job) {
	q.mu.Lock()
	handler, ok := q.handlers[job.Type]
	q.mu.Unlock()
	if !ok {
		q.logger.Error("no handler for job type", zap.String("job_id", job.ID), zap.String("type", job.Type))
		q.inflight.Done()
		return
	}

	if err := handler(q.ctx, job); err != nil {
		q.retry(job, err)
		return
	}
	q.inflight.Done()
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.String("request_id", job.RequestID),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	}
	if job.Attempt > q.maxRetries {
		q.logger.Error("job exceeded retries", fields...)
		q.inflight.Done()
		return
	}
	q.logger.Warn("job failed, retrying", fields...)

	delay := q.retryDelay * time.Duration(job.Attempt)
	q.delayed.Add(1)
	go func(j Job) {
		defer q.delayed.Add(-1)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.logger.Warn("retry dropped on shutdown", zap.String("job_id", j.ID), zap.Int("attempt", j.Attempt))
			q.inflight.Done()
		case <-timer.C:
			if err := q.requeue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
				q.inflight.Done()
			}
		}
	}(job)
}
