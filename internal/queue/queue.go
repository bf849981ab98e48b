// Package queue runs background validations with bounded concurrency.
package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when the queue is at capacity.
	ErrQueueFull = errors.New("validation queue is full")
	// ErrClosed is returned by Enqueue after Shutdown.
	ErrClosed = errors.New("validation queue is shut down")
)

// Config configures the manager.
type Config struct {
	MaxConcurrent int
	QueueSize     int
}

// Job is one unit of background work. ctx is cancelled when shutdown
// stops waiting.
type Job func(ctx context.Context)

// Manager manages job concurrency and queueing.
type Manager struct {
	cfg        Config
	queue      chan Job
	semaphore  chan struct{}
	wg         sync.WaitGroup
	workerDone chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewManager creates a manager and starts its dispatcher. Zero values get
// defaults of 4 concurrent jobs and 100 queued ones.
func NewManager(cfg Config) *Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:        cfg,
		queue:      make(chan Job, cfg.QueueSize),
		semaphore:  make(chan struct{}, cfg.MaxConcurrent),
		workerDone: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	go m.worker()

	return m
}

// Enqueue adds a job without blocking.
func (m *Manager) Enqueue(job Job) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	select {
	case m.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// worker starts queued jobs as slots free up. It exits once the queue is
// closed and drained.
func (m *Manager) worker() {
	defer close(m.workerDone)
	for job := range m.queue {
		m.semaphore <- struct{}{}

		m.wg.Add(1)
		go func(j Job) {
			defer m.wg.Done()
			defer func() { <-m.semaphore }()

			j(m.ctx)
		}(job)
	}
}

// Pending returns the number of jobs waiting for a slot.
func (m *Manager) Pending() int {
	return len(m.queue)
}

// Active returns the number of running jobs.
func (m *Manager) Active() int {
	return len(m.semaphore)
}

// Shutdown stops accepting jobs and waits for queued and running ones to
// finish. If ctx ends first, the jobs' context is cancelled, Shutdown waits
// for them to return and reports ctx's error.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-m.workerDone
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-done
		return ctx.Err()
	}
}
