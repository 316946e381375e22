// Package jobs tracks long-running export and sweep jobs so they can be
// observed and cancelled, and so shutdown can stop them cleanly.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of a tracked job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Kind of a tracked job.
type Kind string

const (
	KindExport Kind = "export"
	KindSweep  Kind = "sweep"
)

// Job is one tracked long-running operation.
type Job struct {
	ID        string
	Kind      Kind
	Status    Status
	StartTime time.Time
	Error     error
	cancel    context.CancelFunc
}

// Coordinator tracks active jobs. All methods are safe for concurrent
// use.
type Coordinator struct {
	mu     sync.RWMutex
	active map[string]*Job
	wg     sync.WaitGroup
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		active: make(map[string]*Job),
	}
}

// Begin registers a new job and returns it with a cancellable context
// derived from ctx. The caller must call Finish exactly once.
func (c *Coordinator) Begin(ctx context.Context, kind Kind) (*Job, context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    StatusRunning,
		StartTime: time.Now().UTC(),
		cancel:    cancel,
	}

	c.mu.Lock()
	c.active[job.ID] = job
	c.mu.Unlock()
	c.wg.Add(1)

	return job, jobCtx
}

// Finish records the job outcome and releases its tracking slot.
func (c *Coordinator) Finish(jobID string, err error) {
	c.mu.Lock()
	job, exists := c.active[jobID]
	if exists {
		if err != nil {
			job.Status = StatusFailed
			job.Error = err
		} else {
			job.Status = StatusCompleted
		}
		job.cancel()
		delete(c.active, jobID)
	}
	c.mu.Unlock()
	if exists {
		c.wg.Done()
	}
}

// Cancel cancels one running job.
func (c *Coordinator) Cancel(jobID string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, exists := c.active[jobID]
	if !exists {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.cancel()
	return nil
}

// Active returns copies of the running jobs.
func (c *Coordinator) Active() []Job {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Job, 0, len(c.active))
	for _, job := range c.active {
		out = append(out, Job{
			ID:        job.ID,
			Kind:      job.Kind,
			Status:    job.Status,
			StartTime: job.StartTime,
			Error:     job.Error,
		})
	}
	return out
}

// Shutdown cancels every active job and waits for them to finish, or
// returns ctx.Err() if the deadline expires first.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	for _, job := range c.active {
		job.cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
