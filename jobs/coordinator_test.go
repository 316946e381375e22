package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginAndFinish(t *testing.T) {
	c := NewCoordinator()

	job, jobCtx := c.Begin(context.Background(), KindExport)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, KindExport, job.Kind)
	assert.Equal(t, StatusRunning, job.Status)
	assert.NoError(t, jobCtx.Err())

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, job.ID, active[0].ID)

	c.Finish(job.ID, nil)
	assert.Empty(t, c.Active())
	assert.ErrorIs(t, jobCtx.Err(), context.Canceled)
}

func TestFinishWithError(t *testing.T) {
	c := NewCoordinator()

	job, _ := c.Begin(context.Background(), KindSweep)
	c.Finish(job.ID, errors.New("boom"))
	assert.Empty(t, c.Active())

	// Finishing twice is harmless.
	c.Finish(job.ID, nil)
}

func TestCancel(t *testing.T) {
	c := NewCoordinator()

	job, jobCtx := c.Begin(context.Background(), KindExport)
	require.NoError(t, c.Cancel(job.ID))
	assert.ErrorIs(t, jobCtx.Err(), context.Canceled)

	// The slot stays until the owner calls Finish.
	assert.Len(t, c.Active(), 1)
	c.Finish(job.ID, jobCtx.Err())
	assert.Empty(t, c.Active())

	assert.Error(t, c.Cancel("missing"))
}

func TestShutdownCancelsAndWaits(t *testing.T) {
	c := NewCoordinator()

	job, jobCtx := c.Begin(context.Background(), KindExport)
	done := make(chan struct{})
	go func() {
		<-jobCtx.Done()
		c.Finish(job.ID, jobCtx.Err())
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job goroutine never observed cancellation")
	}
}

func TestShutdownTimesOutOnStuckJob(t *testing.T) {
	c := NewCoordinator()
	c.Begin(context.Background(), KindSweep) // never finished

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Shutdown(ctx), context.DeadlineExceeded)
}
