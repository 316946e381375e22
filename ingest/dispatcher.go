package ingest

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// persistFunc persists one event. It owns retries and never panics.
type persistFunc func(ctx context.Context, event *types.AuditEvent)

// dispatcher decouples ingestion from the request path with a bounded
// queue. When the queue is full the oldest pending event is dropped and
// the drop is logged: the trail is deliberately lossy under overload.
type dispatcher struct {
	mu      sync.Mutex
	closed  bool
	queue   chan *types.AuditEvent
	wg      sync.WaitGroup
	persist persistFunc
	logger  zerolog.Logger
}

func newDispatcher(size int, persist persistFunc) *dispatcher {
	d := &dispatcher{
		queue:   make(chan *types.AuditEvent, size),
		persist: persist,
		logger:  log.With().Str("component", "audit_dispatcher").Logger(),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for event := range d.queue {
		// Detached context: the producing request may be long gone.
		d.persist(context.Background(), event)
	}
}

// enqueue adds an event for background persistence. Returns false if the
// dispatcher is closed.
func (d *dispatcher) enqueue(event *types.AuditEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn().
			Str("action", event.Action).
			Msg("Dispatcher closed, audit event dropped")
		return false
	}

	for {
		select {
		case d.queue <- event:
			return true
		default:
		}
		select {
		case dropped := <-d.queue:
			d.logger.Warn().
				Str("droppedId", dropped.ID).
				Str("droppedAction", dropped.Action).
				Msg("Ingestion queue full, oldest pending audit event dropped")
		default:
		}
	}
}

// close stops accepting events, drains the queue and waits for the worker
// until ctx expires.
func (d *dispatcher) close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
