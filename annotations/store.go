// Package annotations appends post-hoc investigation notes to existing
// audit events. Annotations are append-only: never reordered, never
// mutated, never removed.
package annotations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// Store manages annotations, keyed by event id.
type Store struct {
	events interfaces.EventStore
}

// NewStore creates an annotation store on the given event store.
func NewStore(events interfaces.EventStore) *Store {
	return &Store{events: events}
}

// Add appends one annotation to the event and returns it. Returns
// types.ErrEventNotFound when the event id is unknown.
func (s *Store) Add(ctx context.Context, eventID, text string, tags []string, authorID string) (*types.Annotation, error) {
	if text == "" {
		return nil, types.NewValidationError("text", "must not be empty")
	}
	if authorID == "" {
		return nil, types.NewValidationError("authorId", "must not be empty")
	}

	annotation := types.Annotation{
		ID:        uuid.New().String(),
		Text:      text,
		Tags:      tags,
		AuthorID:  authorID,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.AppendAnnotation(ctx, eventID, annotation); err != nil {
		return nil, err
	}
	return &annotation, nil
}

// Get returns the event's annotations in append order.
func (s *Store) Get(ctx context.Context, eventID string) ([]types.Annotation, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.Annotations, nil
}
