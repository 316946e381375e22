// Package query translates structured filters and pagination requests
// into event store queries.
package query

import (
	"context"
	"fmt"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// MaxPageSize bounds a single page request.
const MaxPageSize = 500

// Engine serves filtered, paginated reads over the event store. Reads are
// pure and non-blocking with respect to writers; they accept the store's
// eventual consistency.
type Engine struct {
	store interfaces.EventStore
}

// NewEngine creates a query engine on the given store.
func NewEngine(store interfaces.EventStore) *Engine {
	return &Engine{store: store}
}

// ValidateFilter rejects malformed filters before they reach the store.
func ValidateFilter(f types.Filter) error {
	if f.Category != "" && !f.Category.Valid() {
		return types.NewValidationError("category", fmt.Sprintf("unknown category %q", f.Category))
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return types.NewValidationError("severity", fmt.Sprintf("unknown severity %q", f.Severity))
	}
	for _, s := range f.Severities {
		if !s.Valid() {
			return types.NewValidationError("severity", fmt.Sprintf("unknown severity %q", s))
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return types.NewValidationError("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return types.NewValidationError("dateRange", "end date is before start date")
	}
	return nil
}

// validatePagination rejects unknown sort fields and oversized pages.
func validatePagination(p types.Pagination) error {
	if p.SortBy != "" && !types.SortableFields[p.SortBy] {
		return types.NewValidationError("sortBy", fmt.Sprintf("field %q is not sortable", p.SortBy))
	}
	if p.SortOrder != "" && p.SortOrder != types.SortAsc && p.SortOrder != types.SortDesc {
		return types.NewValidationError("sortOrder", fmt.Sprintf("must be %q or %q", types.SortAsc, types.SortDesc))
	}
	if p.Limit > MaxPageSize {
		return types.NewValidationError("limit", fmt.Sprintf("must not exceed %d", MaxPageSize))
	}
	return nil
}

// Query returns one page of matching events plus the total count, wrapped
// in the pagination envelope. Default sort is time descending; the store
// pairs the sort key with the id tiebreaker so a fixed filter+sort
// snapshot pages deterministically.
func (e *Engine) Query(ctx context.Context, filter types.Filter, page types.Pagination) (*types.Page, error) {
	if err := ValidateFilter(filter); err != nil {
		return nil, err
	}
	if err := validatePagination(page); err != nil {
		return nil, err
	}
	page.Normalize()

	events, total, err := e.store.Query(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	return &types.Page{
		Events:  events,
		PageNum: page.Page,
		Limit:   page.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: page.Page < pages,
		HasPrev: page.Page > 1,
	}, nil
}

// Count returns the number of matching events.
func (e *Engine) Count(ctx context.Context, filter types.Filter) (int64, error) {
	if err := ValidateFilter(filter); err != nil {
		return 0, err
	}
	return e.store.Count(ctx, filter)
}

// Iterate streams every matching event to fn in (timestamp asc, id asc)
// order using seek continuation, batchSize events per store round trip.
// Multi-page consumers use it instead of numeric offsets so concurrent
// inserts never cause skipped or duplicated rows. Iteration stops when fn
// returns false or ctx is cancelled.
func (e *Engine) Iterate(ctx context.Context, filter types.Filter, batchSize int, fn func(*types.AuditEvent) bool) error {
	if err := ValidateFilter(filter); err != nil {
		return err
	}
	if batchSize < 1 {
		batchSize = 1000
	}

	var cursor types.Cursor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := e.store.Seek(ctx, filter, cursor, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		for _, event := range batch {
			if !fn(event) {
				return nil
			}
		}
		last := batch[len(batch)-1]
		cursor = types.Cursor{Timestamp: last.Timestamp, ID: last.ID}
		if len(batch) < batchSize {
			return nil
		}
	}
}
