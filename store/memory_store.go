package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// MemoryStore implements the EventStore in process memory. It backs the
// package tests and embedded deployments without a MongoDB instance, and
// mirrors the Mongo filter semantics exactly.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*types.AuditEvent
	order  []string // insertion order of ids
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]*types.AuditEvent),
	}
}

// copyEvent returns a deep enough copy that callers cannot mutate stored
// state through the returned pointer.
func copyEvent(ev *types.AuditEvent) *types.AuditEvent {
	out := *ev
	if ev.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(ev.Metadata))
		for k, v := range ev.Metadata {
			out.Metadata[k] = v
		}
	}
	if ev.Annotations != nil {
		out.Annotations = append([]types.Annotation(nil), ev.Annotations...)
	}
	return &out
}

// matches mirrors filterToMatch for the in-memory representation.
func matches(f types.Filter, ev *types.AuditEvent) bool {
	if f.ActorID != "" && ev.UserID != f.ActorID {
		return false
	}
	if f.TenantID != "" && ev.CompanyID != f.TenantID {
		return false
	}
	if f.Action != "" && ev.Action != f.Action {
		return false
	}
	if f.Category != "" && ev.Category != f.Category {
		return false
	}
	if len(f.Severities) > 0 {
		found := false
		for _, s := range f.Severities {
			if ev.Severity == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	} else if f.Severity != "" && ev.Severity != f.Severity {
		return false
	}
	if f.Status != "" && ev.Status != f.Status {
		return false
	}
	if !f.Start.IsZero() && ev.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && ev.Timestamp.After(f.End) {
		return false
	}
	if !f.Before.IsZero() && !ev.Timestamp.Before(f.Before) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystacks := []string{ev.UserName, ev.UserEmail, ev.Action, ev.Description, ev.CompanyName}
		found := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// collect returns copies of all matching events.
func (s *MemoryStore) collect(f types.Filter) []*types.AuditEvent {
	var out []*types.AuditEvent
	for _, id := range s.order {
		ev := s.events[id]
		if matches(f, ev) {
			out = append(out, copyEvent(ev))
		}
	}
	return out
}

// fieldValue returns the sortable string value of an event field.
func fieldValue(ev *types.AuditEvent, field string) string {
	switch field {
	case "action":
		return ev.Action
	case "category":
		return string(ev.Category)
	case "severity":
		return string(ev.Severity)
	case "status":
		return string(ev.Status)
	case "userId":
		return ev.UserID
	case "companyId":
		return ev.CompanyID
	}
	return ""
}

// sortEvents sorts events by the requested field and direction with the
// id tiebreaker, matching the Mongo sort specification.
func sortEvents(events []*types.AuditEvent, page types.Pagination) {
	asc := page.SortOrder == types.SortAsc
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		var less, equal bool
		if page.SortBy == "timestamp" {
			less = a.Timestamp.Before(b.Timestamp)
			equal = a.Timestamp.Equal(b.Timestamp)
		} else {
			av, bv := fieldValue(a, page.SortBy), fieldValue(b, page.SortBy)
			less = av < bv
			equal = av == bv
		}
		if equal {
			if asc {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if asc {
			return less
		}
		return !less
	})
}

// Insert appends one event.
func (s *MemoryStore) Insert(ctx context.Context, event *types.AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.ID]; !exists {
		s.order = append(s.order, event.ID)
	}
	s.events[event.ID] = copyEvent(event)
	return nil
}

// Get retrieves one event by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, types.ErrEventNotFound
	}
	return copyEvent(ev), nil
}

// Query returns one page of matching events plus the total match count.
func (s *MemoryStore) Query(ctx context.Context, filter types.Filter, page types.Pagination) ([]*types.AuditEvent, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	page.Normalize()

	s.mu.RLock()
	matched := s.collect(filter)
	s.mu.RUnlock()

	total := int64(len(matched))
	sortEvents(matched, page)

	start := (page.Page - 1) * page.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Seek returns up to limit events after the cursor position, ordered by
// (timestamp asc, id asc).
func (s *MemoryStore) Seek(ctx context.Context, filter types.Filter, cursor types.Cursor, limit int) ([]*types.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := s.collect(filter)
	s.mu.RUnlock()

	sortEvents(matched, types.Pagination{SortBy: "timestamp", SortOrder: types.SortAsc})

	var out []*types.AuditEvent
	for _, ev := range matched {
		if !cursor.Zero() {
			if ev.Timestamp.Before(cursor.Timestamp) {
				continue
			}
			if ev.Timestamp.Equal(cursor.Timestamp) && ev.ID <= cursor.ID {
				continue
			}
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of matching events.
func (s *MemoryStore) Count(ctx context.Context, filter types.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, ev := range s.events {
		if matches(filter, ev) {
			n++
		}
	}
	return n, nil
}

// AppendAnnotation appends one annotation to an existing event.
func (s *MemoryStore) AppendAnnotation(ctx context.Context, eventID string, annotation types.Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return types.ErrEventNotFound
	}
	ev.Annotations = append(ev.Annotations, annotation)
	return nil
}

// DeleteByFilter removes matching events in bounded batches.
func (s *MemoryStore) DeleteByFilter(ctx context.Context, filter types.Filter, batchSize int) (int64, error) {
	var deleted int64
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		s.mu.Lock()
		var batch []string
		for _, id := range s.order {
			if matches(filter, s.events[id]) {
				batch = append(batch, id)
				if len(batch) == batchSize {
					break
				}
			}
		}
		for _, id := range batch {
			delete(s.events, id)
		}
		if len(batch) > 0 {
			remaining := s.order[:0]
			for _, id := range s.order {
				if _, ok := s.events[id]; ok {
					remaining = append(remaining, id)
				}
			}
			s.order = remaining
		}
		s.mu.Unlock()

		deleted += int64(len(batch))
		if len(batch) < batchSize {
			return deleted, nil
		}
	}
}

// bucketKey formats a timestamp the way the Mongo $dateToString formats do.
func bucketKey(ts time.Time, interval types.Interval) string {
	ts = ts.UTC()
	switch interval {
	case types.IntervalHour:
		return ts.Format("2006-01-02 15:00")
	case types.IntervalDay:
		return ts.Format("2006-01-02")
	case types.IntervalWeek:
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case types.IntervalMonth:
		return ts.Format("2006-01")
	}
	return ""
}

// Trends buckets matching events by the given interval.
func (s *MemoryStore) Trends(ctx context.Context, filter types.Filter, interval types.Interval) ([]types.TrendBucket, error) {
	if !interval.Valid() {
		return nil, types.NewValidationError("groupBy", fmt.Sprintf("unknown interval %q", interval))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	counts := make(map[string]int64)
	for _, ev := range s.events {
		if matches(filter, ev) {
			counts[bucketKey(ev.Timestamp, interval)]++
		}
	}
	s.mu.RUnlock()

	buckets := make([]types.TrendBucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, types.TrendBucket{Bucket: k, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Bucket < buckets[j].Bucket })
	return buckets, nil
}

// TopActions ranks actions by occurrence, ties broken by most recent.
func (s *MemoryStore) TopActions(ctx context.Context, filter types.Filter, limit int) ([]types.ActionCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	byAction := make(map[string]*types.ActionCount)
	for _, ev := range s.events {
		if !matches(filter, ev) {
			continue
		}
		entry, ok := byAction[ev.Action]
		if !ok {
			entry = &types.ActionCount{Action: ev.Action}
			byAction[ev.Action] = entry
		}
		entry.Count++
		if ev.Timestamp.After(entry.LastSeen) {
			entry.LastSeen = ev.Timestamp
		}
	}
	s.mu.RUnlock()

	out := make([]types.ActionCount, 0, len(byAction))
	for _, entry := range byAction {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopActors ranks actors by occurrence with first/last activity.
func (s *MemoryStore) TopActors(ctx context.Context, filter types.Filter, limit int) ([]types.ActorActivity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	byActor := make(map[string]*types.ActorActivity)
	for _, ev := range s.events {
		if ev.UserID == "" || !matches(filter, ev) {
			continue
		}
		entry, ok := byActor[ev.UserID]
		if !ok {
			entry = &types.ActorActivity{UserID: ev.UserID, FirstSeen: ev.Timestamp, LastSeen: ev.Timestamp}
			byActor[ev.UserID] = entry
		}
		entry.Count++
		if ev.Timestamp.Before(entry.FirstSeen) {
			entry.FirstSeen = ev.Timestamp
		}
		if !ev.Timestamp.Before(entry.LastSeen) {
			entry.LastSeen = ev.Timestamp
			entry.UserName = ev.UserName
			entry.UserEmail = ev.UserEmail
		}
	}
	s.mu.RUnlock()

	out := make([]types.ActorActivity, 0, len(byActor))
	for _, entry := range byActor {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopTenants ranks tenants by occurrence with first/last activity.
func (s *MemoryStore) TopTenants(ctx context.Context, filter types.Filter, limit int) ([]types.TenantActivity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	byTenant := make(map[string]*types.TenantActivity)
	for _, ev := range s.events {
		if ev.CompanyID == "" || !matches(filter, ev) {
			continue
		}
		entry, ok := byTenant[ev.CompanyID]
		if !ok {
			entry = &types.TenantActivity{CompanyID: ev.CompanyID, FirstSeen: ev.Timestamp, LastSeen: ev.Timestamp}
			byTenant[ev.CompanyID] = entry
		}
		entry.Count++
		if ev.Timestamp.Before(entry.FirstSeen) {
			entry.FirstSeen = ev.Timestamp
		}
		if !ev.Timestamp.Before(entry.LastSeen) {
			entry.LastSeen = ev.Timestamp
			entry.CompanyName = ev.CompanyName
		}
	}
	s.mu.RUnlock()

	out := make([]types.TenantActivity, 0, len(byTenant))
	for _, entry := range byTenant {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SeverityDistribution counts matching events per severity.
func (s *MemoryStore) SeverityDistribution(ctx context.Context, filter types.Filter) ([]types.SeverityCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	counts := make(map[types.Severity]int64)
	for _, ev := range s.events {
		if matches(filter, ev) {
			counts[ev.Severity]++
		}
	}
	s.mu.RUnlock()

	out := make([]types.SeverityCount, 0, len(counts))
	for sev, n := range counts {
		out = append(out, types.SeverityCount{Severity: sev, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Severity < out[j].Severity
	})
	return out, nil
}

// Stats computes the summary counters over the matching subset.
func (s *MemoryStore) Stats(ctx context.Context, filter types.Filter) (*types.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &types.Stats{}
	for _, ev := range s.events {
		if !matches(filter, ev) {
			continue
		}
		stats.TotalLogs++
		if ev.Severity == types.SeverityCritical {
			stats.CriticalLogs++
		}
		if ev.Category == types.CategorySecurity {
			stats.SecurityLogs++
		}
		if ev.Status == types.StatusFailed {
			stats.FailedLogs++
		}
		if ev.Category == types.CategoryAdmin {
			stats.AdminLogs++
		}
		if ev.Category == types.CategoryUser {
			stats.UserLogs++
		}
	}
	return stats, nil
}

var _ interfaces.EventStore = (*MemoryStore)(nil)
