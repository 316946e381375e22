package auditlog

import (
	"context"
	"io"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/export"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/jobs"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// Record assembles an event and persists it in the background. It
// returns the assembled record immediately and never fails the caller.
func (s *Service) Record(ctx context.Context, req interfaces.RecordRequest) *types.AuditEvent {
	return s.recorder.Record(ctx, req)
}

// RecordSync assembles and persists an event synchronously, surfacing
// persistence errors. The manual record admin surface uses it.
func (s *Service) RecordSync(ctx context.Context, req interfaces.RecordRequest) (*types.AuditEvent, error) {
	return s.recorder.RecordSync(ctx, req)
}

// Get returns one event by id, including its annotations.
func (s *Service) Get(ctx context.Context, eventID string) (*types.AuditEvent, error) {
	return s.store.Get(ctx, eventID)
}

// List returns one page of filtered, sorted events with paging totals.
func (s *Service) List(ctx context.Context, filter types.Filter, page types.Pagination) (*types.Page, error) {
	return s.engine.Query(ctx, filter, page)
}

// Count returns the number of events matching the filter.
func (s *Service) Count(ctx context.Context, filter types.Filter) (int64, error) {
	return s.engine.Count(ctx, filter)
}

// Stats returns the dashboard summary counters for the filtered subset.
func (s *Service) Stats(ctx context.Context, filter types.Filter) (*types.Stats, error) {
	return s.analytics.Stats(ctx, filter)
}

// Analytics returns the bundled analytics report: activity trends, top
// actions, security insights, top actors and top tenants.
func (s *Service) Analytics(ctx context.Context, filter types.Filter, interval types.Interval, limit int) (*types.AnalyticsReport, error) {
	return s.analytics.Report(ctx, filter, interval, limit)
}

// Trends buckets the filtered subset by the requested interval.
func (s *Service) Trends(ctx context.Context, filter types.Filter, interval types.Interval) ([]types.TrendBucket, error) {
	return s.analytics.Trends(ctx, filter, interval)
}

// Alerts returns recent events at or above minSeverity, most recent
// first. Zero values select the default window, severity and limit.
func (s *Service) Alerts(ctx context.Context, minSeverity types.Severity, lookbackHours int, tenantID string, limit int) ([]*types.AuditEvent, error) {
	return s.detector.GetAlerts(ctx, minSeverity, lookbackHours, tenantID, limit)
}

// Annotate appends an investigation note to an existing event.
func (s *Service) Annotate(ctx context.Context, eventID, text string, tags []string, authorID string) (*types.Annotation, error) {
	return s.annotations.Add(ctx, eventID, text, tags, authorID)
}

// Annotations returns an event's annotations in append order.
func (s *Service) Annotations(ctx context.Context, eventID string) ([]types.Annotation, error) {
	return s.annotations.Get(ctx, eventID)
}

// Export streams the filtered events to w as a tracked job. The export
// boundary is fixed when it starts; events ingested afterwards are
// excluded. Returns ExportLimitError before writing anything when the
// result exceeds the configured row cap.
func (s *Service) Export(ctx context.Context, w io.Writer, filter types.Filter, opts export.Options) error {
	job, jobCtx := s.coordinator.Begin(ctx, jobs.KindExport)
	err := s.exporter.Export(jobCtx, w, filter, opts)
	s.coordinator.Finish(job.ID, err)
	return err
}

// ExportContentType returns the HTTP content type for an export format.
func (s *Service) ExportContentType(format export.Format) string {
	return format.ContentType()
}

// Cleanup deletes low and medium severity events older than daysToKeep
// as a tracked job and returns the number deleted. High and critical
// events are never deleted.
func (s *Service) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	job, jobCtx := s.coordinator.Begin(ctx, jobs.KindSweep)
	deleted, err := s.sweeper.Sweep(jobCtx, daysToKeep)
	s.coordinator.Finish(job.ID, err)
	return deleted, err
}
