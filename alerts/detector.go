// Package alerts surfaces recent high-severity activity as a
// recency-sorted view over the audit trail.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/query"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

const (
	// DefaultLookbackHours is applied when the caller passes no window.
	DefaultLookbackHours = 24
	// DefaultLimit bounds the alert list when the caller passes none.
	DefaultLimit = 50
)

// Detector runs the security alert query. It delegates all filter
// semantics to the query engine.
type Detector struct {
	engine *query.Engine
	now    func() time.Time
}

// NewDetector creates an alert detector on the given query engine.
func NewDetector(engine *query.Engine) *Detector {
	return &Detector{engine: engine, now: time.Now}
}

// GetAlerts returns up to limit events with severity at or above
// minSeverity recorded within the last lookbackHours, most recent first.
// tenantID narrows the view to one tenant when non-empty.
func (d *Detector) GetAlerts(ctx context.Context, minSeverity types.Severity, lookbackHours int, tenantID string, limit int) ([]*types.AuditEvent, error) {
	if minSeverity == "" {
		minSeverity = types.SeverityHigh
	}
	if !minSeverity.Valid() {
		return nil, types.NewValidationError("severity", fmt.Sprintf("unknown severity %q", minSeverity))
	}
	if lookbackHours < 1 {
		lookbackHours = DefaultLookbackHours
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	filter := types.Filter{
		Severities: types.SeveritiesFrom(minSeverity),
		TenantID:   tenantID,
		Start:      d.now().UTC().Add(-time.Duration(lookbackHours) * time.Hour),
	}
	page, err := d.engine.Query(ctx, filter, types.Pagination{
		Page:      1,
		Limit:     limit,
		SortBy:    types.DefaultSortField,
		SortOrder: types.SortDesc,
	})
	if err != nil {
		return nil, err
	}
	return page.Events, nil
}
