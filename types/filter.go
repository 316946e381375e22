package types

import "time"

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DefaultSortField is the sort applied when none is requested.
const DefaultSortField = "timestamp"

// SortableFields lists the event fields a query may sort by.
var SortableFields = map[string]bool{
	"timestamp": true,
	"action":    true,
	"category":  true,
	"severity":  true,
	"status":    true,
	"userId":    true,
	"companyId": true,
}

// Filter is the composable query value shared by the query engine,
// analytics, alerts and export so that all four paths use one filter
// semantics implementation. All dimensions are optional and AND-combined.
type Filter struct {
	ActorID  string
	TenantID string
	Action   string
	Category Category
	Severity Severity
	// Severities matches any of the given severities. Used by the alert
	// detector; takes precedence over Severity when non-empty.
	Severities []Severity
	Status     Status

	// Time range, inclusive on both ends. Zero values mean unbounded.
	Start time.Time
	End   time.Time

	// Before is an exclusive upper bound on the timestamp. The exporter
	// uses it as its snapshot boundary.
	Before time.Time

	// Search is a case-insensitive substring matched against userName,
	// userEmail, action, description and companyName (OR-combined).
	Search string
}

// Pagination describes a page request.
type Pagination struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize fills pagination defaults in place.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 50
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortField
	}
	if p.SortOrder == "" {
		p.SortOrder = SortDesc
	}
}

// Cursor is a seek position for stable multi-page iteration. It pairs the
// last-seen timestamp with the last-seen id so concurrent inserts never
// cause skipped or duplicated rows.
type Cursor struct {
	Timestamp time.Time
	ID        string
}

// Zero reports whether the cursor is the start position.
func (c Cursor) Zero() bool {
	return c.Timestamp.IsZero() && c.ID == ""
}

// Page is the paged query result envelope.
type Page struct {
	Events  []*AuditEvent `json:"events"`
	PageNum int           `json:"page"`
	Limit   int           `json:"limit"`
	Total   int64         `json:"total"`
	Pages   int           `json:"pages"`
	HasNext bool          `json:"hasNext"`
	HasPrev bool          `json:"hasPrev"`
}
