// Package interfaces defines all service interfaces for the module.
// IMPORTANT: This is the single source of truth for service interfaces.
// Do not define interfaces in other files.
package interfaces

import (
	"context"
	"time"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// Cache Interfaces
// Cache defines the interface for cache operations
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Store Interfaces
// EventStore defines the append-oriented persistence boundary of the audit
// trail. Concurrency safety is delegated entirely to the implementation;
// no component mutates another's in-flight state.
type EventStore interface {
	// Insert appends one event.
	Insert(ctx context.Context, event *types.AuditEvent) error

	// Get retrieves one event by id. Returns types.ErrEventNotFound when
	// the id is unknown.
	Get(ctx context.Context, id string) (*types.AuditEvent, error)

	// Query returns one page of matching events plus the total match count.
	Query(ctx context.Context, filter types.Filter, page types.Pagination) ([]*types.AuditEvent, int64, error)

	// Seek returns up to limit events after the cursor position, ordered by
	// (timestamp asc, id asc). Used for stable multi-page iteration.
	Seek(ctx context.Context, filter types.Filter, cursor types.Cursor, limit int) ([]*types.AuditEvent, error)

	// Count returns the number of matching events.
	Count(ctx context.Context, filter types.Filter) (int64, error)

	// AppendAnnotation appends one annotation to an existing event.
	// Returns types.ErrEventNotFound when the id is unknown.
	AppendAnnotation(ctx context.Context, eventID string, annotation types.Annotation) error

	// DeleteByFilter removes matching events in batches of at most
	// batchSize documents and returns the number deleted.
	DeleteByFilter(ctx context.Context, filter types.Filter, batchSize int) (int64, error)

	// Trends buckets matching events by the given interval.
	Trends(ctx context.Context, filter types.Filter, interval types.Interval) ([]types.TrendBucket, error)

	// TopActions ranks actions by occurrence, ties broken by most recent.
	TopActions(ctx context.Context, filter types.Filter, limit int) ([]types.ActionCount, error)

	// TopActors ranks actors by occurrence with first/last activity.
	TopActors(ctx context.Context, filter types.Filter, limit int) ([]types.ActorActivity, error)

	// TopTenants ranks tenants by occurrence with first/last activity.
	TopTenants(ctx context.Context, filter types.Filter, limit int) ([]types.TenantActivity, error)

	// SeverityDistribution counts matching events per severity.
	SeverityDistribution(ctx context.Context, filter types.Filter) ([]types.SeverityCount, error)

	// Stats computes the summary counters over the matching subset.
	Stats(ctx context.Context, filter types.Filter) (*types.Stats, error)
}

// Directory Interfaces
// Directory is the external user/tenant lookup the ingestion service may
// consult when the caller supplied only an id. Lookups are best effort;
// failures are tolerated.
type Directory interface {
	LookupUser(ctx context.Context, userID string) (*UserInfo, error)
	LookupTenant(ctx context.Context, tenantID string) (*TenantInfo, error)
}

// UserInfo is the directory's view of an actor.
type UserInfo struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// TenantInfo is the directory's view of a tenant.
type TenantInfo struct {
	ID   string
	Name string
}

// Ingestion Interfaces
// Recorder is the producer contract offered to business-logic
// collaborators. Record never returns an error the caller must handle.
type Recorder interface {
	// Record assembles and dispatches an event, fire and forget.
	Record(ctx context.Context, req RecordRequest) *types.AuditEvent

	// RecordSync assembles and persists an event synchronously. Used by
	// the manual-record admin surface, which needs the persisted event.
	RecordSync(ctx context.Context, req RecordRequest) (*types.AuditEvent, error)
}

// RecordRequest is the input of Record. Actor and tenant detail may be
// partially supplied; ingestion enriches what is missing.
type RecordRequest struct {
	ActorID    string
	ActorEmail string
	ActorName  string
	ActorRole  string

	TenantID   string
	TenantName string

	Action      string
	Description string

	// Override forces category and severity instead of deriving them from
	// the action code. Both fields win together, never partially.
	Override *types.Override

	Status types.Status

	IPAddress string
	UserAgent string
	Device    string
	Location  string
	SessionID string
	RequestID string

	Metadata map[string]interface{}
}
