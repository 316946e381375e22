// Package ingest records audit events on behalf of business-operation
// handlers. Recording is fire and forget: failures are retried, then
// logged and dropped, never surfaced to the producing operation.
package ingest

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	keyActor   contextKey = "auditActor"
	keyTenant  contextKey = "auditTenant"
	keyRequest contextKey = "auditRequest"
)

// Actor is the caller-enriched actor detail carried in a request context.
type Actor struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// Tenant is the caller-enriched tenant detail carried in a request context.
type Tenant struct {
	ID   string
	Name string
}

// RequestInfo is the transport-level context of the recorded action.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	Device    string
	Location  string
	SessionID string
	RequestID string
}

// WithActor returns a context carrying actor detail. Middleware that has
// already resolved the current user attaches it here so ingestion never
// needs a directory lookup.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, keyActor, actor)
}

// ActorFromContext extracts actor detail attached via WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(keyActor).(Actor)
	return actor, ok
}

// WithTenant returns a context carrying tenant detail.
func WithTenant(ctx context.Context, tenant Tenant) context.Context {
	return context.WithValue(ctx, keyTenant, tenant)
}

// TenantFromContext extracts tenant detail attached via WithTenant.
func TenantFromContext(ctx context.Context) (Tenant, bool) {
	tenant, ok := ctx.Value(keyTenant).(Tenant)
	return tenant, ok
}

// WithRequestInfo returns a context carrying transport-level detail.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, keyRequest, info)
}

// RequestInfoFromContext extracts detail attached via WithRequestInfo.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(keyRequest).(RequestInfo)
	return info, ok
}
