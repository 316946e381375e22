package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/store"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// flakyStore fails the first n inserts, then behaves like the memory
// store.
type flakyStore struct {
	*store.MemoryStore
	remaining int32
}

func (f *flakyStore) Insert(ctx context.Context, event *types.AuditEvent) error {
	if atomic.AddInt32(&f.remaining, -1) >= 0 {
		return errors.New("store unavailable")
	}
	return f.MemoryStore.Insert(ctx, event)
}

// stubDirectory resolves one canned user and tenant.
type stubDirectory struct {
	lookups int32
}

func (d *stubDirectory) LookupUser(ctx context.Context, id string) (*interfaces.UserInfo, error) {
	atomic.AddInt32(&d.lookups, 1)
	if id != "user-1" {
		return nil, errors.New("no such user")
	}
	return &interfaces.UserInfo{ID: id, Email: "alice@example.com", Name: "Alice", Role: "admin"}, nil
}

func (d *stubDirectory) LookupTenant(ctx context.Context, id string) (*interfaces.TenantInfo, error) {
	atomic.AddInt32(&d.lookups, 1)
	if id != "tenant-1" {
		return nil, errors.New("no such tenant")
	}
	return &interfaces.TenantInfo{ID: id, Name: "Acme"}, nil
}

func newTestService(t *testing.T, s interfaces.EventStore, dir interfaces.Directory) *Service {
	t.Helper()
	svc := NewService(s, dir, Options{
		QueueSize:            16,
		RetryMaxAttempts:     2,
		RetryInitialInterval: time.Millisecond,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = svc.Close(ctx)
	})
	return svc
}

func TestRecordSyncBuildsCompleteRecord(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, nil)

	event, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		ActorID:   "user-1",
		ActorName: "Alice",
		Action:    "login_failed",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, types.CategorySecurity, event.Category)
	assert.Equal(t, types.SeverityHigh, event.Severity)
	assert.Equal(t, types.StatusSuccess, event.Status)

	stored, err := mem.Get(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, "login_failed", stored.Action)
}

func TestRecordSyncOverrideWins(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), nil)

	event, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		ActorID: "user-1",
		Action:  "task_created",
		Override: &types.Override{
			Category: types.CategorySecurity,
			Severity: types.SeverityCritical,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.CategorySecurity, event.Category)
	assert.Equal(t, types.SeverityCritical, event.Severity)
}

func TestRecordSyncSystemPlaceholders(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), nil)

	event, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		Action: "retention_sweep",
	})
	require.NoError(t, err)
	assert.Empty(t, event.UserID)
	assert.Equal(t, "system", event.UserName)
	assert.Equal(t, "system", event.UserRole)
}

func TestRecordSyncContextEnrichment(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), nil)

	ctx := WithActor(context.Background(), Actor{ID: "user-1", Email: "alice@example.com", Name: "Alice", Role: "admin"})
	ctx = WithTenant(ctx, Tenant{ID: "tenant-1", Name: "Acme"})
	ctx = WithRequestInfo(ctx, RequestInfo{IPAddress: "10.0.0.9", RequestID: "req-7"})

	event, err := svc.RecordSync(ctx, interfaces.RecordRequest{Action: "task_created"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "Alice", event.UserName)
	assert.Equal(t, "tenant-1", event.CompanyID)
	assert.Equal(t, "Acme", event.CompanyName)
	assert.Equal(t, "10.0.0.9", event.IPAddress)
	assert.Equal(t, "req-7", event.RequestID)
}

func TestRecordSyncCallerDetailWinsOverContext(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), nil)

	ctx := WithActor(context.Background(), Actor{ID: "ctx-user", Name: "Ctx"})
	event, err := svc.RecordSync(ctx, interfaces.RecordRequest{
		ActorID:   "user-1",
		ActorName: "Alice",
		Action:    "task_created",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "Alice", event.UserName)
}

func TestRecordSyncDirectoryEnrichment(t *testing.T) {
	dir := &stubDirectory{}
	svc := newTestService(t, store.NewMemoryStore(), dir)

	event, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		ActorID:  "user-1",
		TenantID: "tenant-1",
		Action:   "task_created",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", event.UserEmail)
	assert.Equal(t, "Alice", event.UserName)
	assert.Equal(t, "admin", event.UserRole)
	assert.Equal(t, "Acme", event.CompanyName)
}

func TestRecordSyncDirectoryFailureUsesPlaceholders(t *testing.T) {
	dir := &stubDirectory{}
	svc := newTestService(t, store.NewMemoryStore(), dir)

	event, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		ActorID:  "ghost",
		TenantID: "ghost-tenant",
		Action:   "task_created",
	})
	require.NoError(t, err)
	assert.Equal(t, "unknown", event.UserName)
	assert.Equal(t, "unknown", event.CompanyName)
}

func TestRecordSyncRetriesThenSucceeds(t *testing.T) {
	mem := &flakyStore{MemoryStore: store.NewMemoryStore(), remaining: 2}
	svc := newTestService(t, mem, nil)

	event, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		ActorID: "user-1",
		Action:  "task_created",
	})
	require.NoError(t, err)

	_, err = mem.MemoryStore.Get(context.Background(), event.ID)
	assert.NoError(t, err)
}

func TestRecordSyncSurfacesExhaustedRetries(t *testing.T) {
	mem := &flakyStore{MemoryStore: store.NewMemoryStore(), remaining: 100}
	svc := newTestService(t, mem, nil)

	_, err := svc.RecordSync(context.Background(), interfaces.RecordRequest{
		ActorID: "user-1",
		Action:  "task_created",
	})
	assert.Error(t, err)
}

func TestRecordIsAsyncAndDrainedOnClose(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewService(mem, nil, Options{QueueSize: 16, RetryInitialInterval: time.Millisecond})

	for i := 0; i < 10; i++ {
		event := svc.Record(context.Background(), interfaces.RecordRequest{
			ActorID: "user-1",
			Action:  "task_created",
		})
		require.NotNil(t, event)
		require.NotEmpty(t, event.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Close(ctx))

	total, err := mem.Count(context.Background(), types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestRecordAbsorbsPersistenceFailure(t *testing.T) {
	mem := &flakyStore{MemoryStore: store.NewMemoryStore(), remaining: 1000}
	svc := NewService(mem, nil, Options{QueueSize: 4, RetryInitialInterval: time.Millisecond})

	event := svc.Record(context.Background(), interfaces.RecordRequest{
		ActorID: "user-1",
		Action:  "task_created",
	})
	require.NotNil(t, event)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Close must succeed even though every persist attempt failed.
	assert.NoError(t, svc.Close(ctx))
}
