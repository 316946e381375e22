package auditlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/config"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/export"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/interfaces"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Database:             "audit",
		Collection:           "audit_events",
		QueueSize:            16,
		RetryMaxAttempts:     1,
		RetryInitialInterval: time.Millisecond,
		ExportMaxRows:        100,
		ExportBatchSize:      10,
		RetentionDays:        90,
		SweepInterval:        time.Hour,
		SweepBatchSize:       100,
		CacheTTL:             time.Minute,
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewInMemory(testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = svc.Close(ctx)
	})
	return svc
}

func TestRecordSyncThenList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	event, err := svc.RecordSync(ctx, interfaces.RecordRequest{
		ActorID:     "user-1",
		ActorName:   "Alice",
		TenantID:    "tenant-1",
		Action:      "login_failed",
		Description: "wrong password",
	})
	require.NoError(t, err)
	assert.Equal(t, types.CategorySecurity, event.Category)
	assert.Equal(t, types.SeverityHigh, event.Severity)

	page, err := svc.List(ctx, types.Filter{ActorID: "user-1"}, types.Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, event.ID, page.Events[0].ID)
	assert.Equal(t, int64(1), page.Total)

	got, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "wrong password", got.Description)
}

func TestRecordAsyncIsDrainedByClose(t *testing.T) {
	svc, err := NewInMemory(testConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, interfaces.RecordRequest{ActorID: "user-1", Action: "task_created"})
	}

	closeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Close(closeCtx))

	n, err := svc.Count(ctx, types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestAnnotateAndReadBack(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	event, err := svc.RecordSync(ctx, interfaces.RecordRequest{ActorID: "user-1", Action: "suspicious_activity"})
	require.NoError(t, err)

	ann, err := svc.Annotate(ctx, event.ID, "escalated to on-call", []string{"incident"}, "analyst-1")
	require.NoError(t, err)

	anns, err := svc.Annotations(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, ann.ID, anns[0].ID)
}

func TestStatsAndAnalytics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, action := range []string{"login_failed", "task_created", "company_deleted"} {
		_, err := svc.RecordSync(ctx, interfaces.RecordRequest{ActorID: "user-1", TenantID: "t1", Action: action})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalLogs)
	assert.Equal(t, int64(1), stats.SecurityLogs)
	assert.Equal(t, int64(1), stats.CriticalLogs)

	report, err := svc.Analytics(ctx, types.Filter{}, types.IntervalDay, 5)
	require.NoError(t, err)
	assert.Len(t, report.ActivityTrends, 1)
	assert.Len(t, report.TopActions, 3)
}

func TestAlertsSurface(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordSync(ctx, interfaces.RecordRequest{ActorID: "user-1", Action: "task_created"})
	require.NoError(t, err)
	high, err := svc.RecordSync(ctx, interfaces.RecordRequest{ActorID: "user-1", Action: "login_failed"})
	require.NoError(t, err)

	alerts, err := svc.Alerts(ctx, "", 0, "", 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, high.ID, alerts[0].ID)
}

func TestExportIsTrackedAndStreams(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordSync(ctx, interfaces.RecordRequest{ActorID: "user-1", Action: "task_created"})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf, types.Filter{}, export.Options{Format: export.FormatCSV}))
	assert.Empty(t, svc.Jobs(), "export job must be released on completion")

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)

	assert.Equal(t, "text/csv", svc.ExportContentType(export.FormatCSV))
}

func TestCleanupKeepsRecentEvents(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordSync(ctx, interfaces.RecordRequest{ActorID: "user-1", Action: "task_created"})
	require.NoError(t, err)

	deleted, err := svc.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, svc.Jobs())

	n, err := svc.Count(ctx, types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCleanupRejectsBadRetention(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Cleanup(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

func TestCloseIsIdempotentAboutSweeper(t *testing.T) {
	svc, err := NewInMemory(testConfig(), nil)
	require.NoError(t, err)

	svc.StartSweeper()
	svc.StartSweeper() // second call is a no-op

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Close(ctx))
}
