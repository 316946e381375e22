package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/query"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/store"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

var exportNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestExporter(t *testing.T, maxRows int, events []*types.AuditEvent) *Exporter {
	t.Helper()
	s := store.NewMemoryStore()
	for _, ev := range events {
		require.NoError(t, s.Insert(context.Background(), ev))
	}
	e := NewExporter(query.NewEngine(s), maxRows, 2)
	e.now = func() time.Time { return exportNow }
	return e
}

func exportEvent(id string, age time.Duration) *types.AuditEvent {
	return &types.AuditEvent{
		ID:          id,
		Timestamp:   exportNow.Add(-age),
		UserID:      "u1",
		UserEmail:   "alice@example.com",
		UserName:    "Alice",
		CompanyID:   "t1",
		CompanyName: "Acme",
		Action:      "login_failed",
		Category:    types.CategorySecurity,
		Severity:    types.SeverityHigh,
		Status:      types.StatusFailed,
		Description: "wrong password",
		IPAddress:   "10.0.0.9",
	}
}

func TestExportCSV(t *testing.T) {
	e := newTestExporter(t, 100, []*types.AuditEvent{
		exportEvent("ev-1", 3*time.Hour),
		exportEvent("ev-2", 2*time.Hour),
		exportEvent("ev-3", time.Hour),
	})

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatCSV}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, columns, records[0])
	// Rows stream oldest first.
	assert.Equal(t, "ev-1", records[1][0])
	assert.Equal(t, "ev-3", records[3][0])
	assert.Equal(t, "login_failed", records[1][8])
	assert.Equal(t, exportNow.Add(-3*time.Hour).Format(time.RFC3339), records[1][1])
}

func TestExportCSVWithMetadata(t *testing.T) {
	ev := exportEvent("ev-1", time.Hour)
	ev.Metadata = map[string]interface{}{"attempts": 3.0}
	e := newTestExporter(t, 100, []*types.AuditEvent{ev})

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatCSV, IncludeMetadata: true}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, metadataColumn, records[0][len(records[0])-1])

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(records[1][len(records[1])-1]), &meta))
	assert.Equal(t, 3.0, meta["attempts"])
}

func TestExportTSV(t *testing.T) {
	e := newTestExporter(t, 100, []*types.AuditEvent{exportEvent("ev-1", time.Hour)})

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatTSV}))

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ev-1", records[1][0])
}

func TestExportJSON(t *testing.T) {
	e := newTestExporter(t, 100, []*types.AuditEvent{
		exportEvent("ev-1", 2*time.Hour),
		exportEvent("ev-2", time.Hour),
	})

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatJSON}))

	var events []types.AuditEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].ID)
	assert.Equal(t, "ev-2", events[1].ID)
}

func TestExportJSONEmptyResult(t *testing.T) {
	e := newTestExporter(t, 100, nil)

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatJSON}))

	var events []types.AuditEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &events))
	assert.Empty(t, events)
}

func TestExportRowCapWritesNothing(t *testing.T) {
	var events []*types.AuditEvent
	for i := 0; i < 5; i++ {
		events = append(events, exportEvent(fmt.Sprintf("ev-%d", i), time.Duration(i+1)*time.Minute))
	}
	e := newTestExporter(t, 3, events)

	var buf bytes.Buffer
	err := e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatCSV})
	require.Error(t, err)

	var limitErr *types.ExportLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, int64(5), limitErr.Total)
	assert.Zero(t, buf.Len(), "no partial output on limit breach")
}

func TestExportUnsupportedFormat(t *testing.T) {
	e := newTestExporter(t, 100, nil)

	var buf bytes.Buffer
	err := e.Export(context.Background(), &buf, types.Filter{}, Options{Format: "xlsx"})
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestExportSnapshotBoundary(t *testing.T) {
	// One event timestamped after the export starts: excluded.
	future := exportEvent("future", -time.Hour)
	e := newTestExporter(t, 100, []*types.AuditEvent{
		exportEvent("past", time.Hour),
		future,
	})

	var buf bytes.Buffer
	require.NoError(t, e.Export(context.Background(), &buf, types.Filter{}, Options{Format: FormatCSV}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "past", records[1][0])
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "text/tab-separated-values", FormatTSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "application/octet-stream", Format("xlsx").ContentType())
}
