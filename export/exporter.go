// Package export streams filtered audit events to CSV, TSV or JSON.
//
// An export fixes its query boundary when it starts: events created after
// the export begins are excluded even when the export spans many batches,
// so compliance exports are consistent snapshots rather than the
// eventually-consistent view analytics tolerates.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/query"
	"github.com/root-sector-ltd-and-co-kg/audit-trail-module/types"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatTSV:
		return "text/tab-separated-values"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Options configures one export.
type Options struct {
	Format Format
	// IncludeMetadata adds the metadata bag as a quoted JSON column
	// (CSV/TSV) or inline object (JSON).
	IncludeMetadata bool
}

// columns is the fixed CSV/TSV column order.
var columns = []string{
	"id", "timestamp",
	"userId", "userEmail", "userName", "userRole",
	"companyId", "companyName",
	"action", "category", "severity", "status", "description",
	"ipAddress", "userAgent", "device", "location", "sessionId", "requestId",
}

const metadataColumn = "metadata"

// Exporter streams filtered result sets in bounded batches so a
// cancelled or timed-out export stops cleanly without buffering the full
// result.
type Exporter struct {
	engine    *query.Engine
	maxRows   int
	batchSize int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewExporter creates an exporter with the given hard row cap and seek
// batch size.
func NewExporter(engine *query.Engine, maxRows, batchSize int) *Exporter {
	if maxRows < 1 {
		maxRows = 10000
	}
	if batchSize < 1 || batchSize > maxRows {
		batchSize = maxRows
	}
	return &Exporter{
		engine:    engine,
		maxRows:   maxRows,
		batchSize: batchSize,
		now:       time.Now,
		logger:    log.With().Str("component", "audit_export").Logger(),
	}
}

// MaxRows returns the hard row cap.
func (e *Exporter) MaxRows() int {
	return e.maxRows
}

// Export streams the filtered events to w. The row cap is checked before
// any output is produced; exceeding it returns ExportLimitError and
// writes nothing. Output already flushed before a cancellation is the
// caller's responsibility to discard.
func (e *Exporter) Export(ctx context.Context, w io.Writer, filter types.Filter, opts Options) error {
	switch opts.Format {
	case FormatCSV, FormatTSV, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, opts.Format)
	}

	// Snapshot boundary: everything ingested from this instant on is
	// outside the export.
	boundary := e.now().UTC()
	if filter.Before.IsZero() || filter.Before.After(boundary) {
		filter.Before = boundary
	}

	total, err := e.engine.Count(ctx, filter)
	if err != nil {
		return err
	}
	if total > int64(e.maxRows) {
		return &types.ExportLimitError{Limit: e.maxRows, Total: total}
	}

	e.logger.Debug().
		Str("format", string(opts.Format)).
		Int64("rows", total).
		Time("boundary", boundary).
		Msg("Starting audit export")

	if opts.Format == FormatJSON {
		return e.writeJSON(ctx, w, filter, opts)
	}
	delimiter := ','
	if opts.Format == FormatTSV {
		delimiter = '\t'
	}
	return e.writeDelimited(ctx, w, filter, opts, delimiter)
}

// row flattens one event into the fixed column order.
func row(event *types.AuditEvent, includeMetadata bool) ([]string, error) {
	record := []string{
		event.ID,
		event.Timestamp.UTC().Format(time.RFC3339),
		event.UserID, event.UserEmail, event.UserName, event.UserRole,
		event.CompanyID, event.CompanyName,
		event.Action, string(event.Category), string(event.Severity), string(event.Status), event.Description,
		event.IPAddress, event.UserAgent, event.Device, event.Location, event.SessionID, event.RequestID,
	}
	if includeMetadata {
		blob := ""
		if len(event.Metadata) > 0 {
			data, err := json.Marshal(event.Metadata)
			if err != nil {
				return nil, fmt.Errorf("failed to encode metadata for event %s: %w", event.ID, err)
			}
			blob = string(data)
		}
		record = append(record, blob)
	}
	return record, nil
}

func (e *Exporter) writeDelimited(ctx context.Context, w io.Writer, filter types.Filter, opts Options, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	header := columns
	if opts.IncludeMetadata {
		header = append(append([]string(nil), columns...), metadataColumn)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	var rowErr error
	err := e.engine.Iterate(ctx, filter, e.batchSize, func(event *types.AuditEvent) bool {
		record, err := row(event, opts.IncludeMetadata)
		if err != nil {
			rowErr = err
			return false
		}
		if err := cw.Write(record); err != nil {
			rowErr = err
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if rowErr != nil {
		return rowErr
	}

	cw.Flush()
	return cw.Error()
}

func (e *Exporter) writeJSON(ctx context.Context, w io.Writer, filter types.Filter, opts Options) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}

	first := true
	var rowErr error
	err := e.engine.Iterate(ctx, filter, e.batchSize, func(event *types.AuditEvent) bool {
		out := *event
		if !opts.IncludeMetadata {
			out.Metadata = nil
		}
		data, err := json.Marshal(&out)
		if err != nil {
			rowErr = err
			return false
		}
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				rowErr = err
				return false
			}
		}
		first = false
		if _, err := w.Write(data); err != nil {
			rowErr = err
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if rowErr != nil {
		return rowErr
	}

	_, err = io.WriteString(w, "]\n")
	return err
}
