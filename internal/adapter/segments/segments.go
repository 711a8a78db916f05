// Package segments loads the static table of known line segments and their
// pre-assessed risk labels for the map overlay.
package segments

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"
	"github.com/couchcryptid/conductor-ice-risk/internal/observability"
)

// Load reads the segment table at path, choosing the format by extension:
// .csv for a comma-separated sheet, .db/.sqlite/.sqlite3 for a SQLite file.
// Every failure wraps domain.ErrReferenceDataUnavailable.
func Load(ctx context.Context, path string) ([]domain.SegmentRisk, error) {
	var (
		segs []domain.SegmentRisk
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		segs, err = loadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		segs, err = loadSQLite(ctx, path)
	default:
		err = fmt.Errorf("unsupported segment table format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReferenceDataUnavailable, err)
	}
	return segs, nil
}

// newSegment validates one row of the table.
func newSegment(name string, lat, lon float64, risk string) (domain.SegmentRisk, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SegmentRisk{}, fmt.Errorf("segment name is empty")
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return domain.SegmentRisk{}, fmt.Errorf("segment %q: latitude %v out of range", name, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return domain.SegmentRisk{}, fmt.Errorf("segment %q: longitude %v out of range", name, lon)
	}
	label, err := domain.ParseRiskLabel(risk)
	if err != nil {
		return domain.SegmentRisk{}, fmt.Errorf("segment %q: %w", name, err)
	}
	// Unknown is reserved for a failed classifier, never a surveyed segment.
	if label == domain.RiskUnknown {
		return domain.SegmentRisk{}, fmt.Errorf("segment %q: risk must be Low, Medium or High", name)
	}
	return domain.SegmentRisk{Name: name, Lat: lat, Lon: lon, Risk: label}, nil
}

// Table is the segment reference data for one process. It is loaded on first
// use and kept for the process lifetime.
type Table struct {
	path    string
	metrics *observability.Metrics
	logger  *slog.Logger

	once     sync.Once
	segments []domain.SegmentRisk
	err      error
}

// NewTable creates a table backed by the file at path. An empty path yields a
// table that always reports domain.ErrReferenceDataUnavailable.
func NewTable(path string, metrics *observability.Metrics, logger *slog.Logger) *Table {
	return &Table{path: path, metrics: metrics, logger: logger}
}

// Segments returns the loaded segments.
func (t *Table) Segments(ctx context.Context) ([]domain.SegmentRisk, error) {
	t.once.Do(func() {
		if t.path == "" {
			t.err = fmt.Errorf("%w: no segment table configured", domain.ErrReferenceDataUnavailable)
			return
		}
		t.segments, t.err = Load(ctx, t.path)
		if t.err != nil {
			t.logger.Error("segment table load failed", "path", t.path, "error", t.err)
			return
		}
		t.metrics.SegmentsLoaded.Set(float64(len(t.segments)))
		t.logger.Info("segment table loaded", "path", t.path, "segments", len(t.segments))
	})
	return t.segments, t.err
}

// Markers returns one overlay marker per segment.
func (t *Table) Markers(ctx context.Context) ([]domain.Marker, error) {
	segs, err := t.Segments(ctx)
	if err != nil {
		return nil, err
	}
	return domain.MarkersFromSegments(segs), nil
}
