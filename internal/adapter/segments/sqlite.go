package segments

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/couchcryptid/conductor-ice-risk/internal/domain"

	_ "modernc.org/sqlite"
)

const selectSegments = `SELECT name, lat, lon, risk FROM segments ORDER BY rowid`

// Schema is the table layout the SQLite loader reads.
const Schema = `CREATE TABLE IF NOT EXISTS segments (
	name TEXT NOT NULL,
	lat  REAL NOT NULL,
	lon  REAL NOT NULL,
	risk TEXT NOT NULL
)`

func loadSQLite(ctx context.Context, path string) ([]domain.SegmentRisk, error) {
	// The driver creates missing files; a missing table file is an error here.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open segment table: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open segment table: %w", err)
	}
	defer db.Close()

	return querySegments(ctx, db)
}

func querySegments(ctx context.Context, db *sql.DB) ([]domain.SegmentRisk, error) {
	rows, err := db.QueryContext(ctx, selectSegments)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segs []domain.SegmentRisk
	for rows.Next() {
		var (
			name, risk string
			lat, lon   float64
		)
		if err := rows.Scan(&name, &lat, &lon, &risk); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg, err := newSegment(name, lat, lon, risk)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segs, nil
}

// Import writes segments into a SQLite table file at path, creating the
// table if needed. Existing rows are kept.
func Import(ctx context.Context, path string, segs []domain.SegmentRisk) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open segment table: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create segments table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, s := range segs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segments (name, lat, lon, risk) VALUES (?, ?, ?, ?)`,
			s.Name, s.Lat, s.Lon, string(s.Risk),
		); err != nil {
			return fmt.Errorf("insert segment %q: %w", s.Name, err)
		}
	}
	return tx.Commit()
}
