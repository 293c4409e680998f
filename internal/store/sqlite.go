// Package store persists analysis results in an embedded SQLite database so
// indexed drawings can be queried after the batch that produced them is gone.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cadscope/dxf-indexer/internal/dxf"
	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// DrawingRecord is the per-drawing row returned by listing queries
type DrawingRecord struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Version     string `json:"version,omitempty"`
	EntityCount int    `json:"entity_count"`
	LayerCount  int    `json:"layer_count"`
	HasBOM      bool   `json:"has_bom"`
	NoteCount   int    `json:"note_count"`
}

// Store is a SQLite-backed index of analyzed drawings. SaveResult is meant
// for a single writer; reads can run concurrently under WAL.
type Store struct {
	db      *sql.DB
	path    string
	entropy *ulid.MonotonicEntropy
}

// Open opens (or creates) a SQLite database at path with WAL mode enabled
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{
		db:      db,
		path:    path,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS drawings (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	version TEXT,
	entity_count INTEGER NOT NULL,
	layer_count INTEGER NOT NULL,
	note_count INTEGER NOT NULL,
	has_bom INTEGER NOT NULL,
	summary_json TEXT NOT NULL,
	indexed_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS entities (
	drawing_id TEXT NOT NULL,
	handle TEXT,
	type TEXT NOT NULL,
	layer TEXT,
	min_x REAL, min_y REAL, max_x REAL, max_y REAL,
	FOREIGN KEY(drawing_id) REFERENCES drawings(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS dimensions (
	drawing_id TEXT NOT NULL,
	measurement REAL,
	text TEXT,
	layer TEXT,
	entity_handle TEXT,
	FOREIGN KEY(drawing_id) REFERENCES drawings(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS materials (
	drawing_id TEXT NOT NULL,
	content TEXT NOT NULL,
	layer TEXT,
	entity_handle TEXT,
	FOREIGN KEY(drawing_id) REFERENCES drawings(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bom_rows (
	drawing_id TEXT NOT NULL,
	part_no TEXT,
	description TEXT,
	quantity TEXT,
	material TEXT,
	layer TEXT,
	FOREIGN KEY(drawing_id) REFERENCES drawings(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS diagnostics (
	drawing_id TEXT NOT NULL,
	entity_handle TEXT,
	code TEXT NOT NULL,
	detail TEXT,
	FOREIGN KEY(drawing_id) REFERENCES drawings(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_drawings_source ON drawings(source);
CREATE INDEX IF NOT EXISTS idx_entities_drawing ON entities(drawing_id);
CREATE INDEX IF NOT EXISTS idx_materials_content ON materials(content);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveResult stores one file's full analysis output and returns the assigned
// drawing ID. A drawing already indexed from the same source is replaced.
func (s *Store) SaveResult(ctx context.Context, result *dxf.AnalyzeFileResult) (string, error) {
	id := ulid.MustNew(ulid.Now(), s.entropy).String()
	summary := result.Summary

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Re-indexing a source replaces its previous snapshot.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM drawings WHERE source = ?", summary.Source); err != nil {
		return "", fmt.Errorf("removing previous snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO drawings (id, source, version, entity_count, layer_count, note_count, has_bom, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, summary.Source, summary.Version, summary.EntityCount,
		summary.LayerCount, summary.NoteCount, boolToInt(summary.HasBOM),
		string(summaryJSON)); err != nil {
		return "", fmt.Errorf("inserting drawing: %w", err)
	}

	for i := range result.Entities {
		ent := &result.Entities[i]
		var minX, minY, maxX, maxY any
		if ent.BBox != nil {
			minX, minY = ent.BBox.MinX, ent.BBox.MinY
			maxX, maxY = ent.BBox.MaxX, ent.BBox.MaxY
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (drawing_id, handle, type, layer, min_x, min_y, max_x, max_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, ent.Handle, string(ent.Type), ent.Layer, minX, minY, maxX, maxY); err != nil {
			return "", fmt.Errorf("inserting entity: %w", err)
		}
	}

	for _, dim := range summary.Dimensions {
		var measurement any
		if dim.Measurement != nil {
			measurement = *dim.Measurement
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dimensions (drawing_id, measurement, text, layer, entity_handle)
			VALUES (?, ?, ?, ?, ?)`,
			id, measurement, dim.Text, dim.Layer, dim.EntityHandle); err != nil {
			return "", fmt.Errorf("inserting dimension: %w", err)
		}
	}

	for _, mat := range summary.Materials {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (drawing_id, content, layer, entity_handle)
			VALUES (?, ?, ?, ?)`,
			id, mat.Content, mat.Layer, mat.EntityHandle); err != nil {
			return "", fmt.Errorf("inserting material: %w", err)
		}
	}

	for _, row := range summary.BOMRows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bom_rows (drawing_id, part_no, description, quantity, material, layer)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, row.PartNo, row.Description, row.Quantity, row.Material, row.Layer); err != nil {
			return "", fmt.Errorf("inserting bom row: %w", err)
		}
	}

	for _, diag := range result.Diagnostics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (drawing_id, entity_handle, code, detail)
			VALUES (?, ?, ?, ?)`,
			id, diag.EntityHandle, string(diag.Code), diag.Detail); err != nil {
			return "", fmt.Errorf("inserting diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

// GetSummary returns the stored summary for a drawing ID
func (s *Store) GetSummary(ctx context.Context, id string) (*model.Summary, error) {
	var summaryJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT summary_json FROM drawings WHERE id = ?", id).Scan(&summaryJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("drawing not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	var summary model.Summary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &summary, nil
}

// ListDrawings returns every indexed drawing ordered by source path
func (s *Store) ListDrawings(ctx context.Context) ([]DrawingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, COALESCE(version, ''), entity_count, layer_count, note_count, has_bom
		FROM drawings ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DrawingRecord
	for rows.Next() {
		var rec DrawingRecord
		var hasBOM int
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Version, &rec.EntityCount,
			&rec.LayerCount, &rec.NoteCount, &hasBOM); err != nil {
			return nil, err
		}
		rec.HasBOM = hasBOM != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindByMaterial returns the drawings whose extracted materials contain the
// given designation, case-insensitively
func (s *Store) FindByMaterial(ctx context.Context, designation string) ([]DrawingRecord, error) {
	pattern := "%" + strings.ToLower(designation) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT d.id, d.source, COALESCE(d.version, ''), d.entity_count, d.layer_count, d.note_count, d.has_bom
		FROM drawings d JOIN materials m ON m.drawing_id = d.id
		WHERE LOWER(m.content) LIKE ?
		ORDER BY d.source`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DrawingRecord
	for rows.Next() {
		var rec DrawingRecord
		var hasBOM int
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Version, &rec.EntityCount,
			&rec.LayerCount, &rec.NoteCount, &hasBOM); err != nil {
			return nil, err
		}
		rec.HasBOM = hasBOM != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DrawingCount returns the number of indexed drawings
func (s *Store) DrawingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drawings").Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
