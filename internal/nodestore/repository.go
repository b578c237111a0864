package nodestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// Repository stores node records.
type Repository interface {
	// Get returns the record at pos, or ErrRecordNotFound.
	Get(ctx context.Context, pos grid.Pos) (*Record, error)

	// List returns every record ordered by position.
	List(ctx context.Context) ([]Record, error)

	// Save inserts or replaces the record at r.Pos.
	Save(ctx context.Context, r *Record) error

	// Delete removes the record at pos, or returns ErrRecordNotFound.
	Delete(ctx context.Context, pos grid.Pos) error
}

// SQLiteRepository implements Repository over the bus_nodes table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get implements Repository.
func (r *SQLiteRepository) Get(ctx context.Context, pos grid.Pos) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT x, y, z, kind, state, updated_at
		FROM bus_nodes
		WHERE x = ? AND y = ? AND z = ?`,
		pos.X, pos.Y, pos.Z,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying node %s: %w", pos, err)
	}
	return rec, nil
}

// List implements Repository.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT x, y, z, kind, state, updated_at
		FROM bus_nodes
		ORDER BY y, z, x`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return out, nil
}

// Save implements Repository. A zero UpdatedAt is set to now.
func (r *SQLiteRepository) Save(ctx context.Context, rec *Record) error {
	if rec.Kind == "" {
		return fmt.Errorf("%w: %s has no kind", ErrInvalidRecord, rec.Pos)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	state := string(rec.State)
	if state == "" {
		state = "{}"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bus_nodes (x, y, z, kind, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (x, y, z) DO UPDATE SET
			kind = excluded.kind,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		rec.Pos.X, rec.Pos.Y, rec.Pos.Z, rec.Kind, state, rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving node %s: %w", rec.Pos, err)
	}
	return nil
}

// Delete implements Repository.
func (r *SQLiteRepository) Delete(ctx context.Context, pos grid.Pos) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM bus_nodes WHERE x = ? AND y = ? AND z = ?",
		pos.X, pos.Y, pos.Z,
	)
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", pos, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting node %s: %w", pos, err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec       Record
		state     string
		updatedAt string
	)
	if err := row.Scan(&rec.Pos.X, &rec.Pos.Y, &rec.Pos.Z, &rec.Kind, &state, &updatedAt); err != nil {
		return nil, err
	}
	rec.State = []byte(state)
	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}
	rec.UpdatedAt = t
	return &rec, nil
}
