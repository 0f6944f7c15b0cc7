package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/value"
)

// ErrSnapshotNotFound is returned by Load and Delete when the
// reference matches no snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot describes one saved table.
type Snapshot struct {
	ID        string
	Name      string
	CreatedAt time.Time
	RowCount  int
	Columns   []ColumnInfo
}

// ColumnInfo records one column's name and kind in the catalog.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Save persists a table under the given name and returns the snapshot
// metadata. The write is transactional: either the catalog row and all
// data rows land, or nothing does.
func (s *Store) Save(ctx context.Context, name string, t *frame.Table) (Snapshot, error) {
	if t.NumColumns() == 0 {
		return Snapshot{}, fmt.Errorf("save snapshot: table has no columns")
	}
	snap := Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		RowCount:  t.NumRows(),
	}
	for i := 0; i < t.NumColumns(); i++ {
		col := t.ColumnAt(i)
		kind, ok := col.Kind()
		if !ok {
			return Snapshot{}, fmt.Errorf("save snapshot: column %q holds mixed kinds", col.Name())
		}
		snap.Columns = append(snap.Columns, ColumnInfo{Name: col.Name(), Kind: kind.String()})
	}

	columnsJSON, err := json.Marshal(snap.Columns)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: marshal columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, name, created_at, row_count, columns)
		VALUES (?, ?, ?, ?, ?)
	`,
		snap.ID,
		snap.Name,
		snap.CreatedAt.Format(time.RFC3339Nano),
		snap.RowCount,
		string(columnsJSON),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: catalog insert: %w", err)
	}

	if err := createDataTable(ctx, tx, snap); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	if err := insertRows(ctx, tx, snap, t); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: commit: %w", err)
	}
	return snap, nil
}

// Load reads a snapshot back into a table. The reference is either a
// snapshot id or a name; a name resolves to its newest snapshot.
func (s *Store) Load(ctx context.Context, ref string) (*frame.Table, Snapshot, error) {
	snap, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, Snapshot{}, err
	}

	selects := make([]string, len(snap.Columns))
	for i := range snap.Columns {
		selects[i] = columnIdent(i)
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY rowid ASC",
		strings.Join(selects, ", "), dataTableName(snap.ID),
	)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot: query data: %w", err)
	}
	defer rows.Close()

	kinds := make([]value.Kind, len(snap.Columns))
	for i, ci := range snap.Columns {
		k, err := value.ParseKind(ci.Kind)
		if err != nil {
			return nil, Snapshot{}, fmt.Errorf("load snapshot: column %q: %w", ci.Name, err)
		}
		kinds[i] = k
	}

	colVals := make([][]value.Value, len(snap.Columns))
	scan := make([]any, len(snap.Columns))
	for rows.Next() {
		targets := make([]any, len(snap.Columns))
		for i := range targets {
			scan[i] = &targets[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, Snapshot{}, fmt.Errorf("load snapshot: scan row: %w", err)
		}
		for i, raw := range targets {
			v, err := sqlToValue(kinds[i], raw)
			if err != nil {
				return nil, Snapshot{}, fmt.Errorf("load snapshot: column %q: %w", snap.Columns[i].Name, err)
			}
			colVals[i] = append(colVals[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot: rows iteration: %w", err)
	}

	cols := make([]frame.Series, len(snap.Columns))
	for i, ci := range snap.Columns {
		cols[i] = frame.NewSeries(ci.Name, colVals[i])
	}
	t, err := frame.NewTable(cols...)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return t, snap, nil
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, row_count, columns
		FROM snapshots
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: rows iteration: %w", err)
	}
	return snaps, nil
}

// Delete removes a snapshot's catalog row and data table.
func (s *Store) Delete(ctx context.Context, ref string) error {
	snap, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snap.ID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+dataTableName(snap.ID)); err != nil {
		return fmt.Errorf("delete snapshot: drop data: %w", err)
	}
	return tx.Commit()
}

// resolve looks a reference up as an id first, then as a name (newest
// snapshot wins).
func (s *Store) resolve(ctx context.Context, ref string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, row_count, columns
		FROM snapshots WHERE id = ?
	`, ref)
	snap, err := scanSnapshot(row)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("resolve snapshot: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, row_count, columns
		FROM snapshots WHERE name = ?
		ORDER BY created_at DESC, id ASC
		LIMIT 1
	`, ref)
	snap, err = scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrSnapshotNotFound, ref)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve snapshot: %w", err)
	}
	return snap, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var createdAt, columnsJSON string
	if err := row.Scan(&snap.ID, &snap.Name, &createdAt, &snap.RowCount, &columnsJSON); err != nil {
		return Snapshot{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse created_at: %w", err)
	}
	snap.CreatedAt = ts
	if err := json.Unmarshal([]byte(columnsJSON), &snap.Columns); err != nil {
		return Snapshot{}, fmt.Errorf("parse columns: %w", err)
	}
	return snap, nil
}
