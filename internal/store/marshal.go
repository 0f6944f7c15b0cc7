package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/value"
)

// dataTableName derives the generated table name for a snapshot id.
// UUID dashes are stripped to keep the identifier plain.
func dataTableName(id string) string {
	return "data_" + strings.ReplaceAll(id, "-", "")
}

// columnIdent names data-table columns positionally (c0, c1, ...) so
// arbitrary user column names never reach SQL identifiers. Real names
// live in the catalog's columns JSON.
func columnIdent(i int) string {
	return fmt.Sprintf("c%d", i)
}

// sqlColumnType maps a value kind to its SQLite column type.
// Bool stores as INTEGER 0/1.
func sqlColumnType(kind string) (string, error) {
	k, err := value.ParseKind(kind)
	if err != nil {
		return "", err
	}
	switch k {
	case value.KindInt, value.KindBool:
		return "INTEGER", nil
	case value.KindFloat:
		return "REAL", nil
	default:
		return "TEXT", nil
	}
}

func createDataTable(ctx context.Context, tx *sql.Tx, snap Snapshot) error {
	defs := make([]string, len(snap.Columns))
	for i, ci := range snap.Columns {
		typ, err := sqlColumnType(ci.Kind)
		if err != nil {
			return fmt.Errorf("column %q: %w", ci.Name, err)
		}
		defs[i] = columnIdent(i) + " " + typ
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", dataTableName(snap.ID), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create data table: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, snap Snapshot, t *frame.Table) error {
	if len(snap.Columns) == 0 || t.NumRows() == 0 {
		return nil
	}

	idents := make([]string, len(snap.Columns))
	marks := make([]string, len(snap.Columns))
	for i := range snap.Columns {
		idents[i] = columnIdent(i)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		dataTableName(snap.ID), strings.Join(idents, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, t.NumColumns())
	for row := 0; row < t.NumRows(); row++ {
		for col := 0; col < t.NumColumns(); col++ {
			args[col] = valueToSQL(t.ColumnAt(col).Value(row))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", row, err)
		}
	}
	return nil
}

// valueToSQL converts a cell to a database/sql parameter.
func valueToSQL(v value.Value) any {
	switch val := v.(type) {
	case value.Null:
		return nil
	case value.Int:
		return int64(val)
	case value.Float:
		return float64(val)
	case value.Str:
		return string(val)
	case value.Bool:
		if val {
			return int64(1)
		}
		return int64(0)
	default:
		return nil
	}
}

// sqlToValue converts a scanned SQL value back to a cell of the
// cataloged kind.
func sqlToValue(kind value.Kind, raw any) (value.Value, error) {
	if raw == nil {
		return value.Null{}, nil
	}
	switch kind {
	case value.KindInt:
		n, ok := raw.(int64)
		if !ok {
			return nil, fmt.Errorf("expected INTEGER, got %T", raw)
		}
		return value.Int(n), nil
	case value.KindFloat:
		switch v := raw.(type) {
		case float64:
			return value.Float(v), nil
		case int64:
			// SQLite stores whole floats as integers.
			return value.Float(v), nil
		default:
			return nil, fmt.Errorf("expected REAL, got %T", raw)
		}
	case value.KindBool:
		n, ok := raw.(int64)
		if !ok {
			return nil, fmt.Errorf("expected INTEGER 0/1, got %T", raw)
		}
		return value.Bool(n != 0), nil
	case value.KindStr:
		switch v := raw.(type) {
		case string:
			return value.Str(v), nil
		case []byte:
			return value.Str(v), nil
		default:
			return nil, fmt.Errorf("expected TEXT, got %T", raw)
		}
	default:
		return value.Null{}, nil
	}
}
