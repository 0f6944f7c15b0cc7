// Package csvio reads delimited text into tables and writes tables
// back out. Column types are inferred unless an explicit schema is
// given; empty fields become the missing marker.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/value"
)

// Options configures reading.
type Options struct {
	// Delimiter is the field separator. Zero means comma.
	Delimiter rune

	// NoHeader treats the first record as data; columns are named
	// column_1, column_2, ...
	NoHeader bool

	// Kinds overrides inference for named columns.
	Kinds map[string]value.Kind
}

// Read parses delimited text into a Table.
//
// Inference runs per column over all rows, narrowing int -> float ->
// bool -> str. Empty fields are missing and never influence the
// inferred kind; an all-empty column infers as str.
func Read(r io.Reader, opts Options) (*frame.Table, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return frame.NewTable()
	}

	var header []string
	var rows [][]string
	if opts.NoHeader {
		header = make([]string, len(records[0]))
		for i := range header {
			header[i] = fmt.Sprintf("column_%d", i+1)
		}
		rows = records
	} else {
		header = records[0]
		rows = records[1:]
	}

	cols := make([]frame.Series, len(header))
	for i, name := range header {
		raw := make([]string, len(rows))
		for j, rec := range rows {
			raw[j] = rec[i]
		}
		kind, override := opts.Kinds[name]
		if !override {
			kind = inferKind(raw)
		}
		vals, err := parseColumn(name, kind, raw)
		if err != nil {
			return nil, err
		}
		cols[i] = frame.NewSeries(name, vals)
	}

	return frame.NewTable(cols...)
}

// ReadFile reads a delimited-text file into a Table.
func ReadFile(path string, opts Options) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// inferKind picks the narrowest kind that parses every non-empty
// field.
func inferKind(raw []string) value.Kind {
	canInt, canFloat, canBool := true, true, true
	sawValue := false
	for _, s := range raw {
		if s == "" {
			continue
		}
		sawValue = true
		if canInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				canInt = false
			}
		}
		if canFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				canFloat = false
			}
		}
		if canBool && s != "true" && s != "false" {
			canBool = false
		}
	}
	switch {
	case !sawValue:
		return value.KindStr
	case canInt:
		return value.KindInt
	case canFloat:
		return value.KindFloat
	case canBool:
		return value.KindBool
	default:
		return value.KindStr
	}
}

func parseColumn(name string, kind value.Kind, raw []string) ([]value.Value, error) {
	vals := make([]value.Value, len(raw))
	for i, s := range raw {
		if s == "" {
			vals[i] = value.Null{}
			continue
		}
		v, err := parseField(kind, s)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseField(kind value.Kind, s string) (value.Value, error) {
	switch kind {
	case value.KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int %q: %w", s, err)
		}
		return value.Int(n), nil
	case value.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", s, err)
		}
		return value.Float(f), nil
	case value.KindBool:
		switch s {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		default:
			return nil, fmt.Errorf("parse bool %q", s)
		}
	default:
		return value.Str(s), nil
	}
}

// Write renders a table as delimited text with a header row. Missing
// values write as empty fields.
func Write(w io.Writer, t *frame.Table, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for j := 0; j < t.NumColumns(); j++ {
			record[j] = value.String(t.ColumnAt(j).Value(i))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes a table to a delimited-text file.
func WriteFile(path string, t *frame.Table, delimiter rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, t, delimiter); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
