package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/tabula-data/tabula/internal/csvio"
	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/frame"
)

// Plan is a compiled pipeline: a source loader plus an ordered list of
// table transforms. Compilation parses every expression up front, so a
// plan that compiles only fails at run time on data-dependent errors
// (missing columns, type mismatches).
type Plan struct {
	name   string
	source Source
	dir    string
	steps  []step
}

type step struct {
	op    string
	apply func(*frame.Table) (*frame.Table, error)
}

// Compile turns a validated spec into a runnable plan. Relative file
// paths resolve against dir (the pipeline file's directory).
func Compile(spec *Spec, dir string) (*Plan, error) {
	plan := &Plan{name: spec.Name, source: spec.Source, dir: dir}
	for i, s := range spec.Steps {
		compiled, err := compileStep(s, dir)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.opName(), err)
		}
		plan.steps = append(plan.steps, compiled)
	}
	return plan, nil
}

// Run loads the source table and applies every step in order.
func (p *Plan) Run() (*frame.Table, error) {
	t, err := csvio.ReadFile(p.resolve(p.source.CSV), csvio.Options{
		Delimiter: delimiterRune(p.source.Delimiter),
		NoHeader:  p.source.NoHeader,
	})
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	slog.Debug("pipeline source loaded", "pipeline", p.name, "rows", t.NumRows(), "columns", t.NumColumns())

	for i, s := range p.steps {
		t, err = s.apply(t)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, s.op, err)
		}
		slog.Debug("pipeline step applied", "pipeline", p.name, "step", i+1, "op", s.op, "rows", t.NumRows())
	}
	return t, nil
}

func (p *Plan) resolve(path string) string {
	return resolvePath(p.dir, path)
}

func compileStep(s StepSpec, dir string) (step, error) {
	switch {
	case s.Filter != "":
		pred, err := ParseExpr(s.Filter)
		if err != nil {
			return step{}, err
		}
		return step{op: "filter", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.Filter(pred)
		}}, nil

	case len(s.Select) > 0:
		exprs := make([]expr.Expr, len(s.Select))
		for i, raw := range s.Select {
			e, err := ParseExpr(raw)
			if err != nil {
				return step{}, err
			}
			exprs[i] = e
		}
		return step{op: "select", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.Select(exprs...)
		}}, nil

	case len(s.WithColumns) > 0:
		exprs := make([]expr.Expr, len(s.WithColumns))
		for i, ne := range s.WithColumns {
			e, err := ParseExpr(ne.Expr)
			if err != nil {
				return step{}, err
			}
			exprs[i] = e.Alias(ne.Name)
		}
		return step{op: "with_columns", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.WithColumns(exprs...)
		}}, nil

	case s.Sort != nil:
		if len(s.Sort.Descending) > 0 && len(s.Sort.Descending) != len(s.Sort.By) {
			return step{}, fmt.Errorf("descending has %d flags for %d keys", len(s.Sort.Descending), len(s.Sort.By))
		}
		keys := make([]frame.SortKey, len(s.Sort.By))
		for i, raw := range s.Sort.By {
			e, err := ParseExpr(raw)
			if err != nil {
				return step{}, err
			}
			keys[i] = frame.SortKey{Expr: e}
			if len(s.Sort.Descending) > 0 {
				keys[i].Descending = s.Sort.Descending[i]
			}
		}
		return step{op: "sort", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.Sort(keys...)
		}}, nil

	case s.Slice != nil:
		offset, length := s.Slice.Offset, s.Slice.Length
		return step{op: "slice", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.Slice(offset, length), nil
		}}, nil

	case s.GroupBy != nil:
		keys := make([]expr.Expr, len(s.GroupBy.Keys))
		for i, raw := range s.GroupBy.Keys {
			e, err := ParseExpr(raw)
			if err != nil {
				return step{}, err
			}
			keys[i] = e
		}
		aggs := make([]expr.Expr, len(s.GroupBy.Agg))
		for i, ne := range s.GroupBy.Agg {
			e, err := ParseExpr(ne.Expr)
			if err != nil {
				return step{}, err
			}
			aggs[i] = e.Alias(ne.Name)
		}
		return step{op: "group_by", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.GroupBy(keys...).Agg(aggs...)
		}}, nil

	case s.Join != nil:
		how := frame.JoinInner
		if s.Join.How != "" {
			parsed, err := frame.ParseJoinType(s.Join.How)
			if err != nil {
				return step{}, err
			}
			how = parsed
		}
		path, on := s.Join.CSV, s.Join.On
		return step{op: "join", apply: func(t *frame.Table) (*frame.Table, error) {
			right, err := csvio.ReadFile(resolvePath(dir, path), csvio.Options{})
			if err != nil {
				return nil, fmt.Errorf("load join table: %w", err)
			}
			return t.Join(right, on, how)
		}}, nil

	case s.Limit != nil:
		n := *s.Limit
		return step{op: "limit", apply: func(t *frame.Table) (*frame.Table, error) {
			return t.Head(n), nil
		}}, nil

	default:
		return step{}, fmt.Errorf("empty step")
	}
}

func resolvePath(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func delimiterRune(s string) rune {
	if s == "" {
		return 0
	}
	return []rune(s)[0]
}
