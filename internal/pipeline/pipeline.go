// Package pipeline loads, validates, and runs declarative table
// pipelines.
//
// A pipeline file is YAML: a source table and an ordered list of
// transform steps. Files are validated against the embedded CUE schema
// before compilation, so schema violations surface with the offending
// path rather than as downstream evaluation errors.
package pipeline

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Spec is a decoded pipeline file.
type Spec struct {
	Name   string     `yaml:"name"`
	Source Source     `yaml:"source"`
	Steps  []StepSpec `yaml:"steps"`
}

// Source names the delimited-text input table.
type Source struct {
	CSV       string `yaml:"csv"`
	Delimiter string `yaml:"delimiter"`
	NoHeader  bool   `yaml:"no_header"`
}

// StepSpec is one transform step. Exactly one field may be set.
type StepSpec struct {
	Filter      string       `yaml:"filter"`
	Select      []string     `yaml:"select"`
	WithColumns []NamedExpr  `yaml:"with_columns"`
	Sort        *SortSpec    `yaml:"sort"`
	Slice       *SliceSpec   `yaml:"slice"`
	GroupBy     *GroupBySpec `yaml:"group_by"`
	Join        *JoinSpec    `yaml:"join"`
	Limit       *int         `yaml:"limit"`
}

// NamedExpr binds an output column name to an expression string.
type NamedExpr struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// SortSpec orders rows by expressions, with optional per-key
// descending flags (missing flags default ascending).
type SortSpec struct {
	By         []string `yaml:"by"`
	Descending []bool   `yaml:"descending"`
}

// SliceSpec is a contiguous row window.
type SliceSpec struct {
	Offset int `yaml:"offset"`
	Length int `yaml:"length"`
}

// GroupBySpec partitions by key expressions and aggregates each group.
type GroupBySpec struct {
	Keys []string    `yaml:"keys"`
	Agg  []NamedExpr `yaml:"agg"`
}

// JoinSpec joins against another delimited-text table.
type JoinSpec struct {
	CSV string   `yaml:"csv"`
	On  []string `yaml:"on"`
	How string   `yaml:"how"`
}

// Load reads and validates a pipeline file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse validates pipeline YAML against the schema and decodes it.
func Parse(data []byte) (*Spec, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}

	for i, step := range spec.Steps {
		if n := step.opCount(); n != 1 {
			return nil, fmt.Errorf("step %d: exactly one operation required, found %d", i+1, n)
		}
	}
	return &spec, nil
}

// validateSchema unifies the raw YAML document with the embedded CUE
// schema and reports constraint violations.
func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("empty pipeline file")
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile pipeline schema: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode pipeline document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid pipeline:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}

func (s StepSpec) opCount() int {
	n := 0
	if s.Filter != "" {
		n++
	}
	if len(s.Select) > 0 {
		n++
	}
	if len(s.WithColumns) > 0 {
		n++
	}
	if s.Sort != nil {
		n++
	}
	if s.Slice != nil {
		n++
	}
	if s.GroupBy != nil {
		n++
	}
	if s.Join != nil {
		n++
	}
	if s.Limit != nil {
		n++
	}
	return n
}

// opName returns the step's operation name for logs and errors.
func (s StepSpec) opName() string {
	switch {
	case s.Filter != "":
		return "filter"
	case len(s.Select) > 0:
		return "select"
	case len(s.WithColumns) > 0:
		return "with_columns"
	case s.Sort != nil:
		return "sort"
	case s.Slice != nil:
		return "slice"
	case s.GroupBy != nil:
		return "group_by"
	case s.Join != nil:
		return "join"
	case s.Limit != nil:
		return "limit"
	default:
		return "unknown"
	}
}
