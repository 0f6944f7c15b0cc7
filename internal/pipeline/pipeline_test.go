package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-data/tabula/internal/value"
)

func TestParsePipeline(t *testing.T) {
	spec, err := Parse([]byte(`
name: demo
source:
  csv: incomes.csv
steps:
  - filter: income > 100
  - select: [region, income]
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", spec.Name)
	assert.Equal(t, "incomes.csv", spec.Source.CSV)
	require.Len(t, spec.Steps, 2)
	assert.Equal(t, "filter", spec.Steps[0].opName())
	assert.Equal(t, "select", spec.Steps[1].opName())
}

func TestParsePipelineSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing source", "steps: []\n"},
		{"empty source csv", "source:\n  csv: \"\"\nsteps: []\n"},
		{"bad join how", `
source:
  csv: a.csv
steps:
  - join:
      csv: b.csv
      on: [k]
      how: outer
`},
		{"negative slice length", `
source:
  csv: a.csv
steps:
  - slice:
      offset: 0
      length: -1
`},
		{"negative limit", `
source:
  csv: a.csv
steps:
  - limit: -5
`},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParsePipelineRejectsMultiOpStep(t *testing.T) {
	_, err := Parse([]byte(`
source:
  csv: a.csv
steps:
  - filter: x > 1
    limit: 3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one operation")
}

func TestCompileRejectsBadExpression(t *testing.T) {
	spec, err := Parse([]byte(`
source:
  csv: a.csv
steps:
  - filter: income >
`))
	require.NoError(t, err)

	_, err = Compile(spec, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (filter)")
}

func TestCompileRejectsDescendingMismatch(t *testing.T) {
	spec, err := Parse([]byte(`
source:
  csv: a.csv
steps:
  - sort:
      by: [a, b]
      descending: [true]
`))
	require.NoError(t, err)

	_, err = Compile(spec, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descending")
}

func TestRunGroupBySummary(t *testing.T) {
	spec, err := Load("testdata/summary.yaml")
	require.NoError(t, err)

	plan, err := Compile(spec, "testdata")
	require.NoError(t, err)

	out, err := plan.Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "total", "n"}, out.ColumnNames())
	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, []value.Value{value.Str("West"), value.Int(400), value.Int(2)}, out.Row(0))
	assert.Equal(t, []value.Value{value.Str("East"), value.Int(200), value.Int(1)}, out.Row(1))
}

func TestRunJoinAndLimit(t *testing.T) {
	spec, err := Load("testdata/enrich.yaml")
	require.NoError(t, err)

	plan, err := Compile(spec, "testdata")
	require.NoError(t, err)

	out, err := plan.Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "income", "double", "capital"}, out.ColumnNames())
	assert.Equal(t, 3, out.NumRows())

	// Sorted ascending by income; North has no capital.
	assert.Equal(t, []value.Value{value.Str("North"), value.Int(50), value.Int(100), value.Null{}}, out.Row(0))
	assert.Equal(t, []value.Value{value.Str("West"), value.Int(100), value.Int(200), value.Str("Denver")}, out.Row(1))
	assert.Equal(t, []value.Value{value.Str("East"), value.Int(200), value.Int(400), value.Str("Boston")}, out.Row(2))
}

func TestRunMissingSource(t *testing.T) {
	spec, err := Parse([]byte(`
source:
  csv: nope.csv
steps: []
`))
	require.NoError(t, err)

	plan, err := Compile(spec, t.TempDir())
	require.NoError(t, err)

	_, err = plan.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load source")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/absent.yaml")
	require.Error(t, err)
}
