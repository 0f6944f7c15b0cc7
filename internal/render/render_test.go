package render

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/value"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRenderBasic(t *testing.T) {
	tbl, err := frame.NewTable(
		frame.Strs("region", "West", "East", "West"),
		frame.Ints("income", 100, 200, 300),
	)
	require.NoError(t, err)

	out := Render(tbl, Options{})
	golden(t).Assert(t, "basic", []byte(out))
}

func TestRenderElidesRows(t *testing.T) {
	tbl, err := frame.NewTable(frame.Ints("x", 1, 2, 3, 4))
	require.NoError(t, err)

	// Head and tail halves show around the ellipsis row.
	out := Render(tbl, Options{MaxRows: 2})
	golden(t).Assert(t, "elided", []byte(out))

	// The shape line still reports the full row count.
	assert.True(t, strings.HasPrefix(out, "shape: (4, 1)\n"))
}

func TestRenderElideSingleRowCap(t *testing.T) {
	tbl, err := frame.NewTable(frame.Ints("x", 1, 2, 3))
	require.NoError(t, err)

	// With a cap of one, only the head row fits; the ellipsis trails.
	out := Render(tbl, Options{MaxRows: 1})
	assert.Contains(t, out, "|   1 |")
	assert.Contains(t, out, "| ... |")
	assert.NotContains(t, out, "|   2 |")
	assert.NotContains(t, out, "|   3 |")
}

func TestRenderWideRunes(t *testing.T) {
	tbl, err := frame.NewTable(frame.Strs("city", "東京", "NY"))
	require.NoError(t, err)

	out := Render(tbl, Options{})
	golden(t).Assert(t, "wide", []byte(out))
}

func TestRenderMissingValues(t *testing.T) {
	tbl, err := frame.NewTable(
		frame.NewSeries("x", []value.Value{value.Int(1), value.Null{}}),
	)
	require.NoError(t, err)

	out := Render(tbl, Options{})
	golden(t).Assert(t, "missing", []byte(out))
}

func TestRenderMixedKindColumn(t *testing.T) {
	tbl, err := frame.NewTable(
		frame.NewSeries("m", []value.Value{value.Int(1), value.Str("a")}),
	)
	require.NoError(t, err)

	out := Render(tbl, Options{})
	assert.Contains(t, out, "mixed")
}

func TestRenderEmptyTable(t *testing.T) {
	tbl, err := frame.NewTable(frame.Strs("region"), frame.Ints("income"))
	require.NoError(t, err)

	out := Render(tbl, Options{})
	assert.True(t, strings.HasPrefix(out, "shape: (0, 2)\n"))
	assert.Contains(t, out, "| region | income |")
}
