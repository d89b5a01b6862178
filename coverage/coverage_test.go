package coverage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(startLine, endLine, numStmt, count int) Block {
	return Block{StartLine: startLine, StartCol: 1, EndLine: endLine, EndCol: 2, NumStmt: numStmt, Count: count}
}

func TestMerge_SetModeKeepsMax(t *testing.T) {
	a := NewMap()
	a.AddBlock("pkg/a.go", ModeSet, block(1, 3, 2, 1))
	a.AddBlock("pkg/a.go", ModeSet, block(5, 6, 1, 0))

	b := NewMap()
	b.AddBlock("pkg/a.go", ModeSet, block(1, 3, 2, 1))
	b.AddBlock("pkg/a.go", ModeSet, block(5, 6, 1, 1))

	a.Merge(b)

	blocks := a.File("pkg/a.go").Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Count)
	assert.Equal(t, 1, blocks[1].Count)
	assert.Equal(t, Summary{Statements: 3, Covered: 3}, a.Summary())
}

func TestMerge_CountModeSums(t *testing.T) {
	a := NewMap()
	a.AddBlock("pkg/a.go", ModeCount, block(1, 3, 2, 4))

	b := NewMap()
	b.AddBlock("pkg/a.go", ModeCount, block(1, 3, 2, 3))

	a.Merge(b)

	blocks := a.File("pkg/a.go").Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, 7, blocks[0].Count)
}

func TestMerge_OrderDoesNotMatter(t *testing.T) {
	sessionA := NewMap()
	sessionA.AddBlock("src/app.go", ModeCount, block(1, 2, 2, 1))
	sessionA.AddBlock("src/util.go", ModeCount, block(10, 12, 3, 0))

	sessionB := NewMap()
	sessionB.AddBlock("src/app.go", ModeCount, block(1, 2, 2, 5))
	sessionB.AddBlock("src/app.go", ModeCount, block(4, 4, 1, 0))
	sessionB.AddBlock("src/view.go", ModeCount, block(3, 9, 4, 2))

	ab := NewMap().Merge(sessionA).Merge(sessionB)
	ba := NewMap().Merge(sessionB).Merge(sessionA)

	assert.Equal(t, ab.Files(), ba.Files())
	assert.Equal(t, []string{"src/app.go", "src/util.go", "src/view.go"}, ab.Files())
	for _, path := range ab.Files() {
		assert.Equal(t, ab.File(path).Blocks(), ba.File(path).Blocks(), path)
	}
	assert.Equal(t, ab.Summary(), ba.Summary())
}

func TestMerge_DoesNotAliasSource(t *testing.T) {
	src := NewMap()
	src.AddBlock("a.go", ModeCount, block(1, 1, 1, 1))

	dst := NewMap().Merge(src)
	src.AddBlock("a.go", ModeCount, block(1, 1, 1, 10))

	assert.Equal(t, 1, dst.File("a.go").Blocks()[0].Count)
	assert.Equal(t, 11, src.File("a.go").Blocks()[0].Count)
}

func TestMerge_Nil(t *testing.T) {
	m := NewMap()
	m.AddBlock("a.go", ModeSet, block(1, 1, 1, 1))
	assert.Same(t, m, m.Merge(nil))
	assert.Equal(t, 1, m.Len())
}

func TestMerge_MixedModesCount(t *testing.T) {
	m := NewMap()
	m.AddBlock("a.go", ModeSet, block(1, 1, 1, 1))
	m.AddBlock("a.go", ModeCount, block(1, 1, 1, 3))

	assert.Equal(t, ModeCount, m.File("a.go").Mode)
	assert.Equal(t, 4, m.File("a.go").Blocks()[0].Count)
}

func TestSummary_Pct(t *testing.T) {
	assert.InDelta(t, 100.0, Summary{}.Pct(), 0.001)
	assert.InDelta(t, 50.0, Summary{Statements: 4, Covered: 2}.Pct(), 0.001)
	assert.Equal(t, Summary{Statements: 5, Covered: 3}, Summary{Statements: 4, Covered: 2}.Add(Summary{Statements: 1, Covered: 1}))
}

func TestUncoveredLines(t *testing.T) {
	m := NewMap()
	m.AddBlock("a.go", ModeSet, block(1, 2, 1, 1))
	m.AddBlock("a.go", ModeSet, block(3, 4, 1, 0))
	m.AddBlock("a.go", ModeSet, block(5, 5, 1, 0))
	m.AddBlock("a.go", ModeSet, block(9, 9, 1, 0))
	m.AddBlock("a.go", ModeSet, block(12, 12, 0, 0))

	ranges := m.File("a.go").UncoveredLines()
	assert.Equal(t, []LineRange{{Start: 3, End: 5}, {Start: 9, End: 9}}, ranges)
	assert.Equal(t, "3-5,9", formatRanges(ranges))
}

func TestUnmarshalJSON(t *testing.T) {
	raw := `{
		"mode": "count",
		"files": {
			"src/app.go": [
				{"startLine": 1, "startCol": 1, "endLine": 3, "endCol": 2, "numStmt": 2, "count": 3},
				{"startLine": 5, "startCol": 1, "endLine": 6, "endCol": 2, "numStmt": 1, "count": 0}
			]
		}
	}`

	m := NewMap()
	require.NoError(t, json.Unmarshal([]byte(raw), m))

	require.Equal(t, []string{"src/app.go"}, m.Files())
	f := m.File("src/app.go")
	assert.Equal(t, ModeCount, f.Mode)
	assert.Equal(t, Summary{Statements: 3, Covered: 2}, f.Summary())
}

func TestUnmarshalJSON_DefaultsToSetMode(t *testing.T) {
	m := NewMap()
	require.NoError(t, json.Unmarshal([]byte(`{"files":{"a.go":[{"startLine":1,"endLine":1,"numStmt":1,"count":1}]}}`), m))
	assert.Equal(t, ModeSet, m.File("a.go").Mode)
}

func TestUnmarshalJSON_RejectsUnknownMode(t *testing.T) {
	m := NewMap()
	err := json.Unmarshal([]byte(`{"mode":"branches","files":{}}`), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branches")
}

func TestMarshalJSON_UsesWidestMode(t *testing.T) {
	m := NewMap()
	m.AddBlock("a.go", ModeSet, block(1, 1, 1, 1))
	m.AddBlock("b.go", ModeAtomic, block(1, 1, 1, 2))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"atomic"`)
}
