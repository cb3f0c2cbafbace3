package family

import (
	"testing"

	"github.com/specialistvlad/coregrid/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	c := Builtin()

	p8, ok := c.Processor("p8x32a")
	require.True(t, ok)
	assert.Equal(t, 8, p8.CoreLimit)
	exe, ok := p8.Compiler.ExecutableName()
	require.True(t, ok)
	assert.Equal(t, "catalina", exe)

	single, ok := c.Processor("single-core")
	require.True(t, ok)
	assert.Equal(t, 1, single.CoreLimit)
	assert.True(t, single.Compiler.IsZero())

	demo, ok := c.Board("propeller-demo")
	require.True(t, ok)
	assert.Equal(t, []int{1, 5, 12}, demo.MemorySizes)
	assert.Equal(t, "p8x32a", demo.ProcessorFamily)

	_, ok = c.Processor("x86")
	assert.False(t, ok)
}

func TestCatalog_ListsAreSorted(t *testing.T) {
	t.Parallel()

	var names []string
	for _, pf := range Builtin().ProcessorFamilies() {
		names = append(names, pf.Name)
	}
	assert.Equal(t, []string{"p8x32a", "single-core"}, names)
	assert.Len(t, Builtin().BoardFamilies(), 1)
}

func TestCatalog_BoardIsCopied(t *testing.T) {
	t.Parallel()

	c := Builtin()
	demo, _ := c.Board("propeller-demo")
	demo.MemorySizes[0] = 99

	again, _ := c.Board("propeller-demo")
	assert.Equal(t, []int{1, 5, 12}, again.MemorySizes)
}

func TestExtend(t *testing.T) {
	t.Parallel()

	base := Builtin()
	next, replaced, err := base.Extend(
		[]ProcessorFamily{
			{Name: "rp2040", CoreLimit: 2},
			{Name: "p8x32a", CoreLimit: 4},
		},
		[]BoardFamily{{Name: "pico", MemorySizes: []int{2}, ProcessorFamily: "rp2040"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"processor_family.p8x32a"}, replaced)

	rp, ok := next.Processor("rp2040")
	require.True(t, ok)
	assert.Equal(t, 2, rp.CoreLimit)

	p8, _ := next.Processor("p8x32a")
	assert.Equal(t, 4, p8.CoreLimit)

	// The receiver is unchanged.
	orig, _ := base.Processor("p8x32a")
	assert.Equal(t, 8, orig.CoreLimit)
	_, ok = base.Board("pico")
	assert.False(t, ok)
}

func TestExtend_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		processors []ProcessorFamily
		boards     []BoardFamily
		field      string
		dupKind    string
		contains   string
	}{
		{
			name:       "empty processor name",
			processors: []ProcessorFamily{{CoreLimit: 1}},
			field:      "processor_family",
		},
		{
			name:       "zero core limit",
			processors: []ProcessorFamily{{Name: "x", CoreLimit: 0}},
			field:      "core_limit",
		},
		{
			name:   "no memory sizes",
			boards: []BoardFamily{{Name: "b"}},
			field:  "memory_sizes",
		},
		{
			name:   "negative memory size",
			boards: []BoardFamily{{Name: "b", MemorySizes: []int{4, -1}}},
			field:  "memory_sizes",
		},
		{
			name:   "empty board name",
			boards: []BoardFamily{{MemorySizes: []int{1}}},
			field:  "board_family",
		},
		{
			name:       "processor declared twice",
			processors: []ProcessorFamily{{Name: "x", CoreLimit: 1}, {Name: "x", CoreLimit: 2}},
			dupKind:    "processor_family",
		},
		{
			name:    "board declared twice",
			boards:  []BoardFamily{{Name: "b", MemorySizes: []int{1}}, {Name: "b", MemorySizes: []int{2}}},
			dupKind: "board_family",
		},
		{
			name:     "unknown default processor family",
			boards:   []BoardFamily{{Name: "b", MemorySizes: []int{1}, ProcessorFamily: "nope"}},
			contains: `unknown processor family "nope"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			next, _, err := Builtin().Extend(tc.processors, tc.boards)
			require.Error(t, err)
			assert.Nil(t, next)
			switch {
			case tc.field != "":
				var cfgErr *topology.InvalidConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tc.field, cfgErr.Field)
			case tc.dupKind != "":
				var dup *topology.DuplicateNameError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, tc.dupKind, dup.Kind)
			default:
				assert.ErrorContains(t, err, tc.contains)
			}
		})
	}
}
