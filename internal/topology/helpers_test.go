package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustCompiler(t *testing.T, opts ...CompilerOption) CompilerConfig {
	t.Helper()
	cfg, err := NewCompilerConfig(opts...)
	require.NoError(t, err)
	return cfg
}

func mustProcess(t *testing.T, spec ProcessSpec) *Process {
	t.Helper()
	p, err := NewProcess(spec)
	require.NoError(t, err)
	return p
}

func mustCore(t *testing.T, name string, p *Process) *Core {
	t.Helper()
	c, err := NewCore(name, p)
	require.NoError(t, err)
	return c
}

// mustCores builds n cores, each running a fresh process named <prefix><i>.
func mustCores(t *testing.T, prefix string, n int, compiler CompilerConfig) []*Core {
	t.Helper()
	cores := make([]*Core, n)
	for i := range cores {
		name := prefix + string(rune('a'+i))
		cores[i] = mustCore(t, name, mustProcess(t, ProcessSpec{Name: name, Compiler: compiler}))
	}
	return cores
}

func mustProcessor(t *testing.T, name string, cores []*Core, limit int, opts ...ProcessorOption) *Processor {
	t.Helper()
	p, err := NewProcessor(name, cores, limit, opts...)
	require.NoError(t, err)
	return p
}

func mustBoard(t *testing.T, name string, processors ...*Processor) *Board {
	t.Helper()
	b, err := NewBoard(name, processors, 5, []int{1, 5, 12})
	require.NoError(t, err)
	return b
}
