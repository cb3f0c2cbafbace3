package distributor_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/coregrid/internal/distributor"
	"github.com/specialistvlad/coregrid/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProcessor builds a processor with one empty process per core.
func newProcessor(t *testing.T, cores int) *topology.Processor {
	t.Helper()
	list := make([]*topology.Core, cores)
	for i := range list {
		proc, err := topology.NewProcess(topology.ProcessSpec{Name: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
		list[i], err = topology.NewCore(fmt.Sprintf("c%d", i), proc)
		require.NoError(t, err)
	}
	limit := cores
	if limit == 0 {
		limit = 1
	}
	p, err := topology.NewProcessor("cpu", list, limit)
	require.NoError(t, err)
	return p
}

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("t%d", i)
	}
	return out
}

func sequences(a *distributor.Assignment) [][]string {
	out := make([][]string, len(a.Cores()))
	for i := range out {
		out[i] = a.At(i)
	}
	return out
}

func TestDistribute_RoundRobinLiteral(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, 2)
	a, err := distributor.Distribute(names(5), p, distributor.RoundRobin{})
	require.NoError(t, err)

	want := [][]string{{"t0", "t2", "t4"}, {"t1", "t3"}}
	if diff := cmp.Diff(want, sequences(a)); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, distributor.PolicyRoundRobin, a.Policy())
}

func TestDistribute_NilPolicyIsRoundRobin(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, 3)
	a, err := distributor.Distribute(names(4), p, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"t0", "t3"}, {"t1"}, {"t2"}}, sequences(a))
}

// Every policy must place each thread exactly once and keep the input order
// of threads sharing a core.
func TestDistribute_TotalAndStable(t *testing.T) {
	t.Parallel()

	policies := []distributor.Policy{
		distributor.RoundRobin{},
		distributor.LoadAware{Weights: map[string]int{"t1": 4, "t6": 2}},
		distributor.Affinity{Pins: map[string]int{"t2": 0, "t5": 0}},
		distributor.Affinity{Pins: map[string]int{"t3": 0}, Fallback: distributor.LoadAware{}},
	}

	for _, policy := range policies {
		for cores := 1; cores <= 4; cores++ {
			for threads := 6; threads <= 11; threads++ {
				name := fmt.Sprintf("%s/%d cores/%d threads", policy.Name(), cores, threads)
				t.Run(name, func(t *testing.T) {
					t.Parallel()
					input := names(threads)
					a, err := distributor.Distribute(input, newProcessor(t, cores), policy)
					require.NoError(t, err)

					position := make(map[string]int, len(input))
					for i, th := range input {
						position[th] = i
					}
					seen := make(map[string]int)
					for _, seq := range sequences(a) {
						for k, th := range seq {
							seen[th]++
							if k > 0 {
								assert.Less(t, position[seq[k-1]], position[th], "order broken on a core")
							}
						}
					}
					assert.Len(t, seen, len(input))
					for th, n := range seen {
						assert.Equal(t, 1, n, "thread %s placed %d times", th, n)
					}
				})
			}
		}
	}
}

func TestDistribute_EmptyInputs(t *testing.T) {
	t.Parallel()

	t.Run("no threads", func(t *testing.T) {
		t.Parallel()
		a, err := distributor.Distribute(nil, newProcessor(t, 3), nil)
		require.NoError(t, err)
		for i := range 3 {
			assert.NotNil(t, a.At(i))
			assert.Empty(t, a.At(i))
		}
	})

	t.Run("no cores", func(t *testing.T) {
		t.Parallel()
		_, err := distributor.Distribute(names(2), newProcessor(t, 0), nil)
		require.ErrorIs(t, err, topology.ErrEmptyProcessor)
	})

	t.Run("no cores and no threads", func(t *testing.T) {
		t.Parallel()
		a, err := distributor.Distribute(nil, newProcessor(t, 0), nil)
		require.NoError(t, err)
		assert.Empty(t, a.Cores())
	})

	t.Run("nil processor", func(t *testing.T) {
		t.Parallel()
		_, err := distributor.Distribute(names(1), nil, nil)
		var mismatch *topology.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
	})
}

func TestLoadAware(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, 2)

	a, err := distributor.Distribute([]string{"a", "b", "c", "d"}, p, distributor.LoadAware{Weights: map[string]int{"a": 3}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b", "c", "d"}}, sequences(a))

	uniform, err := distributor.Distribute(names(7), p, distributor.LoadAware{})
	require.NoError(t, err)
	rr, err := distributor.Distribute(names(7), p, distributor.RoundRobin{})
	require.NoError(t, err)
	assert.Equal(t, sequences(rr), sequences(uniform))

	_, err = distributor.Distribute([]string{"a"}, p, distributor.LoadAware{Weights: map[string]int{"a": 0}})
	var placement *distributor.PlacementError
	require.ErrorAs(t, err, &placement)
	assert.Equal(t, distributor.PolicyLoadAware, placement.Policy)

	_, err = distributor.Distribute([]string{"a"}, p, distributor.LoadAware{DefaultWeight: -1})
	require.ErrorAs(t, err, &placement)
}

func TestAffinity(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, 2)

	a, err := distributor.Distribute([]string{"a", "b", "c", "d"}, p, distributor.Affinity{Pins: map[string]int{"c": 0}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "c", "d"}, {"b"}}, sequences(a))

	cases := []struct {
		name string
		pins map[string]int
	}{
		{"core out of range", map[string]int{"a": 2}},
		{"negative core", map[string]int{"a": -1}},
		{"undeclared thread", map[string]int{"zz": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := distributor.Distribute([]string{"a", "b"}, p, distributor.Affinity{Pins: tc.pins})
			var placement *distributor.PlacementError
			require.ErrorAs(t, err, &placement)
			assert.Equal(t, distributor.PolicyAffinity, placement.Policy)
		})
	}
}

// shortPolicy places only the first thread.
type shortPolicy struct{}

func (shortPolicy) Name() string { return "short" }

func (shortPolicy) Place([]string, *topology.Processor) ([]int, error) { return []int{0}, nil }

// wildPolicy places every thread on a core that does not exist.
type wildPolicy struct{}

func (wildPolicy) Name() string { return "wild" }

func (wildPolicy) Place(threads []string, _ *topology.Processor) ([]int, error) {
	idx := make([]int, len(threads))
	for i := range idx {
		idx[i] = 99
	}
	return idx, nil
}

func TestDistribute_RejectsBrokenPolicies(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, 2)
	for _, policy := range []distributor.Policy{shortPolicy{}, wildPolicy{}} {
		_, err := distributor.Distribute(names(3), p, policy)
		var placement *distributor.PlacementError
		require.ErrorAs(t, err, &placement, policy.Name())
		assert.Equal(t, policy.Name(), placement.Policy)
	}
}

func TestByName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", distributor.PolicyRoundRobin, false},
		{"round_robin", distributor.PolicyRoundRobin, false},
		{" Load_Aware ", distributor.PolicyLoadAware, false},
		{"affinity", distributor.PolicyAffinity, false},
		{"random", "", true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.name), func(t *testing.T) {
			t.Parallel()
			policy, err := distributor.ByName(tc.name, distributor.Options{})
			if tc.wantErr {
				require.ErrorContains(t, err, "unknown distribution policy")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, policy.Name())
		})
	}

	policy, err := distributor.ByName("affinity", distributor.Options{Pins: map[string]int{"t1": 1}})
	require.NoError(t, err)
	a, err := distributor.Distribute(names(2), newProcessor(t, 2), policy)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"t0"}, {"t1"}}, sequences(a))
}

func TestAssignment_Accessors(t *testing.T) {
	t.Parallel()

	p := newProcessor(t, 2)
	a, err := distributor.Distribute(names(3), p, nil)
	require.NoError(t, err)

	cores := p.Cores()
	assert.Equal(t, []string{"t0", "t2"}, a.Threads(cores[0]))
	assert.Nil(t, a.Threads(newProcessor(t, 1).Cores()[0]))

	m := a.Map()
	require.Len(t, m, 2)
	assert.Equal(t, []string{"t1"}, m[cores[1]])

	// Returned slices are copies.
	got := a.At(0)
	got[0] = "mutated"
	assert.Equal(t, "t0", a.At(0)[0])
}

func TestThreads_QualifiedNames(t *testing.T) {
	t.Parallel()

	named, err := topology.NewProcess(topology.ProcessSpec{Name: "blink", Threads: []string{"main"}})
	require.NoError(t, err)
	anon, err := topology.NewProcess(topology.ProcessSpec{IPCEnabled: true})
	require.NoError(t, err)
	c0, err := topology.NewCore("c0", named)
	require.NoError(t, err)
	c1, err := topology.NewCore("c1", anon)
	require.NoError(t, err)
	p, err := topology.NewProcessor("cpu", []*topology.Core{c0, c1}, 8)
	require.NoError(t, err)

	assert.Equal(t, []string{"blink.main", "blink.idle", "core1.idle", "core1.ipc"}, distributor.Threads(p))
}
