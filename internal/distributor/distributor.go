package distributor

import (
	"fmt"

	"github.com/specialistvlad/coregrid/internal/topology"
)

// Assignment maps every Core of a Processor to its ordered thread sequence.
type Assignment struct {
	policy  string
	cores   []*topology.Core
	threads [][]string
}

// Distribute places threads onto the cores of p using policy, or round-robin
// when policy is nil.
func Distribute(threads []string, p *topology.Processor, policy Policy) (*Assignment, error) {
	if p == nil {
		return nil, &topology.TypeMismatchError{Want: "*topology.Processor", Got: "nil"}
	}
	if policy == nil {
		policy = RoundRobin{}
	}
	cores := p.Cores()
	a := &Assignment{
		policy:  policy.Name(),
		cores:   cores,
		threads: make([][]string, len(cores)),
	}
	for i := range a.threads {
		a.threads[i] = []string{}
	}
	if len(threads) == 0 {
		return a, nil
	}
	if len(cores) == 0 {
		return nil, topology.ErrEmptyProcessor
	}

	idx, err := policy.Place(threads, p)
	if err != nil {
		return nil, err
	}
	if len(idx) != len(threads) {
		return nil, &PlacementError{Policy: policy.Name(), Reason: fmt.Sprintf("placed %d of %d threads", len(idx), len(threads))}
	}
	for i, core := range idx {
		if core < 0 || core >= len(cores) {
			return nil, &PlacementError{Policy: policy.Name(), Reason: fmt.Sprintf("thread %q placed on core %d, processor has %d cores", threads[i], core, len(cores))}
		}
		a.threads[core] = append(a.threads[core], threads[i])
	}
	return a, nil
}

// Policy returns the name of the policy that produced the assignment.
func (a *Assignment) Policy() string { return a.policy }

// Cores returns the processor's cores in order.
func (a *Assignment) Cores() []*topology.Core { return append([]*topology.Core(nil), a.cores...) }

// Threads returns the threads assigned to c, or nil if c is not one of the
// processor's cores.
func (a *Assignment) Threads(c *topology.Core) []string {
	for i, core := range a.cores {
		if core == c {
			return append([]string{}, a.threads[i]...)
		}
	}
	return nil
}

// At returns the threads assigned to the i-th core.
func (a *Assignment) At(i int) []string {
	return append([]string{}, a.threads[i]...)
}

// Map returns the assignment as a Core-keyed map.
func (a *Assignment) Map() map[*topology.Core][]string {
	m := make(map[*topology.Core][]string, len(a.cores))
	for i, c := range a.cores {
		m[c] = append([]string{}, a.threads[i]...)
	}
	return m
}

// Threads flattens the threads of every process on p, in core order. Each
// name is qualified with its process name, or core<N> for unnamed processes,
// so threads of different processes never collide.
func Threads(p *topology.Processor) []string {
	var out []string
	for i, c := range p.Cores() {
		proc := c.Process()
		prefix := proc.Name()
		if prefix == "" {
			prefix = topology.CoreQualifierFor(i)
		}
		for _, t := range proc.Threads() {
			out = append(out, prefix+"."+t)
		}
	}
	return out
}
