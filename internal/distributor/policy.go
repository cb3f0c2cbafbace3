package distributor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/coregrid/internal/topology"
)

// Policy names accepted by ByName.
const (
	PolicyRoundRobin = "round_robin"
	PolicyLoadAware  = "load_aware"
	PolicyAffinity   = "affinity"
)

// Policy decides the core index of every thread.
type Policy interface {
	// Name identifies the policy in configuration and plans.
	Name() string
	// Place returns one core index per thread, in thread order.
	Place(threads []string, p *topology.Processor) ([]int, error)
}

// PlacementError reports a policy that cannot place the given threads.
type PlacementError struct {
	Policy string
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("%s placement failed: %s", e.Policy, e.Reason)
}

// RoundRobin assigns the i-th thread to core i mod len(cores).
type RoundRobin struct{}

func (RoundRobin) Name() string { return PolicyRoundRobin }

func (RoundRobin) Place(threads []string, p *topology.Processor) ([]int, error) {
	n := len(p.Cores())
	if n == 0 && len(threads) > 0 {
		return nil, topology.ErrEmptyProcessor
	}
	idx := make([]int, len(threads))
	for i := range threads {
		idx[i] = i % n
	}
	return idx, nil
}

// LoadAware assigns each thread, in input order, to the core with the lowest
// accumulated weight so far. Ties go to the lowest core index. Threads absent
// from Weights weigh DefaultWeight, or 1 when that is unset. With uniform
// weights the result equals RoundRobin.
type LoadAware struct {
	Weights       map[string]int
	DefaultWeight int
}

func (LoadAware) Name() string { return PolicyLoadAware }

func (l LoadAware) Place(threads []string, p *topology.Processor) ([]int, error) {
	def := l.DefaultWeight
	if def == 0 {
		def = 1
	}
	if def < 0 {
		return nil, &PlacementError{Policy: PolicyLoadAware, Reason: fmt.Sprintf("default weight must be positive, got %d", def)}
	}
	for _, name := range sortedKeys(l.Weights) {
		if w := l.Weights[name]; w <= 0 {
			return nil, &PlacementError{Policy: PolicyLoadAware, Reason: fmt.Sprintf("weight of %q must be positive, got %d", name, w)}
		}
	}

	loads := make([]int, len(p.Cores()))
	if len(loads) == 0 && len(threads) > 0 {
		return nil, topology.ErrEmptyProcessor
	}
	idx := make([]int, len(threads))
	for i, t := range threads {
		best := 0
		for c := 1; c < len(loads); c++ {
			if loads[c] < loads[best] {
				best = c
			}
		}
		w, ok := l.Weights[t]
		if !ok {
			w = def
		}
		loads[best] += w
		idx[i] = best
	}
	return idx, nil
}

// Affinity pins threads to fixed core indices and hands the remaining
// threads, in input order, to Fallback (RoundRobin when nil). Every pinned
// thread must be present in the input.
type Affinity struct {
	Pins     map[string]int
	Fallback Policy
}

func (Affinity) Name() string { return PolicyAffinity }

func (a Affinity) Place(threads []string, p *topology.Processor) ([]int, error) {
	n := len(p.Cores())
	present := make(map[string]struct{}, len(threads))
	for _, t := range threads {
		present[t] = struct{}{}
	}
	for _, name := range sortedKeys(a.Pins) {
		core := a.Pins[name]
		if core < 0 || core >= n {
			return nil, &PlacementError{Policy: PolicyAffinity, Reason: fmt.Sprintf("thread %q pinned to core %d, processor has %d cores", name, core, n)}
		}
		if _, ok := present[name]; !ok {
			return nil, &PlacementError{Policy: PolicyAffinity, Reason: fmt.Sprintf("pinned thread %q is not declared", name)}
		}
	}

	fallback := a.Fallback
	if fallback == nil {
		fallback = RoundRobin{}
	}

	idx := make([]int, len(threads))
	var rest []string
	var restPos []int
	for i, t := range threads {
		if core, ok := a.Pins[t]; ok {
			idx[i] = core
			continue
		}
		rest = append(rest, t)
		restPos = append(restPos, i)
	}
	if len(rest) == 0 {
		return idx, nil
	}
	restIdx, err := fallback.Place(rest, p)
	if err != nil {
		return nil, err
	}
	if len(restIdx) != len(rest) {
		return nil, &PlacementError{Policy: PolicyAffinity, Reason: fmt.Sprintf("fallback %s placed %d of %d threads", fallback.Name(), len(restIdx), len(rest))}
	}
	for k, pos := range restPos {
		idx[pos] = restIdx[k]
	}
	return idx, nil
}

// Options carries the tunables of the named policies.
type Options struct {
	Weights map[string]int
	Pins    map[string]int
}

// ByName returns the policy registered under name. An empty name selects
// round-robin.
func ByName(name string, opts Options) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyRoundRobin:
		return RoundRobin{}, nil
	case PolicyLoadAware:
		return LoadAware{Weights: opts.Weights}, nil
	case PolicyAffinity:
		return Affinity{Pins: opts.Pins}, nil
	default:
		return nil, fmt.Errorf("unknown distribution policy %q: must be one of %s, %s, %s", name, PolicyRoundRobin, PolicyLoadAware, PolicyAffinity)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
