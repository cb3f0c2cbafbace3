// Package plan turns an assembled topology into the build plan consumed by
// the code generator: for every core, the process it runs, the toolchain
// invocation for that process, and the thread table placed on the core.
package plan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/coregrid/internal/distributor"
	"github.com/specialistvlad/coregrid/internal/topology"
)

// Plan is the serialisable projection of an Application.
type Plan struct {
	ID          string   `json:"id" yaml:"id"`
	Application string   `json:"application" yaml:"application"`
	Boards      []Board  `json:"boards" yaml:"boards"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type Board struct {
	Name       string      `json:"name" yaml:"name"`
	Family     string      `json:"family,omitempty" yaml:"family,omitempty"`
	MemorySize int         `json:"memory_size" yaml:"memory_size"`
	Processors []Processor `json:"processors" yaml:"processors"`
}

type Processor struct {
	Name      string `json:"name" yaml:"name"`
	Family    string `json:"family,omitempty" yaml:"family,omitempty"`
	CoreLimit int    `json:"core_limit" yaml:"core_limit"`
	Policy    string `json:"policy" yaml:"policy"`
	Cores     []Core `json:"cores" yaml:"cores"`
}

type Core struct {
	Index   int      `json:"index" yaml:"index"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Process Process  `json:"process" yaml:"process"`
	Threads []string `json:"threads" yaml:"threads"`
}

type Process struct {
	Name            string    `json:"name,omitempty" yaml:"name,omitempty"`
	IPC             bool      `json:"ipc" yaml:"ipc"`
	StaticScheduler bool      `json:"static_scheduler" yaml:"static_scheduler"`
	Threads         []string  `json:"threads" yaml:"threads"`
	Files           []string  `json:"files,omitempty" yaml:"files,omitempty"`
	Includes        []string  `json:"includes,omitempty" yaml:"includes,omitempty"`
	Ports           []Port    `json:"ports,omitempty" yaml:"ports,omitempty"`
	Mempools        []Port    `json:"mempools,omitempty" yaml:"mempools,omitempty"`
	Drivers         []Driver  `json:"drivers,omitempty" yaml:"drivers,omitempty"`
	Toolchain       Toolchain `json:"toolchain" yaml:"toolchain"`
}

type Port struct {
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

type Driver struct {
	Name    string   `json:"name" yaml:"name"`
	Boot    string   `json:"boot" yaml:"boot"`
	Main    string   `json:"main" yaml:"main"`
	Exit    string   `json:"exit" yaml:"exit"`
	Files   []string `json:"files" yaml:"files"`
	Ports   []string `json:"ports,omitempty" yaml:"ports,omitempty"`
	Version int      `json:"version" yaml:"version"`
}

// Toolchain is the invocation assembled from a process compiler config.
// Command is the executable followed by the include and option arguments,
// and is empty when no executable is configured.
type Toolchain struct {
	Executable  string   `json:"executable,omitempty" yaml:"executable,omitempty"`
	Base        string   `json:"base,omitempty" yaml:"base,omitempty"`
	IncludeArgs []string `json:"include_args" yaml:"include_args"`
	OptionArgs  []string `json:"option_args" yaml:"option_args"`
	Command     []string `json:"command,omitempty" yaml:"command,omitempty"`
}

// PolicySource supplies the distribution policy of each processor.
type PolicySource interface {
	Policy(p *topology.Processor) distributor.Policy
}

// Option configures Build.
type Option func(*options)

type options struct {
	newID    func() string
	warnings []topology.ConfigOverrideWarning
}

// WithIDGenerator replaces the random plan identifier.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// WithWarnings records override warnings in the plan.
func WithWarnings(w []topology.ConfigOverrideWarning) Option {
	return func(o *options) { o.warnings = w }
}

// Build projects app into a Plan. Threads of each processor are placed with
// the policy from policies, or round-robin when policies is nil.
func Build(app *topology.Application, policies PolicySource, opts ...Option) (*Plan, error) {
	if app == nil {
		return nil, &topology.TypeMismatchError{Want: "*topology.Application", Got: "nil"}
	}
	o := options{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Plan{
		ID:          o.newID(),
		Application: app.Name(),
		Boards:      make([]Board, 0, len(app.Boards())),
	}
	for _, w := range o.warnings {
		p.Warnings = append(p.Warnings, w.String())
	}

	for _, b := range app.Boards() {
		board := Board{
			Name:       b.Name(),
			Family:     b.Family(),
			MemorySize: b.MemorySize(),
			Processors: make([]Processor, 0, len(b.Processors())),
		}
		for _, proc := range b.Processors() {
			var policy distributor.Policy
			if policies != nil {
				policy = policies.Policy(proc)
			}
			pp, err := buildProcessor(proc, policy)
			if err != nil {
				return nil, fmt.Errorf("board %q: %w", b.Name(), err)
			}
			board.Processors = append(board.Processors, pp)
		}
		p.Boards = append(p.Boards, board)
	}
	return p, nil
}

func buildProcessor(proc *topology.Processor, policy distributor.Policy) (Processor, error) {
	assignment, err := distributor.Distribute(distributor.Threads(proc), proc, policy)
	if err != nil {
		return Processor{}, fmt.Errorf("processor %q: %w", proc.Name(), err)
	}

	out := Processor{
		Name:      proc.Name(),
		Family:    proc.Family(),
		CoreLimit: proc.CoreLimit(),
		Policy:    assignment.Policy(),
		Cores:     make([]Core, 0, len(proc.Cores())),
	}
	for i, c := range proc.Cores() {
		pp, err := buildProcess(c.Process())
		if err != nil {
			return Processor{}, fmt.Errorf("processor %q core %d: %w", proc.Name(), i, err)
		}
		out.Cores = append(out.Cores, Core{
			Index:   i,
			Name:    c.Name(),
			Process: pp,
			Threads: assignment.At(i),
		})
	}
	return out, nil
}

func buildProcess(proc *topology.Process) (Process, error) {
	tc, err := buildToolchain(proc.Compiler())
	if err != nil {
		return Process{}, fmt.Errorf("process %q: %w", proc.Name(), err)
	}
	out := Process{
		Name:            proc.Name(),
		IPC:             proc.IPCEnabled(),
		StaticScheduler: proc.StaticScheduler(),
		Threads:         proc.Threads(),
		Files:           proc.Files(),
		Includes:        proc.Includes(),
		Ports:           ports(proc.Ports()),
		Mempools:        ports(proc.Mempools()),
		Toolchain:       tc,
	}
	for _, d := range proc.Drivers() {
		out.Drivers = append(out.Drivers, Driver{
			Name:    d.Name(),
			Boot:    d.EntryBoot(),
			Main:    d.EntryMain(),
			Exit:    d.EntryExit(),
			Files:   d.Files(),
			Ports:   d.Ports(),
			Version: d.Version(),
		})
	}
	return out, nil
}

func buildToolchain(cfg topology.CompilerConfig) (Toolchain, error) {
	includeArgs, err := cfg.AssembleIncludeArgs()
	if err != nil {
		return Toolchain{}, err
	}
	tc := Toolchain{
		IncludeArgs: includeArgs,
		OptionArgs:  cfg.AssembleOptionArgs(),
	}
	tc.Base, _ = cfg.Base()
	if exe, ok := cfg.ExecutableName(); ok {
		tc.Executable = exe
		tc.Command = append([]string{exe}, tc.IncludeArgs...)
		tc.Command = append(tc.Command, tc.OptionArgs...)
	}
	return tc, nil
}

func ports(in []topology.Port) []Port {
	if len(in) == 0 {
		return nil
	}
	out := make([]Port, len(in))
	for i, p := range in {
		out[i] = Port{Name: p.Name(), Capacity: p.Capacity()}
	}
	return out
}
