// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Process, the unit of execution bound to one Core.
//
// Why reserve system threads?
//
// Every generated process image runs an idle loop, and processes that take
// part in inter-process communication also run a message pump. Both are
// emitted by the code generator like any other thread, so they are part of
// the thread list from the moment the Process exists. The ensure step is
// idempotent: the reserved names are appended only if absent.
package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved system thread names.
const (
	IdleThread = "idle"
	IPCThread  = "ipc"
)

// CoreQualifier is the prefix that qualifies the threads of an unnamed
// process with its core index, as in core1.idle.
const CoreQualifier = "core"

// CoreQualifierFor returns the thread qualifier of the unnamed process on
// core index i.
func CoreQualifierFor(i int) string { return CoreQualifier + strconv.Itoa(i) }

// IsCoreQualifier reports whether name has the form core<N>.
func IsCoreQualifier(name string) bool {
	digits, ok := strings.CutPrefix(name, CoreQualifier)
	if !ok || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ProcessSpec holds the raw fields of a Process before validation.
type ProcessSpec struct {
	Name       string
	Compiler   CompilerConfig
	Drivers    []Driver
	Files      []string
	IPCEnabled bool
	Mempools   []Port
	Ports      []Port
	Threads    []string
	Includes   []string
	// StaticScheduler is carried through to code generation untouched.
	StaticScheduler bool
}

// Process owns its drivers, ports and threads exclusively.
type Process struct {
	name            string
	compiler        CompilerConfig
	drivers         []Driver
	files           []string
	ipcEnabled      bool
	mempools        []Port
	ports           []Port
	threads         []string
	includes        []string
	staticScheduler bool

	core *Core
}

// NewProcess validates spec and returns the Process with its system threads
// in place.
func NewProcess(spec ProcessSpec) (*Process, error) {
	if spec.Name != "" && strings.TrimSpace(spec.Name) == "" {
		return nil, &InvalidProcessError{Field: "name", Reason: "must not be blank"}
	}
	if IsCoreQualifier(spec.Name) {
		return nil, &InvalidProcessError{Field: "name", Reason: fmt.Sprintf("%q is reserved for threads of unnamed processes", spec.Name)}
	}
	if err := requirePaths(spec.Files); err != nil {
		return nil, &InvalidProcessError{Field: "files", Reason: err.Error()}
	}
	if err := requirePaths(spec.Includes); err != nil {
		return nil, &InvalidProcessError{Field: "includes", Reason: err.Error()}
	}

	endpoints, err := validatePorts(spec.Ports, spec.Mempools)
	if err != nil {
		return nil, err
	}
	if err := validateDrivers(spec.Drivers, endpoints); err != nil {
		return nil, err
	}
	if err := validateThreads(spec.Threads); err != nil {
		return nil, err
	}

	p := &Process{
		name:            spec.Name,
		compiler:        spec.Compiler,
		drivers:         append([]Driver(nil), spec.Drivers...),
		files:           cloneStrings(spec.Files),
		ipcEnabled:      spec.IPCEnabled,
		mempools:        append([]Port(nil), spec.Mempools...),
		ports:           append([]Port(nil), spec.Ports...),
		threads:         cloneStrings(spec.Threads),
		includes:        cloneStrings(spec.Includes),
		staticScheduler: spec.StaticScheduler,
	}
	p.EnsureSystemThreads()
	return p, nil
}

// validatePorts checks ports and mempools and returns the set of names
// drivers may reference.
func validatePorts(ports, mempools []Port) (map[string]struct{}, error) {
	names := make(map[string]struct{}, len(ports)+len(mempools))
	check := func(field, kind string, list []Port) error {
		for i, p := range list {
			if p.name == "" || p.capacity <= 0 {
				return &InvalidProcessError{Field: field, Reason: fmt.Sprintf("element %d is not a constructed Port", i)}
			}
			if _, dup := names[p.name]; dup {
				return &DuplicateNameError{Kind: kind, Name: p.name}
			}
			names[p.name] = struct{}{}
		}
		return nil
	}
	if err := check("ports", "port", ports); err != nil {
		return nil, err
	}
	if err := check("mempools", "mempool", mempools); err != nil {
		return nil, err
	}
	return names, nil
}

func validateDrivers(drivers []Driver, endpoints map[string]struct{}) error {
	seen := make(map[string]struct{}, len(drivers))
	for i, d := range drivers {
		if d.name == "" {
			return &InvalidProcessError{Field: "drivers", Reason: fmt.Sprintf("element %d is not a constructed Driver", i)}
		}
		if _, dup := seen[d.name]; dup {
			return &DuplicateNameError{Kind: "driver", Name: d.name}
		}
		seen[d.name] = struct{}{}
		if len(d.files) == 0 {
			return &InvalidProcessError{Field: "drivers", Reason: fmt.Sprintf("driver %q has no source files", d.name)}
		}
		for _, ref := range d.ports {
			if _, ok := endpoints[ref]; !ok {
				return &InvalidProcessError{Field: "drivers", Reason: fmt.Sprintf("driver %q references unknown port %q", d.name, ref)}
			}
		}
	}
	return nil
}

func validateThreads(threads []string) error {
	seen := make(map[string]struct{}, len(threads))
	for i, t := range threads {
		if err := requireName(t); err != nil {
			return &InvalidProcessError{Field: "threads", Reason: fmt.Sprintf("element %d %s", i, err)}
		}
		if t == IdleThread || t == IPCThread {
			return &InvalidProcessError{Field: "threads", Reason: fmt.Sprintf("%q is a reserved system thread", t)}
		}
		if _, dup := seen[t]; dup {
			return &DuplicateNameError{Kind: "thread", Name: t}
		}
		seen[t] = struct{}{}
	}
	return nil
}

// EnsureSystemThreads appends the idle thread, and the ipc thread when IPC
// is enabled, unless they are already present.
func (p *Process) EnsureSystemThreads() {
	p.appendThreadOnce(IdleThread)
	if p.ipcEnabled {
		p.appendThreadOnce(IPCThread)
	}
}

func (p *Process) appendThreadOnce(name string) {
	for _, t := range p.threads {
		if t == name {
			return
		}
	}
	p.threads = append(p.threads, name)
}

// AppendIncludeFile adds a header to the process include list.
func (p *Process) AppendIncludeFile(name string) error {
	if err := requireName(name); err != nil {
		return &InvalidProcessError{Field: "includes", Reason: err.Error()}
	}
	p.includes = append(p.includes, name)
	return nil
}

// BindToCore records c as the Core running p. Binding again to the same
// Core is a no-op. A Core already running another Process is refused.
func (p *Process) BindToCore(c *Core) error {
	if c == nil {
		return &TypeMismatchError{Want: "*topology.Core", Got: "nil"}
	}
	if p.core != nil && p.core != c {
		return &AlreadyBoundError{Kind: "process", Name: p.name}
	}
	if c.process != nil && c.process != p {
		return &AlreadyBoundError{Kind: "core", Name: c.name}
	}
	p.core = c
	return nil
}

// applyCompilerOverride replaces the process compiler with the override
// merged on top of it.
func (p *Process) applyCompilerOverride(cfg CompilerConfig) []ConfigOverrideWarning {
	merged, warnings := p.compiler.OverrideWith(cfg)
	p.compiler = merged
	for i := range warnings {
		warnings[i].Process = p.name
	}
	return warnings
}

func (p *Process) Name() string             { return p.name }
func (p *Process) Compiler() CompilerConfig { return p.compiler }
func (p *Process) IPCEnabled() bool         { return p.ipcEnabled }
func (p *Process) StaticScheduler() bool    { return p.staticScheduler }
func (p *Process) Kind() string             { return "process" }

// Core returns the Core the process is bound to, or nil.
func (p *Process) Core() *Core { return p.core }

// Drivers returns a copy of the process drivers in declaration order.
func (p *Process) Drivers() []Driver { return append([]Driver(nil), p.drivers...) }

// Driver looks a driver up by name.
func (p *Process) Driver(name string) (Driver, bool) {
	for _, d := range p.drivers {
		if d.name == name {
			return d, true
		}
	}
	return Driver{}, false
}

// Ports returns a copy of the process ports in declaration order.
func (p *Process) Ports() []Port { return append([]Port(nil), p.ports...) }

// Mempools returns a copy of the process memory pools in declaration order.
func (p *Process) Mempools() []Port { return append([]Port(nil), p.mempools...) }

// Port looks a port or mempool up by name.
func (p *Process) Port(name string) (Port, bool) {
	for _, list := range [][]Port{p.ports, p.mempools} {
		for _, port := range list {
			if port.name == name {
				return port, true
			}
		}
	}
	return Port{}, false
}

// Threads returns a copy of the thread names, system threads last.
func (p *Process) Threads() []string { return cloneStrings(p.threads) }

// Files returns a copy of the process source files.
func (p *Process) Files() []string { return cloneStrings(p.files) }

// Includes returns a copy of the include files in insertion order.
func (p *Process) Includes() []string { return cloneStrings(p.includes) }
