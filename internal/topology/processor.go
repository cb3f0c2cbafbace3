// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package topology

import "fmt"

// ProcessorOption configures optional Processor attributes.
type ProcessorOption func(*Processor)

// WithFamily records the processor family name.
func WithFamily(name string) ProcessorOption {
	return func(p *Processor) { p.family = name }
}

// WithCompilerOverride applies cfg to every owned Process at construction,
// the way a concrete microcontroller family pins its toolchain.
func WithCompilerOverride(cfg CompilerConfig) ProcessorOption {
	return func(p *Processor) { p.override = &cfg }
}

// Processor owns one or more Cores, up to its family core limit.
type Processor struct {
	name      string
	family    string
	coreLimit int
	cores     []*Core
	board     *Board

	override *CompilerConfig
	warnings []ConfigOverrideWarning
}

// NewProcessor validates cores against coreLimit and takes ownership of
// them. A Processor may be declared without cores, but threads cannot be
// distributed onto it.
func NewProcessor(name string, cores []*Core, coreLimit int, opts ...ProcessorOption) (*Processor, error) {
	if coreLimit < 1 {
		return nil, &InvalidConfigError{Field: "core_limit", Reason: fmt.Sprintf("must be at least 1, got %d", coreLimit)}
	}
	if len(cores) > coreLimit {
		return nil, &CapacityExceededError{Have: len(cores), Limit: coreLimit}
	}

	seen := make(map[*Core]struct{}, len(cores))
	names := make(map[string]struct{}, len(cores))
	procs := make(map[string]struct{}, len(cores))
	for _, c := range cores {
		if c == nil || c.process == nil {
			return nil, &TypeMismatchError{Want: "*topology.Core", Got: "nil"}
		}
		if _, dup := seen[c]; dup || c.processor != nil {
			return nil, &AlreadyBoundError{Kind: "core", Name: c.name}
		}
		seen[c] = struct{}{}
		if c.name != "" {
			if _, dup := names[c.name]; dup {
				return nil, &DuplicateNameError{Kind: "core", Name: c.name}
			}
			names[c.name] = struct{}{}
		}
		// Process names qualify thread names and are unique per processor.
		if pn := c.process.name; pn != "" {
			if _, dup := procs[pn]; dup {
				return nil, &DuplicateNameError{Kind: "process", Name: pn}
			}
			procs[pn] = struct{}{}
		}
	}

	p := &Processor{
		name:      name,
		coreLimit: coreLimit,
		cores:     append([]*Core(nil), cores...),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, c := range p.cores {
		c.processor = p
	}
	if p.override != nil {
		p.ApplyCompilerOverride(*p.override)
	}
	return p, nil
}

// ApplyCompilerOverride merges cfg on top of every owned Process's compiler
// config, in core order. The warnings are returned and also retained.
func (p *Processor) ApplyCompilerOverride(cfg CompilerConfig) []ConfigOverrideWarning {
	var warnings []ConfigOverrideWarning
	for _, c := range p.cores {
		warnings = append(warnings, c.process.applyCompilerOverride(cfg)...)
	}
	p.warnings = append(p.warnings, warnings...)
	return warnings
}

// Processes returns the owned Processes in core order.
func (p *Processor) Processes() []*Process {
	out := make([]*Process, 0, len(p.cores))
	for _, c := range p.cores {
		out = append(out, c.process)
	}
	return out
}

// Cores returns a copy of the owned Cores.
func (p *Processor) Cores() []*Core { return append([]*Core(nil), p.cores...) }

// Warnings returns every override warning produced by this Processor.
func (p *Processor) Warnings() []ConfigOverrideWarning {
	return append([]ConfigOverrideWarning(nil), p.warnings...)
}

func (p *Processor) Name() string   { return p.name }
func (p *Processor) Family() string { return p.family }
func (p *Processor) CoreLimit() int { return p.coreLimit }
func (p *Processor) Board() *Board  { return p.board }
func (p *Processor) Kind() string   { return "processor" }
