package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/coregrid/internal/ctxlog"
	"github.com/specialistvlad/coregrid/internal/distributor"
	"github.com/specialistvlad/coregrid/internal/family"
	"github.com/specialistvlad/coregrid/internal/topology"
)

// SourceError ties a topology violation to the block that declared it.
type SourceError struct {
	Range hcl.Range
	Err   error
}

func (e *SourceError) Error() string { return e.Err.Error() }
func (e *SourceError) Unwrap() error { return e.Err }

func atBlock(rng hcl.Range, err error) error {
	return &SourceError{Range: rng, Err: err}
}

// builder assembles one application block bottom-up. Every entity it
// registers is remembered so a failed build can be rolled back.
type builder struct {
	catalog    *family.Catalog
	registry   *topology.Registry
	registered []string
	warnings   []topology.ConfigOverrideWarning
	policies   map[*topology.Processor]distributor.Policy
}

func (b *builder) register(ctx context.Context, path string, e topology.Entity) error {
	if err := b.registry.Add(ctx, path, e); err != nil {
		return err
	}
	b.registered = append(b.registered, path)
	return nil
}

// rollback unregisters everything this build registered, newest first.
func (b *builder) rollback(ctx context.Context) {
	for i := len(b.registered) - 1; i >= 0; i-- {
		b.registry.Remove(ctx, b.registered[i])
	}
	ctxlog.FromContext(ctx).Debug("Rolled back partial topology.", "entities", len(b.registered))
	b.registered = nil
}

func (b *builder) build(ctx context.Context, ab *applicationBlock) (*topology.Application, error) {
	boards := make([]*topology.Board, 0, len(ab.Boards))
	for _, bb := range ab.Boards {
		board, err := b.buildBoard(ctx, ab.Name, bb)
		if err != nil {
			return nil, fmt.Errorf("application %q: %w", ab.Name, err)
		}
		boards = append(boards, board)
	}

	app, err := topology.NewApplication(ab.Name, boards)
	if err != nil {
		return nil, atBlock(ab.DefRange, fmt.Errorf("application %q: %w", ab.Name, err))
	}
	if err := b.register(ctx, ab.Name, app); err != nil {
		return nil, atBlock(ab.DefRange, err)
	}
	return app, nil
}

func (b *builder) buildBoard(ctx context.Context, parent string, bb *boardBlock) (*topology.Board, error) {
	path := topology.JoinPath(parent, bb.Name)

	allowed := bb.MemorySizes
	defaultProcFamily := ""
	if bb.Family != "" {
		bf, ok := b.catalog.Board(bb.Family)
		if !ok {
			return nil, atBlock(bb.DefRange, fmt.Errorf("board %q: unknown board family %q", bb.Name, bb.Family))
		}
		if len(bb.MemorySizes) > 0 {
			return nil, atBlock(bb.DefRange, fmt.Errorf("board %q: memory_sizes cannot be set together with family %q", bb.Name, bb.Family))
		}
		allowed = bf.MemorySizes
		defaultProcFamily = bf.ProcessorFamily
	} else if len(allowed) == 0 {
		return nil, atBlock(bb.DefRange, fmt.Errorf("board %q: either family or memory_sizes is required", bb.Name))
	}

	processors := make([]*topology.Processor, 0, len(bb.Processors))
	for _, pb := range bb.Processors {
		proc, err := b.buildProcessor(ctx, path, defaultProcFamily, pb)
		if err != nil {
			return nil, fmt.Errorf("board %q: %w", bb.Name, err)
		}
		processors = append(processors, proc)
	}

	board, err := topology.NewBoard(bb.Name, processors, bb.MemorySize, allowed, topology.WithBoardFamily(bb.Family))
	if err != nil {
		return nil, atBlock(bb.DefRange, fmt.Errorf("board %q: %w", bb.Name, err))
	}
	if err := b.register(ctx, path, board); err != nil {
		return nil, atBlock(bb.DefRange, err)
	}
	return board, nil
}

func (b *builder) buildProcessor(ctx context.Context, parent, defaultFamily string, pb *processorBlock) (*topology.Processor, error) {
	path := topology.JoinPath(parent, pb.Name)

	familyName := pb.Family
	if familyName == "" {
		familyName = defaultFamily
	}

	var opts []topology.ProcessorOption
	coreLimit := 0
	if familyName != "" {
		pf, ok := b.catalog.Processor(familyName)
		if !ok {
			return nil, atBlock(pb.DefRange, fmt.Errorf("processor %q: unknown processor family %q", pb.Name, familyName))
		}
		coreLimit = pf.CoreLimit
		opts = append(opts, topology.WithFamily(pf.Name))
		if !pf.Compiler.IsZero() {
			opts = append(opts, topology.WithCompilerOverride(pf.Compiler))
		}
	}
	if pb.CoreLimit != nil {
		if coreLimit > 0 && *pb.CoreLimit > coreLimit {
			return nil, atBlock(pb.DefRange, fmt.Errorf("processor %q: core_limit %d exceeds the %d cores of family %q", pb.Name, *pb.CoreLimit, coreLimit, familyName))
		}
		coreLimit = *pb.CoreLimit
	}
	if coreLimit == 0 {
		return nil, atBlock(pb.DefRange, fmt.Errorf("processor %q: either family or core_limit is required", pb.Name))
	}

	cores := make([]*topology.Core, 0, len(pb.Cores))
	for _, cb := range pb.Cores {
		core, err := b.buildCore(ctx, path, cb)
		if err != nil {
			return nil, fmt.Errorf("processor %q: %w", pb.Name, err)
		}
		cores = append(cores, core)
	}

	proc, err := topology.NewProcessor(pb.Name, cores, coreLimit, opts...)
	if err != nil {
		return nil, atBlock(pb.DefRange, fmt.Errorf("processor %q: %w", pb.Name, err))
	}
	b.warnings = append(b.warnings, proc.Warnings()...)

	if pb.Compiler != nil {
		cfg, err := compilerConfig(pb.Compiler)
		if err != nil {
			return nil, atBlock(pb.DefRange, fmt.Errorf("processor %q: %w", pb.Name, err))
		}
		b.warnings = append(b.warnings, proc.ApplyCompilerOverride(cfg)...)
	}

	if pb.Scheduler != nil {
		policy, err := distributor.ByName(pb.Scheduler.Policy, distributor.Options{
			Weights: pb.Scheduler.Weights,
			Pins:    pb.Scheduler.Pins,
		})
		if err != nil {
			return nil, atBlock(pb.DefRange, fmt.Errorf("processor %q: %w", pb.Name, err))
		}
		b.policies[proc] = policy
	}

	if err := b.register(ctx, path, proc); err != nil {
		return nil, atBlock(pb.DefRange, err)
	}
	return proc, nil
}

func (b *builder) buildCore(ctx context.Context, parent string, cb *coreBlock) (*topology.Core, error) {
	path := topology.JoinPath(parent, cb.Name)

	var proc *topology.Process
	if cb.Process != nil {
		var err error
		proc, err = b.buildProcess(ctx, path, cb.Process)
		if err != nil {
			return nil, fmt.Errorf("core %q: %w", cb.Name, err)
		}
	}

	core, err := topology.NewCore(cb.Name, proc)
	if err != nil {
		return nil, atBlock(cb.DefRange, fmt.Errorf("core %q: %w", cb.Name, err))
	}
	if err := b.register(ctx, path, core); err != nil {
		return nil, atBlock(cb.DefRange, err)
	}
	return core, nil
}

func (b *builder) buildProcess(ctx context.Context, parent string, pb *processBlock) (*topology.Process, error) {
	path := topology.JoinPath(parent, pb.Name)

	cfg, err := compilerConfig(pb.Compiler)
	if err != nil {
		return nil, atBlock(pb.DefRange, fmt.Errorf("process %q: %w", pb.Name, err))
	}

	ports, err := buildPorts(pb.Ports)
	if err != nil {
		return nil, atBlock(pb.DefRange, fmt.Errorf("process %q: %w", pb.Name, err))
	}
	mempools, err := buildPorts(pb.Mempools)
	if err != nil {
		return nil, atBlock(pb.DefRange, fmt.Errorf("process %q: %w", pb.Name, err))
	}

	drivers := make([]topology.Driver, 0, len(pb.Drivers))
	for _, db := range pb.Drivers {
		d, err := topology.NewDriver(topology.DriverSpec{
			Name:    db.Name,
			Boot:    db.Boot,
			Main:    db.Main,
			Exit:    db.Exit,
			Files:   db.Files,
			Ports:   db.Ports,
			Version: db.Version,
		})
		if err != nil {
			return nil, atBlock(pb.DefRange, fmt.Errorf("process %q: %w", pb.Name, err))
		}
		drivers = append(drivers, d)
	}

	proc, err := topology.NewProcess(topology.ProcessSpec{
		Name:            pb.Name,
		Compiler:        cfg,
		Drivers:         drivers,
		Files:           pb.Files,
		IPCEnabled:      pb.IPC,
		Mempools:        mempools,
		Ports:           ports,
		Threads:         pb.Threads,
		Includes:        pb.Includes,
		StaticScheduler: pb.StaticScheduler,
	})
	if err != nil {
		return nil, atBlock(pb.DefRange, fmt.Errorf("process %q: %w", pb.Name, err))
	}
	if err := b.register(ctx, path, proc); err != nil {
		return nil, atBlock(pb.DefRange, err)
	}
	return proc, nil
}

func buildPorts(blocks []*portBlock) ([]topology.Port, error) {
	ports := make([]topology.Port, 0, len(blocks))
	for _, pb := range blocks {
		p, err := topology.NewPort(pb.Name, pb.Capacity)
		if err != nil {
			return nil, err
		}
		ports = append(ports, p)
	}
	return ports, nil
}

// compilerConfig converts a compiler block, keeping absent attributes unset.
// A nil block yields the zero config.
func compilerConfig(cb *compilerBlock) (topology.CompilerConfig, error) {
	if cb == nil {
		return topology.CompilerConfig{}, nil
	}
	var opts []topology.CompilerOption
	if cb.Base != nil {
		opts = append(opts, topology.WithBase(*cb.Base))
	}
	if cb.Includes != nil {
		opts = append(opts, topology.WithIncludes(*cb.Includes...))
	}
	if cb.IncludeFlag != nil {
		opts = append(opts, topology.WithIncludeFlag(*cb.IncludeFlag))
	}
	if cb.ExecutableName != nil {
		opts = append(opts, topology.WithExecutableName(*cb.ExecutableName))
	}
	if cb.Options != nil {
		opts = append(opts, topology.WithOptions(*cb.Options...))
	}
	return topology.NewCompilerConfig(opts...)
}
