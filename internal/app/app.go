package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/coregrid/internal/ctxlog"
	"github.com/specialistvlad/coregrid/internal/family"
	"github.com/specialistvlad/coregrid/internal/hcl"
	"github.com/specialistvlad/coregrid/internal/plan"
	"github.com/specialistvlad/coregrid/internal/topology"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	registry  *topology.Registry
	inventory *topology.Inventory
	catalog   *family.Catalog
	newPlanID func() string
}

// Option customises an App, mainly for tests.
type Option func(*App)

// WithCatalog replaces the built-in family catalog.
func WithCatalog(c *family.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// WithPlanIDGenerator replaces the random plan identifier.
func WithPlanIDGenerator(fn func() string) Option {
	return func(a *App) { a.newPlanID = fn }
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. Each App owns its logger and entity registry.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg, logW)
	logger.Debug("Logger configured successfully.")

	inventory := topology.NewInventory()
	a := &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		registry:  topology.NewRegistry(topology.LogExtension{}, inventory),
		inventory: inventory,
		catalog:   family.Builtin(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the application's entity registry. This is primarily for testing.
func (a *App) Registry() *topology.Registry {
	return a.registry
}

// Inventory returns the entity counts gathered while loading.
func (a *App) Inventory() *topology.Inventory {
	return a.inventory
}

func (a *App) load(ctx context.Context) (*hcl.Result, error) {
	loader := hcl.NewLoader(
		hcl.WithCatalog(a.catalog),
		hcl.WithRegistry(a.registry),
		hcl.WithVariables(a.config.Variables),
	)
	result, err := loader.Load(ctx, a.config.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}
	return result, nil
}

// Validate loads the topology and reports a summary of what it contains.
func (a *App) Validate(ctx context.Context) (*hcl.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Validate method started.", "paths", a.config.Paths)

	result, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.outW, "topology %q is valid: %d boards, %d processors, %d cores, %d processes\n",
		result.Application.Name(),
		a.inventory.Count("board"),
		a.inventory.Count("processor"),
		a.inventory.Count("core"),
		a.inventory.Count("process"),
	)
	for _, w := range result.Warnings {
		fmt.Fprintf(a.outW, "warning: %s\n", w)
	}
	return result, nil
}

// Plan loads the topology, distributes threads and writes the build plan.
func (a *App) Plan(ctx context.Context) (*plan.Plan, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Plan method started.", "paths", a.config.Paths, "format", a.config.Format)

	result, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	opts := []plan.Option{plan.WithWarnings(result.Warnings)}
	if a.newPlanID != nil {
		opts = append(opts, plan.WithIDGenerator(a.newPlanID))
	}
	p, err := plan.Build(result.Application, result, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	a.logger.Info("Plan built.", "id", p.ID, "boards", len(p.Boards))

	if err := a.writePlan(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *App) writePlan(p *plan.Plan) error {
	if a.config.OutputPath == "" {
		return plan.Render(a.outW, p, a.config.Format)
	}

	f, err := os.Create(a.config.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	if err := plan.Render(f, p, a.config.Format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	a.logger.Info("Plan written.", "path", a.config.OutputPath)
	return nil
}

// Families loads the topology and writes the resulting family catalog,
// built-in families plus the ones the topology declares.
func (a *App) Families(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	result, err := a.load(ctx)
	if err != nil {
		return err
	}
	return WriteFamilies(a.outW, result.Catalog)
}

// WriteFamilies writes a family catalog as a table.
func WriteFamilies(outW io.Writer, catalog *family.Catalog) error {
	tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tLIMITS\tDESCRIPTION")
	for _, pf := range catalog.ProcessorFamilies() {
		limits := fmt.Sprintf("cores<=%d", pf.CoreLimit)
		if exe, ok := pf.Compiler.ExecutableName(); ok {
			limits += ", toolchain=" + exe
		}
		fmt.Fprintf(tw, "processor\t%s\t%s\t%s\n", pf.Name, limits, pf.Description)
	}
	for _, bf := range catalog.BoardFamilies() {
		sizes := make([]string, len(bf.MemorySizes))
		for i, s := range bf.MemorySizes {
			sizes[i] = fmt.Sprint(s)
		}
		limits := "memory in {" + strings.Join(sizes, ",") + "}"
		if bf.ProcessorFamily != "" {
			limits += ", processor=" + bf.ProcessorFamily
		}
		fmt.Fprintf(tw, "board\t%s\t%s\t%s\n", bf.Name, limits, bf.Description)
	}
	return tw.Flush()
}
