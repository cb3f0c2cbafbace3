package hcl

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/coregrid/internal/ctxlog"
	"github.com/specialistvlad/coregrid/internal/distributor"
	"github.com/specialistvlad/coregrid/internal/family"
	"github.com/specialistvlad/coregrid/internal/fsutil"
	"github.com/specialistvlad/coregrid/internal/topology"
)

// Extension is the suffix of topology files discovered in directories.
const Extension = ".hcl"

// Loader reads topology files and assembles the Application they describe.
type Loader struct {
	catalog   *family.Catalog
	registry  *topology.Registry
	variables map[string]string
}

// Option configures a Loader.
type Option func(*Loader)

// WithCatalog sets the family tables the topology is checked against.
func WithCatalog(c *family.Catalog) Option {
	return func(l *Loader) { l.catalog = c }
}

// WithRegistry sets the registry every assembled entity is recorded in.
func WithRegistry(r *topology.Registry) Option {
	return func(l *Loader) { l.registry = r }
}

// WithVariables sets values for declared variables, overriding defaults.
func WithVariables(vars map[string]string) Option {
	return func(l *Loader) { l.variables = vars }
}

// NewLoader returns a Loader using the built-in families and a private
// registry unless options say otherwise.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.catalog == nil {
		l.catalog = family.Builtin()
	}
	if l.registry == nil {
		l.registry = topology.NewRegistry()
	}
	return l
}

// Result is a loaded and validated topology.
type Result struct {
	Application *topology.Application
	Catalog     *family.Catalog
	Warnings    []topology.ConfigOverrideWarning
	Sources     []string

	policies map[*topology.Processor]distributor.Policy
}

// Policy returns the distribution policy configured for p, round-robin when
// none was configured.
func (r *Result) Policy(p *topology.Processor) distributor.Policy {
	if pol, ok := r.policies[p]; ok {
		return pol
	}
	return distributor.RoundRobin{}
}

// Load reads every path, which may be a file or a directory searched
// recursively for .hcl files, and assembles the topology.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat topology path %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("failed to find topology files in %s: %w", path, err)
		}
		if len(found) == 0 {
			logger.Warn("No topology files found in directory.", "path", path)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no topology files to load")
	}

	sources := make(map[string][]byte, len(files))
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read topology file %s: %w", f, err)
		}
		sources[f] = src
	}
	return l.load(ctx, files, sources)
}

// LoadSource assembles the topology described by a single in-memory source.
// filename is only used in diagnostics.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*Result, error) {
	return l.load(ctx, []string{filename}, map[string][]byte{filename: src})
}

func (l *Loader) load(ctx context.Context, order []string, sources map[string][]byte) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	var vars []*variable
	bodies := make([]hcl.Body, 0, len(order))
	for _, name := range order {
		file, diags := parser.ParseHCL(sources[name], name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", name, diags)
		}
		fileVars, remain, diags := extractVariables(file.Body)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode variables in %s: %w", name, diags)
		}
		vars = append(vars, fileVars...)
		bodies = append(bodies, remain)
		l.registry.Loaded(ctx, name)
		logger.Debug("Topology file parsed.", "file", name, "variables", len(fileVars))
	}

	evalCtx, err := evalContext(ctx, vars, l.variables)
	if err != nil {
		return nil, err
	}

	var merged topologyFile
	for i, body := range bodies {
		var tf topologyFile
		if diags := gohcl.DecodeBody(body, evalCtx, &tf); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", order[i], diags)
		}
		merged.ProcessorFamilies = append(merged.ProcessorFamilies, tf.ProcessorFamilies...)
		merged.BoardFamilies = append(merged.BoardFamilies, tf.BoardFamilies...)
		merged.Applications = append(merged.Applications, tf.Applications...)
	}

	catalog, err := l.extendCatalog(ctx, merged)
	if err != nil {
		return nil, err
	}

	switch n := len(merged.Applications); {
	case n == 0:
		return nil, errors.New("no application block found")
	case n > 1:
		return nil, fmt.Errorf("exactly one application block is allowed, found %d", n)
	}

	b := &builder{catalog: catalog, registry: l.registry, policies: make(map[*topology.Processor]distributor.Policy)}
	app, err := b.build(ctx, merged.Applications[0])
	if err != nil {
		b.rollback(ctx)
		var src *SourceError
		if errors.As(err, &src) {
			return nil, fmt.Errorf("%s: %w", src.Range, err)
		}
		return nil, err
	}
	l.registry.Built(ctx, app)

	for _, w := range b.warnings {
		logger.Warn("Compiler config overridden.", "process", w.Process, "field", w.Field, "previous", w.Previous, "current", w.Current)
	}
	logger.Info("Topology loaded.", "application", app.Name(), "files", len(order), "processes", len(app.Processes()))

	return &Result{
		Application: app,
		Catalog:     catalog,
		Warnings:    b.warnings,
		Sources:     append([]string(nil), order...),
		policies:    b.policies,
	}, nil
}

// extendCatalog adds the families declared in the files to the loader's
// catalog.
func (l *Loader) extendCatalog(ctx context.Context, tf topologyFile) (*family.Catalog, error) {
	if len(tf.ProcessorFamilies) == 0 && len(tf.BoardFamilies) == 0 {
		return l.catalog, nil
	}

	procs := make([]family.ProcessorFamily, 0, len(tf.ProcessorFamilies))
	for _, pb := range tf.ProcessorFamilies {
		cfg, err := compilerConfig(pb.Compiler)
		if err != nil {
			return nil, fmt.Errorf("processor_family %q: %w", pb.Name, err)
		}
		procs = append(procs, family.ProcessorFamily{
			Name:        pb.Name,
			Description: pb.Description,
			CoreLimit:   pb.CoreLimit,
			Compiler:    cfg,
		})
	}
	boards := make([]family.BoardFamily, 0, len(tf.BoardFamilies))
	for _, bb := range tf.BoardFamilies {
		boards = append(boards, family.BoardFamily{
			Name:            bb.Name,
			Description:     bb.Description,
			MemorySizes:     bb.MemorySizes,
			ProcessorFamily: bb.ProcessorFamily,
		})
	}

	next, replaced, err := l.catalog.Extend(procs, boards)
	if err != nil {
		return nil, err
	}
	for _, name := range replaced {
		ctxlog.FromContext(ctx).Warn("Family declaration replaces an existing family.", "family", name)
	}
	return next, nil
}
