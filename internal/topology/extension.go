package topology

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/coregrid/internal/ctxlog"
)

// Entity is any node of the topology tree.
type Entity interface {
	Kind() string
	Name() string
}

// Extension receives lifecycle events from a Registry and a loader. Every
// extension implements the full capability set; methods it does not care
// about are simply empty.
type Extension interface {
	// OnAdd is called after an entity is registered under path.
	OnAdd(ctx context.Context, path string, e Entity)
	// OnRemove is called after the entity at path is unregistered.
	OnRemove(ctx context.Context, path string, e Entity)
	// OnBuild is called once an Application is fully assembled.
	OnBuild(ctx context.Context, app *Application)
	// OnLoad is called for every configuration source read.
	OnLoad(ctx context.Context, source string)
}

// LogExtension writes every lifecycle event to the context logger.
type LogExtension struct{}

func (LogExtension) OnAdd(ctx context.Context, path string, e Entity) {
	ctxlog.FromContext(ctx).Debug("Entity registered.", "path", path, "kind", e.Kind())
}

func (LogExtension) OnRemove(ctx context.Context, path string, e Entity) {
	ctxlog.FromContext(ctx).Debug("Entity unregistered.", "path", path, "kind", e.Kind())
}

func (LogExtension) OnBuild(ctx context.Context, app *Application) {
	ctxlog.FromContext(ctx).Info("Application assembled.",
		"application", app.Name(),
		"boards", len(app.Boards()),
		"processes", len(app.Processes()),
	)
}

func (LogExtension) OnLoad(ctx context.Context, source string) {
	ctxlog.FromContext(ctx).Debug("Configuration source loaded.", "source", source)
}

// Inventory counts live entities per kind, plus loaded sources and builds.
type Inventory struct {
	mu      sync.Mutex
	counts  map[string]int
	sources []string
	builds  int
}

// NewInventory returns an empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{counts: make(map[string]int)}
}

func (i *Inventory) OnAdd(_ context.Context, _ string, e Entity) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.counts[e.Kind()]++
}

func (i *Inventory) OnRemove(_ context.Context, _ string, e Entity) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.counts[e.Kind()]--
	if i.counts[e.Kind()] <= 0 {
		delete(i.counts, e.Kind())
	}
}

func (i *Inventory) OnBuild(context.Context, *Application) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.builds++
}

func (i *Inventory) OnLoad(_ context.Context, source string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sources = append(i.sources, source)
}

// Count returns the number of live entities of the given kind.
func (i *Inventory) Count(kind string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.counts[kind]
}

// Kinds returns the kinds with at least one live entity, sorted.
func (i *Inventory) Kinds() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	kinds := make([]string, 0, len(i.counts))
	for k := range i.counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Sources returns the loaded sources in load order.
func (i *Inventory) Sources() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return cloneStrings(i.sources)
}

// Builds returns how many applications were assembled.
func (i *Inventory) Builds() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.builds
}
