package topology

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/specialistvlad/coregrid/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures lifecycle events as strings.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) OnAdd(_ context.Context, path string, e Entity) {
	r.add("add %s %s", e.Kind(), path)
}

func (r *recorder) OnRemove(_ context.Context, path string, e Entity) {
	r.add("remove %s %s", e.Kind(), path)
}

func (r *recorder) OnBuild(_ context.Context, app *Application) {
	r.add("build %s", app.Name())
}

func (r *recorder) OnLoad(_ context.Context, source string) {
	r.add("load %s", source)
}

func TestJoinPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "demo/main/c0/blink", JoinPath("demo", "main", "c0", "blink"))
	assert.Equal(t, "demo", JoinPath("demo"))
}

func TestRegistry_AddLookupRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := &recorder{}
	inv := NewInventory()
	reg := NewRegistry(rec, inv)

	proc := mustProcess(t, ProcessSpec{Name: "blink"})
	core := mustCore(t, "c0", proc)

	require.NoError(t, reg.Add(ctx, "demo/c0/blink", proc))
	require.NoError(t, reg.Add(ctx, "demo/c0", core))
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"demo/c0/blink", "demo/c0"}, reg.Paths())

	got, ok := reg.Lookup("demo/c0")
	require.True(t, ok)
	assert.Same(t, core, got)

	assert.Equal(t, 1, inv.Count("process"))
	assert.Equal(t, []string{"core", "process"}, inv.Kinds())

	assert.True(t, reg.Remove(ctx, "demo/c0/blink"))
	assert.False(t, reg.Remove(ctx, "demo/c0/blink"))
	_, ok = reg.Lookup("demo/c0/blink")
	assert.False(t, ok)
	assert.Equal(t, []string{"demo/c0"}, reg.Paths())
	assert.Equal(t, 0, inv.Count("process"))
	assert.Equal(t, []string{"core"}, inv.Kinds())

	assert.Equal(t, []string{
		"add process demo/c0/blink",
		"add core demo/c0",
		"remove process demo/c0/blink",
	}, rec.events)
}

func TestRegistry_AddErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := &recorder{}
	reg := NewRegistry(rec)
	proc := mustProcess(t, ProcessSpec{Name: "blink"})
	require.NoError(t, reg.Add(ctx, "blink", proc))

	var dup *DuplicateNameError
	require.ErrorAs(t, reg.Add(ctx, "blink", mustProcess(t, ProcessSpec{})), &dup)
	assert.Equal(t, "process", dup.Kind)

	var cfgErr *InvalidConfigError
	require.ErrorAs(t, reg.Add(ctx, "", proc), &cfgErr)
	assert.Equal(t, "path", cfgErr.Field)

	var mismatch *TypeMismatchError
	require.ErrorAs(t, reg.Add(ctx, "nil", nil), &mismatch)

	assert.Equal(t, 1, reg.Len())
	assert.Len(t, rec.events, 1)
}

func TestRegistry_LoadedAndBuilt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rec := &recorder{}
	inv := NewInventory()
	reg := NewRegistry(rec, inv)

	cpu := mustProcessor(t, "cpu", mustCores(t, "p", 1, CompilerConfig{}), 1)
	app, err := NewApplication("demo", []*Board{mustBoard(t, "board", cpu)})
	require.NoError(t, err)

	reg.Loaded(ctx, "a.hcl")
	reg.Loaded(ctx, "b.hcl")
	reg.Built(ctx, app)

	assert.Equal(t, []string{"load a.hcl", "load b.hcl", "build demo"}, rec.events)
	assert.Equal(t, []string{"a.hcl", "b.hcl"}, inv.Sources())
	assert.Equal(t, 1, inv.Builds())
}

func TestRegistriesAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	first, second := NewRegistry(), NewRegistry()
	require.NoError(t, first.Add(ctx, "blink", mustProcess(t, ProcessSpec{Name: "blink"})))
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 0, second.Len())
	require.NoError(t, second.Add(ctx, "blink", mustProcess(t, ProcessSpec{Name: "blink"})))
}

func TestLogExtension_WritesToContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := NewRegistry(LogExtension{})
	cpu := mustProcessor(t, "cpu", mustCores(t, "p", 1, CompilerConfig{}), 1)
	require.NoError(t, reg.Add(ctx, "demo/cpu", cpu))
	reg.Loaded(ctx, "topology.hcl")
	app, err := NewApplication("demo", []*Board{mustBoard(t, "board", cpu)})
	require.NoError(t, err)
	reg.Built(ctx, app)
	reg.Remove(ctx, "demo/cpu")

	out := buf.String()
	assert.Contains(t, out, `msg="Entity registered." path=demo/cpu kind=processor`)
	assert.Contains(t, out, `msg="Configuration source loaded." source=topology.hcl`)
	assert.Contains(t, out, `msg="Application assembled." application=demo boards=1 processes=1`)
	assert.Contains(t, out, `msg="Entity unregistered." path=demo/cpu kind=processor`)
}
