package reconcile_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fsroute/internal/adapters/telemetry"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/fsroute/internal/core/ports/mocks"
	"go.trai.ch/fsroute/internal/engine/dirconfig"
	"go.trai.ch/fsroute/internal/engine/handlers"
	"go.trai.ch/fsroute/internal/engine/reconcile"
	"go.uber.org/mock/gomock"
)

type engineFixture struct {
	root     string
	queue    *reconcile.Queue
	resolver *dirconfig.Resolver
	manager  *handlers.Manager
	engine   *reconcile.Engine
	configs  *mocks.MockDirectoryConfigLoader

	mu        sync.Mutex
	loads     map[string]int
	destroyed map[string]int
}

func newEngineFixture(t *testing.T, mutate func(*domain.GlobalConfig)) *engineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	cfg := domain.DefaultGlobalConfig(root)
	if mutate != nil {
		mutate(&cfg)
	}

	f := &engineFixture{
		root:      root,
		queue:     reconcile.NewQueue(),
		resolver:  dirconfig.NewResolver(cfg.Defaults),
		configs:   mocks.NewMockDirectoryConfigLoader(ctrl),
		loads:     make(map[string]int),
		destroyed: make(map[string]int),
	}

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().Name().Return("mock").AnyTimes()
	rt.EXPECT().Supports(gomock.Any()).Return(true).AnyTimes()
	rt.EXPECT().Load(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, id string) (ports.Module, error) {
		f.mu.Lock()
		f.loads[id]++
		f.mu.Unlock()

		mod := mocks.NewMockModule(ctrl)
		mod.EXPECT().Handler().Return(domain.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		})).AnyTimes()
		mod.EXPECT().Hook(domain.HookCreate).Return(nil, false).AnyTimes()
		mod.EXPECT().Hook(domain.HookDestroy).Return(domain.HookFunc(func(context.Context) error {
			f.mu.Lock()
			f.destroyed[id]++
			f.mu.Unlock()
			return nil
		}), true).AnyTimes()
		return mod, nil
	}).AnyTimes()

	lock := &sync.Mutex{}
	tracer := telemetry.NewNoOpTracer()
	cache := handlers.NewCache()
	loader := handlers.NewLoader(cache, handlers.NewModuleCache(), []ports.Runtime{rt}, logger, tracer, cfg.ClearCacheOnChange)
	f.manager = handlers.NewManager(cache, loader, lock, logger)
	f.engine = reconcile.NewEngine(cfg, reconcile.Deps{
		Lock:     lock,
		Queue:    f.queue,
		Resolver: f.resolver,
		Configs:  f.configs,
		Handlers: f.manager,
		Logger:   logger,
		Tracer:   tracer,
	})
	return f
}

func (f *engineFixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (f *engineFixture) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

func (f *engineFixture) loadCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[id]
}

func (f *engineFixture) destroyCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed[id]
}

// loaded puts id into the handler cache the way a request would.
func (f *engineFixture) loaded(t *testing.T, id string) {
	t.Helper()
	_, err := f.manager.GetOrLoad(context.Background(), id, domain.ImportNever)
	require.NoError(t, err)
}

func noExec() *domain.DirectoryConfig {
	return &domain.DirectoryConfig{Settings: domain.Settings{Exec: domain.Some(domain.RuleSet{})}}
}

func TestEngine_FirstPassClosesInitialized(t *testing.T) {
	f := newEngineFixture(t, nil)

	select {
	case <-f.engine.Initialized():
		t.Fatal("initialized before the first pass")
	default:
	}

	f.engine.Run(context.Background())

	select {
	case <-f.engine.Initialized():
	default:
		t.Fatal("first pass did not close initialized")
	}

	// A second pass must not close the channel twice.
	f.engine.Run(context.Background())
}

func TestEngine_LoadOnDemandOnlyUnloads(t *testing.T) {
	f := newEngineFixture(t, nil)
	id := f.write(t, "api/items.route.sh", "v1")

	f.queue.Record(id, true)
	f.engine.Run(context.Background())

	assert.Zero(t, f.loadCount(id))
	_, ok := f.manager.Get(id)
	assert.False(t, ok)
}

func TestEngine_EagerReloadOfExecResources(t *testing.T) {
	f := newEngineFixture(t, func(c *domain.GlobalConfig) { c.LoadOnDemand = false })
	exec := f.write(t, "api/items.route.sh", "v1")
	static := f.write(t, "index.html", "<p>hi</p>")

	f.queue.Record(exec, true)
	f.queue.Record(static, true)
	f.engine.Run(context.Background())

	assert.Equal(t, 1, f.loadCount(exec))
	assert.Zero(t, f.loadCount(static))
}

func TestEngine_RemovalUnloadsAndFiresDestroy(t *testing.T) {
	f := newEngineFixture(t, nil)
	id := f.write(t, "api/items.route.sh", "v1")
	f.loaded(t, id)
	require.Equal(t, 1, f.loadCount(id))

	require.NoError(t, os.Remove(id))
	f.queue.Record(id, false)
	f.engine.Run(context.Background())

	_, ok := f.manager.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 1, f.destroyCount(id))
}

func TestEngine_RemovedDirectoryUnloadsEverythingBelow(t *testing.T) {
	f := newEngineFixture(t, nil)
	nested := f.write(t, "api/v1/items.route.sh", "v1")
	sibling := f.write(t, "apiary.route.sh", "v1")
	f.loaded(t, nested)
	f.loaded(t, sibling)
	f.resolver.Set("api", noExec())
	f.resolver.Set("api/v1", noExec())

	require.NoError(t, os.Rename(f.path("api"), filepath.Join(t.TempDir(), "api")))
	f.queue.Record(f.path("api"), false)
	f.engine.Run(context.Background())

	_, ok := f.manager.Get(nested)
	assert.False(t, ok)
	assert.Equal(t, 1, f.destroyCount(nested))
	assert.Equal(t, 1, f.loadCount(nested), "never reloaded")

	_, ok = f.manager.Get(sibling)
	assert.True(t, ok, "a shared name prefix is not a parent directory")
	assert.Empty(t, f.resolver.Dirs())
}

func TestEngine_ConfigLoadedBeforeHandlers(t *testing.T) {
	f := newEngineFixture(t, func(c *domain.GlobalConfig) { c.LoadOnDemand = false })
	cfgPath := f.write(t, "b/__config__.yaml", "exec: []\n")
	id := f.write(t, "b/items.route.sh", "v1")

	f.configs.EXPECT().Load(cfgPath).Return(noExec(), nil)

	f.queue.Record(cfgPath, true)
	f.queue.Record(id, true)
	f.engine.Run(context.Background())

	_, ok := f.resolver.Explicit("b")
	assert.True(t, ok)
	assert.Zero(t, f.loadCount(id), "resources that stop being exec are not reloaded")
}

func TestEngine_HandlerLosingExecIsUnloaded(t *testing.T) {
	f := newEngineFixture(t, nil)
	id := f.write(t, "b/items.route.sh", "v1")
	f.loaded(t, id)

	cfgPath := f.write(t, "b/__config__.yaml", "exec: []\n")
	f.configs.EXPECT().Load(cfgPath).Return(noExec(), nil)

	f.queue.Record(cfgPath, true)
	f.queue.Record(id, false)
	f.engine.Run(context.Background())

	_, ok := f.manager.Get(id)
	assert.False(t, ok, "an entry that was exec before the config change is still applied")
	assert.Equal(t, 1, f.destroyCount(id))
}

func TestEngine_FailedConfigLoadKeepsPrevious(t *testing.T) {
	f := newEngineFixture(t, nil)
	cfgPath := f.write(t, "b/__config__.yaml", "exec: [\n")
	previous := noExec()
	f.resolver.Set("b", previous)

	f.configs.EXPECT().Load(cfgPath).Return(nil, errors.New("parse failure"))

	f.queue.Record(cfgPath, true)
	f.engine.Run(context.Background())

	got, ok := f.resolver.Explicit("b")
	require.True(t, ok)
	assert.Same(t, previous, got)
}

func TestEngine_RemovedConfigDropsDirectoryEntry(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.resolver.Set("b", noExec())

	f.queue.Record(f.path("b/__config__.yaml"), false)
	f.engine.Run(context.Background())

	_, ok := f.resolver.Explicit("b")
	assert.False(t, ok)
}

func TestEngine_RemovedConfigFallsBackToSibling(t *testing.T) {
	f := newEngineFixture(t, nil)
	jsonPath := f.write(t, "b/__config__.json", `{"exec": []}`)
	f.resolver.Set("b", noExec())

	replacement := &domain.DirectoryConfig{Source: jsonPath}
	f.configs.EXPECT().Load(jsonPath).Return(replacement, nil)

	f.queue.Record(f.path("b/__config__.yaml"), false)
	f.engine.Run(context.Background())

	got, ok := f.resolver.Explicit("b")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestEngine_ForceFullReloadTouchesEveryCachedHandler(t *testing.T) {
	f := newEngineFixture(t, func(c *domain.GlobalConfig) { c.ForceFullReload = true })
	other := f.write(t, "other.route.sh", "v1")
	changed := f.write(t, "changed.route.sh", "v1")
	f.loaded(t, other)

	f.queue.Record(changed, true)
	f.engine.Run(context.Background())

	_, ok := f.manager.Get(other)
	assert.False(t, ok)
	assert.Equal(t, 1, f.destroyCount(other))
}

func TestEngine_OutsideRootIsIgnored(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "dep.route.sh")
	require.NoError(t, os.WriteFile(outside, []byte("v1"), 0o644))

	f := newEngineFixture(t, func(c *domain.GlobalConfig) {
		c.LoadOnDemand = false
		c.ExtraWatch = []string{filepath.Dir(outside)}
	})

	f.queue.Record(outside, true)
	f.engine.Run(context.Background())

	assert.Zero(t, f.loadCount(outside))
}

func TestEngine_RepeatedPassIsIdempotent(t *testing.T) {
	f := newEngineFixture(t, func(c *domain.GlobalConfig) { c.LoadOnDemand = false })
	cfgPath := f.write(t, "b/__config__.yaml", "import_strategy: never\n")
	id := f.write(t, "api/items.route.sh", "v1")
	loaded := &domain.DirectoryConfig{Source: cfgPath}
	f.configs.EXPECT().Load(cfgPath).Return(loaded, nil).Times(2)

	pass := func() ([]string, []string) {
		f.queue.Record(cfgPath, true)
		f.queue.Record(id, true)
		f.engine.Run(context.Background())
		return f.resolver.Dirs(), f.manager.Cache().IDs()
	}

	dirs1, ids1 := pass()
	dirs2, ids2 := pass()

	assert.Equal(t, []string{"b"}, dirs1)
	assert.Equal(t, []string{id}, ids1)
	assert.Equal(t, dirs1, dirs2)
	assert.Equal(t, ids1, ids2)
}
