package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/fsroute/internal/adapters/telemetry"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/fsroute/internal/core/ports/mocks"
	"go.trai.ch/fsroute/internal/engine/handlers"
	"go.uber.org/mock/gomock"
)

const id = "/srv/a/dynamic.route.sh"

func serveOK(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusOK)
	return nil
}

type fixture struct {
	cache   *handlers.Cache
	modules *handlers.ModuleCache
	loader  *handlers.Loader
	manager *handlers.Manager
	runtime *mocks.MockRuntime
	logger  *mocks.MockLogger
	lock    *sync.Mutex
}

func newFixture(t *testing.T, clearOnChange bool) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().Name().Return("mock").AnyTimes()
	rt.EXPECT().Supports(gomock.Any()).Return(true).AnyTimes()

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	f := &fixture{
		cache:   handlers.NewCache(),
		modules: handlers.NewModuleCache(),
		runtime: rt,
		logger:  logger,
		lock:    &sync.Mutex{},
	}
	f.loader = handlers.NewLoader(f.cache, f.modules, []ports.Runtime{rt}, logger, telemetry.NewNoOpTracer(), clearOnChange)
	f.manager = handlers.NewManager(f.cache, f.loader, f.lock, logger)
	f.manager.SetExists(func(string) bool { return true })
	return f
}

func newModule(ctrl *gomock.Controller, serve domain.HandlerFunc, hooks map[string]domain.HookFunc) *mocks.MockModule {
	mod := mocks.NewMockModule(ctrl)
	mod.EXPECT().Handler().Return(serve).AnyTimes()
	mod.EXPECT().Hook(gomock.Any()).DoAndReturn(func(name string) (domain.HookFunc, bool) {
		h, ok := hooks[name]
		return h, ok
	}).AnyTimes()
	return mod
}

func TestCacheKeepsNegativeAndPositiveDisjoint(t *testing.T) {
	c := handlers.NewCache()

	c.MarkAbsent(id)
	assert.True(t, c.IsAbsent(id))

	c.Put(&domain.Handler{ID: id})
	assert.False(t, c.IsAbsent(id))

	c.MarkAbsent(id)
	assert.False(t, c.IsAbsent(id), "a loaded id is never negative-cached")

	h, ok := c.Remove(id)
	require.True(t, ok)
	assert.Equal(t, id, h.ID)
	assert.Zero(t, c.Len())
}

func TestLoaderPublishesHandlerAndRunsOnCreate(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)

	var created atomic.Int32
	mod := newModule(ctrl, serveOK, map[string]domain.HookFunc{
		domain.HookCreate:  func(context.Context) error { created.Add(1); return nil },
		domain.HookDestroy: func(context.Context) error { return nil },
	})
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(mod, nil)

	h, err := f.loader.Load(context.Background(), id, domain.ImportNever)
	require.NoError(t, err)

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, []string{domain.HookCreate, domain.HookDestroy}, h.Hooks())
	assert.Equal(t, "mock", h.Runtime)
	cached, ok := f.cache.Get(id)
	require.True(t, ok)
	assert.Same(t, h, cached)
}

func TestLoaderRejectsModuleWithoutEntryPoint(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, nil, nil), nil)

	_, err := f.loader.Load(context.Background(), id, domain.ImportNever)

	require.ErrorIs(t, err, domain.ErrNotInvocable)
	_, ok := f.cache.Get(id)
	assert.False(t, ok)
}

func TestLoaderWrapsImportFailure(t *testing.T) {
	f := newFixture(t, true)
	boom := errors.New("syntax error")
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(nil, boom)

	_, err := f.loader.Load(context.Background(), id, domain.ImportNever)

	require.ErrorIs(t, err, domain.ErrImportFailed)
	assert.ErrorIs(t, err, boom)
}

func TestLoaderOnCreateFailureAbortsLoad(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	mod := newModule(ctrl, serveOK, map[string]domain.HookFunc{
		domain.HookCreate: func(context.Context) error { return errors.New("no db") },
	})
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(mod, nil)

	_, err := f.loader.Load(context.Background(), id, domain.ImportNever)

	require.ErrorIs(t, err, domain.ErrHookFailed)
	assert.Zero(t, f.cache.Len())
}

func TestLoaderOnCreatePanicAbortsLoad(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	mod := newModule(ctrl, serveOK, map[string]domain.HookFunc{
		domain.HookCreate: func(context.Context) error { panic("no db") },
	})
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(mod, nil)

	_, err := f.loader.Load(context.Background(), id, domain.ImportNever)

	require.ErrorIs(t, err, domain.ErrHookFailed)
	assert.ErrorContains(t, err, "panic: no db")
	assert.Zero(t, f.cache.Len())
}

func TestLoaderEvictsOnlyLoadedIDUnlessDirty(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	other := newModule(ctrl, serveOK, nil)
	f.modules.Put("/srv/lib.sh", other)

	f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, serveOK, nil), nil).Times(2)

	_, err := f.loader.Load(context.Background(), id, domain.ImportNever)
	require.NoError(t, err)
	_, ok := f.modules.Get("/srv/lib.sh")
	assert.True(t, ok, "clean cache keeps unrelated modules")

	f.modules.MarkDirty()
	_, err = f.loader.Load(context.Background(), id, domain.ImportNever)
	require.NoError(t, err)
	_, ok = f.modules.Get("/srv/lib.sh")
	assert.False(t, ok, "dirty cache is evicted entirely")
	assert.False(t, f.modules.TakeDirty(), "the dirty flag is consumed once")
}

func TestLoaderKeepsDirtyCacheWhenClearingDisabled(t *testing.T) {
	f := newFixture(t, false)
	ctrl := gomock.NewController(t)
	f.modules.Put("/srv/lib.sh", newModule(ctrl, serveOK, nil))
	f.modules.MarkDirty()
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, serveOK, nil), nil)

	_, err := f.loader.Load(context.Background(), id, domain.ImportNever)
	require.NoError(t, err)

	_, ok := f.modules.Get("/srv/lib.sh")
	assert.True(t, ok)
}

func TestLoaderAlwaysStrategyUsesFreshKeys(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, serveOK, nil), nil).Times(3)

	for range 3 {
		_, err := f.loader.Load(context.Background(), id, domain.ImportAlways)
		require.NoError(t, err)
	}

	// Every asynchronous load is retained under its own key.
	assert.Equal(t, 3, f.modules.Len())
	_, ok := f.modules.Get(id)
	assert.False(t, ok)
}

func TestLoaderFallbackRetriesAsynchronously(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	gomock.InOrder(
		f.runtime.EXPECT().Load(gomock.Any(), id).Return(nil, errors.New("first attempt")),
		f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, serveOK, nil), nil),
	)

	h, err := f.loader.Load(context.Background(), id, domain.ImportFallback)
	require.NoError(t, err)
	assert.Equal(t, id, h.ID)
}

func TestLoaderWithoutRuntime(t *testing.T) {
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().Supports(id).Return(false)
	loader := handlers.NewLoader(handlers.NewCache(), handlers.NewModuleCache(), []ports.Runtime{rt},
		mocks.NewMockLogger(ctrl), telemetry.NewNoOpTracer(), true)

	_, err := loader.Load(context.Background(), id, domain.ImportNever)

	require.ErrorIs(t, err, domain.ErrImportFailed)
	assert.ErrorIs(t, err, domain.ErrNoRuntime)
}

func TestManagerNegativeCachesMissingResources(t *testing.T) {
	f := newFixture(t, true)
	var probes atomic.Int32
	f.manager.SetExists(func(string) bool { probes.Add(1); return false })

	_, err := f.manager.GetOrLoad(context.Background(), id, domain.ImportNever)
	require.ErrorIs(t, err, domain.ErrResourceNotFound)
	assert.True(t, f.cache.IsAbsent(id))

	_, err = f.manager.GetOrLoad(context.Background(), id, domain.ImportNever)
	require.ErrorIs(t, err, domain.ErrResourceNotFound)
	assert.Equal(t, int32(2), probes.Load(), "the second lookup is answered by the negative cache")
}

func TestManagerLoadsOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, serveOK, nil), nil).Times(1)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			h, err := f.manager.GetOrLoad(context.Background(), id, domain.ImportNever)
			assert.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
	wg.Wait()
}

func TestManagerUpdateFiresOnDestroyBeforeReplacementOnCreate(t *testing.T) {
	f := newFixture(t, true)
	ctrl := gomock.NewController(t)

	var events []string
	hooks := map[string]domain.HookFunc{
		domain.HookCreate:  func(context.Context) error { events = append(events, "create"); return nil },
		domain.HookDestroy: func(context.Context) error { events = append(events, "destroy"); return nil },
	}
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(newModule(ctrl, serveOK, hooks), nil).Times(2)

	_, err := f.manager.GetOrLoad(context.Background(), id, domain.ImportNever)
	require.NoError(t, err)

	f.lock.Lock()
	f.manager.Update(context.Background(), id, true, domain.ImportNever)
	f.lock.Unlock()

	assert.Equal(t, []string{"create", "destroy", "create"}, events)
	_, ok := f.manager.Get(id)
	assert.True(t, ok)
}

func TestManagerUnloadSwallowsOnDestroyFailure(t *testing.T) {
	f := newFixture(t, true)
	f.logger.EXPECT().Error(gomock.Any()).Times(1)
	f.cache.Put(&domain.Handler{
		ID:        id,
		Serve:     serveOK,
		OnDestroy: func(context.Context) error { return errors.New("close failed") },
	})

	assert.True(t, f.manager.Unload(context.Background(), id))
	_, ok := f.cache.Get(id)
	assert.False(t, ok)
	assert.False(t, f.manager.Unload(context.Background(), id))
}

func TestManagerUnloadSurvivesOnDestroyPanic(t *testing.T) {
	f := newFixture(t, true)
	f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrHookFailed)
	}).Times(1)
	f.cache.Put(&domain.Handler{
		ID:        id,
		Serve:     serveOK,
		OnDestroy: func(context.Context) error { panic("close failed") },
	})

	assert.True(t, f.manager.Unload(context.Background(), id))
	_, ok := f.cache.Get(id)
	assert.False(t, ok)
}

func TestManagerUpdateClearsNegativeEntry(t *testing.T) {
	f := newFixture(t, true)
	f.cache.MarkAbsent(id)

	f.manager.Update(context.Background(), id, false, domain.ImportNever)

	assert.False(t, f.cache.IsAbsent(id))
}

func TestManagerUpdateLogsReloadFailure(t *testing.T) {
	f := newFixture(t, true)
	f.logger.EXPECT().Error(gomock.Any()).Times(1)
	f.runtime.EXPECT().Load(gomock.Any(), id).Return(nil, errors.New("bad script"))

	f.manager.Update(context.Background(), id, true, domain.ImportNever)

	_, ok := f.manager.Get(id)
	assert.False(t, ok)
}
