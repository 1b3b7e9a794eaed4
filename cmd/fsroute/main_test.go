package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/fsroute/internal/adapters/static"
	"go.trai.ch/fsroute/internal/adapters/telemetry"
	"go.trai.ch/fsroute/internal/adapters/watcher"
	"go.trai.ch/fsroute/internal/app"
	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/fsroute/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newComponents(ctrl *gomock.Controller, globals ports.GlobalConfigLoader, log ports.Logger) ComponentProvider {
	newWatcher := watcher.Factory(func() (ports.Watcher, error) {
		return watcher.NewWatcher(log)
	})
	application := app.New(
		globals,
		mocks.NewMockDirectoryConfigLoader(ctrl),
		static.NewServer(),
		newWatcher,
		log,
		telemetry.NewNoOpTracer(),
	)
	return func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: log}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	provider := newComponents(ctrl, mocks.NewMockGlobalConfigLoader(ctrl), log)

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stdout, io.Discard, provider)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "fsroute version")
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, io.Discard, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)

	globals := mocks.NewMockGlobalConfigLoader(ctrl)
	globals.EXPECT().Load("", map[string]any{}).Return(nil, errors.New("load failed"))

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Times(1)

	exitCode := run(context.Background(), []string{"explain", "/"}, io.Discard, io.Discard, newComponents(ctrl, globals, log))

	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that a canceled context stops a running server.
func TestRun_Signal(t *testing.T) {
	ctrl := gomock.NewController(t)

	cfg := &domain.Config{
		Router: domain.DefaultGlobalConfig(t.TempDir()),
		Server: domain.ServerConfig{Listen: "127.0.0.1:0", LogLevel: domain.LogLevelInfo},
	}
	globals := mocks.NewMockGlobalConfigLoader(ctrl)
	globals.EXPECT().Load("", map[string]any{}).Return(cfg, nil)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"serve"}, io.Discard, io.Discard, newComponents(ctrl, globals, log))
	}()

	// Wait a bit to ensure run() reaches Serve()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
