// Package shell runs handler resources written as shell scripts inside an embedded
// interpreter. A script defines a handle function serving requests CGI-style and may
// define on_create and on_destroy lifecycle hooks.
package shell

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Name identifies the shell runtime.
const Name = "shell"

// Extension is the file extension handled by the shell runtime.
const Extension = ".sh"

// Function names looked up in evaluated scripts.
const (
	EntryPoint  = "handle"
	OnCreate    = "on_create"
	OnDestroy   = "on_destroy"
	scriptEnvID = "SCRIPT_FILENAME"
)

var _ ports.Runtime = (*Runtime)(nil)

// Runtime implements ports.Runtime for shell scripts.
type Runtime struct {
	logger  ports.Logger
	environ func() []string
}

// NewRuntime creates a shell Runtime. Scripts inherit the process environment.
func NewRuntime(logger ports.Logger) *Runtime {
	return &Runtime{
		logger:  logger,
		environ: os.Environ,
	}
}

// Name returns the runtime name.
func (rt *Runtime) Name() string {
	return Name
}

// Supports reports whether id is a shell script.
func (rt *Runtime) Supports(id string) bool {
	return strings.HasSuffix(id, Extension)
}

// Load parses the script and evaluates its top level once in a fresh interpreter.
func (rt *Runtime) Load(ctx context.Context, id string) (ports.Module, error) {
	f, err := os.Open(id) //nolint:gosec // id is a resource below the served root
	if err != nil {
		return nil, zerr.Wrap(err, "open script")
	}
	defer func() { _ = f.Close() }()

	file, err := syntax.NewParser().Parse(f, id)
	if err != nil {
		return nil, zerr.Wrap(err, "parse script")
	}

	stderr := newLogWriter(rt.logger, id)
	defer func() { _ = stderr.Close() }()

	env := append(rt.environ(), scriptEnvID+"="+id)
	runner, err := interp.New(
		interp.Dir(filepath.Dir(id)),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, io.Discard, stderr),
	)
	if err != nil {
		return nil, zerr.Wrap(err, "create interpreter")
	}

	if err := runner.Run(ctx, file); err != nil {
		return nil, zerr.Wrap(err, "evaluate script")
	}

	return newModule(id, runner, rt.logger), nil
}
