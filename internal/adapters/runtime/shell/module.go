package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// module is an evaluated script. Requests run in subshells of the evaluated
// interpreter; hooks run in the interpreter itself so that state set by on_create
// is visible to later requests.
type module struct {
	id     string
	logger ports.Logger

	mu     sync.Mutex
	runner *interp.Runner
}

func newModule(id string, runner *interp.Runner, logger ports.Logger) *module {
	return &module{id: id, runner: runner, logger: logger}
}

func (m *module) defines(fn string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runner.Funcs[fn]
	return ok
}

// Handler returns the request entry point, or nil if the script defines no handle function.
func (m *module) Handler() domain.HandlerFunc {
	if !m.defines(EntryPoint) {
		return nil
	}
	return m.serve
}

// Hook returns the shell function backing the named lifecycle hook.
func (m *module) Hook(name string) (domain.HookFunc, bool) {
	var fn string
	switch name {
	case domain.HookCreate:
		fn = OnCreate
	case domain.HookDestroy:
		fn = OnDestroy
	default:
		return nil, false
	}
	if !m.defines(fn) {
		return nil, false
	}
	return func(ctx context.Context) error {
		return m.runHook(ctx, fn)
	}, true
}

func (m *module) runHook(ctx context.Context, fn string) error {
	stmt, err := parseCall(fn, nil)
	if err != nil {
		return err
	}

	stderr := newLogWriter(m.logger, m.id)
	defer func() { _ = stderr.Close() }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := interp.StdIO(nil, io.Discard, stderr)(m.runner); err != nil {
		return zerr.Wrap(err, "attach hook")
	}
	return m.runner.Run(ctx, stmt)
}

func (m *module) serve(w http.ResponseWriter, r *http.Request) error {
	stmt, err := parseCall(EntryPoint, requestEnv(m.id, r))
	if err != nil {
		return err
	}

	stdin, closeStdin, err := bodyPipe(r.Body)
	if err != nil {
		return zerr.Wrap(err, "open request body")
	}
	defer closeStdin()

	stderr := newLogWriter(m.logger, m.id)
	defer func() { _ = stderr.Close() }()

	var stdout bytes.Buffer

	m.mu.Lock()
	sub := m.runner.Subshell()
	m.mu.Unlock()

	if err := interp.StdIO(stdin, &stdout, stderr)(sub); err != nil {
		return zerr.Wrap(err, "attach request")
	}

	if err := sub.Run(r.Context(), stmt); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return zerr.With(zerr.New("handler exited with non-zero status"), "status", int(status))
		}
		return zerr.Wrap(err, "run handler")
	}

	return writeResponse(w, stdout.Bytes())
}

// parseCall builds the statement exporting env and calling fn.
func parseCall(fn string, env [][2]string) (*syntax.File, error) {
	var src strings.Builder
	for _, kv := range env {
		quoted, err := syntax.Quote(kv[1], syntax.LangBash)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "quote request variable"), "name", kv[0])
		}
		src.WriteString("export " + kv[0] + "=" + quoted + "\n")
	}
	src.WriteString(fn + "\n")

	file, err := syntax.NewParser().Parse(strings.NewReader(src.String()), fn)
	if err != nil {
		return nil, zerr.Wrap(err, "build call")
	}
	return file, nil
}

// bodyPipe streams body into a pipe usable as interpreter stdin. The returned
// function closes the read side, which also ends the copy if the script never read it.
func bodyPipe(body io.Reader) (*os.File, func(), error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	go func() {
		if body != nil {
			_, _ = io.Copy(pw, body)
		}
		_ = pw.Close()
	}()
	return pr, func() { _ = pr.Close() }, nil
}
