package shell

import (
	"bytes"
	"strings"

	"go.trai.ch/fsroute/internal/core/ports"
)

// logWriter forwards script stderr to the logger, one warning per line.
type logWriter struct {
	logger ports.Logger
	prefix string
	buf    []byte
}

func newLogWriter(logger ports.Logger, id string) *logWriter {
	return &logWriter{logger: logger, prefix: id + ": "}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close flushes a trailing line without newline.
func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	w.logger.Warn(w.prefix + strings.TrimSuffix(string(line), "\r"))
}
