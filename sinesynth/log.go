package main

import (
	"bytes"
	"io"
	"log/slog"
)

// newLogger returns a text logger on w and makes it the default, so the
// library's fallback logger writes there too.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(l)
	return l
}

// rawTerminal writes log lines to a terminal in raw mode, where a newline
// does not return the carriage.  Each line starts by clearing the status line
// it overwrites.
type rawTerminal struct{ w io.Writer }

func (r rawTerminal) Write(p []byte) (int, error) {
	b := append([]byte("\r\x1b[K"), bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))...)
	if _, err := r.w.Write(b); err != nil {
		return 0, err
	}
	return len(p), nil
}
