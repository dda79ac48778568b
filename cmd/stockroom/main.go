// Command stockroom tracks a shop's stock: it serves the dashboard and
// JSON API, and edits or reports on the inventory from the shell.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// levelRouter is a slog.Handler that routes records below errLevel to
// out and the rest to errOut.
type levelRouter struct {
	min      slog.Level
	errLevel slog.Level
	out      slog.Handler
	errOut   slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= lr.errLevel {
		return lr.errOut.Handle(ctx, r)
	}
	return lr.out.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:      lr.min,
		errLevel: lr.errLevel,
		out:      lr.out.WithAttrs(attrs),
		errOut:   lr.errOut.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:      lr.min,
		errLevel: lr.errLevel,
		out:      lr.out.WithGroup(name),
		errOut:   lr.errOut.WithGroup(name),
	}
}

type logOptions struct {
	// Path additionally receives every record when set.
	Path string
	// Format is text, json or auto. Auto picks text on a terminal.
	Format string
	// Server sends INFO and WARN to stdout. Otherwise everything goes to
	// stderr so stdout carries only command output.
	Server  bool
	Verbose bool
}

// setupLogger configures structured logging and returns a cleanup
// function that closes the log file, if one was opened.
func setupLogger(o logOptions) (func(), error) {
	level := slog.LevelInfo
	if !o.Server && !o.Verbose {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}

	cleanup := func() {}

	outFile := os.Stdout
	if !o.Server {
		outFile = os.Stderr
	}
	outW := io.Writer(outFile)
	errW := io.Writer(os.Stderr)

	if o.Path != "" {
		f, err := os.OpenFile(o.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		outW = io.MultiWriter(outW, f)
		errW = io.MultiWriter(errW, f)
	}

	json := o.Format == "json"
	if o.Format == "" || o.Format == "auto" {
		json = !isatty.IsTerminal(outFile.Fd()) && !isatty.IsCygwinTerminal(outFile.Fd())
	}

	newHandler := func(w io.Writer) slog.Handler {
		if json {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(&levelRouter{
		min:      level,
		errLevel: slog.LevelError,
		out:      newHandler(outW),
		errOut:   newHandler(errW),
	}))
	return cleanup, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
