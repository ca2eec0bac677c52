// Package logging configures the structured logger shared by all commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/diogo/qsemantic/internal/config"
)

// New returns a logger writing to the qsemantic log file. The TUI owns the
// terminal, so nothing is ever written to stdout or stderr. The returned
// closer must be called on exit.
func New(cfg config.Config) (*slog.Logger, io.Closer, error) {
	if _, err := config.EnsureConfigDir(); err != nil {
		return Discard(), nopCloser{}, err
	}

	path, err := config.GetLogPath()
	if err != nil {
		return Discard(), nopCloser{}, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return Discard(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}

	return NewWithWriter(f, cfg.Verbose), f, nil
}

// NewWithWriter returns a text logger writing to w
func NewWithWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
