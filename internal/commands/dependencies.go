package commands

import (
	"context"
	"log/slog"

	"github.com/atotto/clipboard"

	"github.com/diogo/qsemantic/internal/api"
	"github.com/diogo/qsemantic/internal/config"
	"github.com/diogo/qsemantic/internal/history"
	"github.com/diogo/qsemantic/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, analyzer tui.Analyzer, opts tui.Options) error
	RunSessionSelector(store tui.SessionLister, modelName string) (*history.Session, bool, error)
}

// AnalyzerFactory builds the analysis client for a resolved config
type AnalyzerFactory func(ctx context.Context, cfg config.Config, logger *slog.Logger) (tui.Analyzer, error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewAnalyzer creates the analysis client. It fails when no API key
	// is configured.
	NewAnalyzer AnalyzerFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Clipboard copies text to the system clipboard.
	Clipboard func(string) error

	// Logger overrides the file logger when set.
	Logger *slog.Logger
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, analyzer tui.Analyzer, opts tui.Options) error {
	return tui.RunChat(ctx, analyzer, opts)
}

func (d *DefaultTUI) RunSessionSelector(store tui.SessionLister, modelName string) (*history.Session, bool, error) {
	return tui.RunSessionSelector(store, modelName)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewAnalyzer: newGeminiAnalyzer,
		TUI:         &DefaultTUI{},
		Clipboard:   clipboard.WriteAll,
	}
}

// newGeminiAnalyzer resolves the credential and wraps the configured
// backend in an Analyzer
func newGeminiAnalyzer(ctx context.Context, cfg config.Config, logger *slog.Logger) (tui.Analyzer, error) {
	apiKey, err := config.ResolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}

	gen, err := api.NewGenerator(ctx, cfg, apiKey)
	if err != nil {
		return nil, err
	}

	return api.NewAnalyzer(gen,
		api.WithModel(cfg.DefaultModel),
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	), nil
}

// withDefaults fills unset dependencies so tests only override what they use
func (d *Dependencies) withDefaults() *Dependencies {
	out := NewDependencies()
	if d == nil {
		return out
	}
	if d.NewAnalyzer != nil {
		out.NewAnalyzer = d.NewAnalyzer
	}
	if d.TUI != nil {
		out.TUI = d.TUI
	}
	if d.Clipboard != nil {
		out.Clipboard = d.Clipboard
	}
	out.Logger = d.Logger
	return out
}
