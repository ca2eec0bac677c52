// Package commands provides CLI commands for qsemantic.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/qsemantic/internal/config"
	"github.com/diogo/qsemantic/internal/logging"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	model   string
	backend string
	verbose bool
}

// queryFlags apply to one-shot mode only
type queryFlags struct {
	file    string
	output  string
	raw     bool
	version bool
}

// NewRootCmd creates the root command and its subcommands
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	global := &globalFlags{}
	query := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "qsemantic [prompt]",
		Short: "Quantum-flavoured semantic analysis in the terminal",
		Long: `qsemantic sends text to Gemini and renders the reply together with a
set of semantic metrics: entanglement, entropy, superposition, a qubit
probability distribution and a semantic vector drawn on a Bloch sphere.

Examples:
  qsemantic chat                        Start the interactive explorer
  qsemantic chat --save                 Start and persist the session
  qsemantic chat --resume               Pick a saved session to resume
  qsemantic "define entropy"            Analyze a single prompt
  qsemantic -f prompt.md                Read prompt from file
  cat prompt.md | qsemantic             Read prompt from stdin
  qsemantic "define entropy" --raw      Print the structured result as JSON`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query.version {
				fmt.Fprintf(cmd.OutOrStdout(), "qsemantic %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, err := readPrompt(cmd.InOrStdin(), query.file, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(prompt) == "" {
				return cmd.Help()
			}

			return runQuery(cmd, deps, global, query, prompt)
		},
	}

	cmd.PersistentFlags().StringVarP(&global.model, "model", "m", "", "Model to use (e.g., gemini-3-flash-preview)")
	cmd.PersistentFlags().StringVar(&global.backend, "backend", "", "Transport to use (sdk or rest)")
	cmd.PersistentFlags().BoolVar(&global.verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVarP(&query.output, "output", "o", "", "Save response to file")
	cmd.Flags().StringVarP(&query.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&query.raw, "raw", false, "Print the structured result as JSON")
	cmd.Flags().BoolVarP(&query.version, "version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(deps, global))
	cmd.AddCommand(NewConfigCmd(deps))
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := NewRootCmd(NewDependencies())
	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

// readPrompt picks the prompt from --file, piped stdin or the positional
// argument, in that order
func readPrompt(stdin io.Reader, file string, args []string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return args[0], nil
	}

	if stdinPiped(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	return "", nil
}

// stdinPiped reports whether r carries piped input rather than a terminal
func stdinPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadSettings loads the config file and applies flag overrides.
// Flags win over the file.
func loadSettings(flags *globalFlags) (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if flags != nil {
		if flags.model != "" {
			cfg.DefaultModel = flags.model
		}
		if flags.backend != "" {
			cfg.Backend = strings.ToLower(flags.backend)
		}
		if flags.verbose {
			cfg.Verbose = true
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLogger returns the injected logger or the file logger. A logger
// that cannot be opened degrades to a discarding one.
func openLogger(deps *Dependencies, cfg config.Config) (*slog.Logger, func()) {
	if deps.Logger != nil {
		return deps.Logger, func() {}
	}

	logger, closer, err := logging.New(cfg)
	if err != nil && cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[verbose] logging disabled: %v\n", err)
	}
	return logger, func() { _ = closer.Close() }
}
