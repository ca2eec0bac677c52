package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/diogo/qsemantic/internal/history"
	"github.com/diogo/qsemantic/internal/render"
	"github.com/diogo/qsemantic/internal/tui"
)

// pickSession is the --resume value used when no reference is given
const pickSession = "@pick"

type chatFlags struct {
	save   bool
	resume string
}

func newChatCmd(deps *Dependencies, global *globalFlags) *cobra.Command {
	flags := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat [session]",
		Short: "Start the interactive explorer",
		Long: `Start the interactive Q-Semantic Explorer.

Each message is analyzed and the reply is revealed progressively while the
side panel plots its semantic vector, gauges and qubit distribution.

Sessions are saved when --save is given or save_history is enabled.
--resume without a value opens a picker; a reference, given to --resume or
as the argument, selects a session directly:
` + history.ListAliases() + `
Press Esc or Ctrl+C, or type 'exit', to end the session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if flags.resume != "" && flags.resume != pickSession {
					return fmt.Errorf("session given twice: %q and --resume=%s", args[0], flags.resume)
				}
				flags.resume = args[0]
			}
			return runChat(cmd, deps, global, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.save, "save", false, "Save this session to history")
	cmd.Flags().StringVar(&flags.resume, "resume", "", "Resume a saved session (@last, index, ID or title)")
	cmd.Flags().Lookup("resume").NoOptDefVal = pickSession

	return cmd
}

func runChat(cmd *cobra.Command, deps *Dependencies, global *globalFlags, flags *chatFlags) error {
	ctx := cmd.Context()

	cfg, err := loadSettings(global)
	if err != nil {
		return err
	}

	logger, closeLog := openLogger(deps, cfg)
	defer closeLog()

	analyzer, err := deps.NewAnalyzer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	save := flags.save || cfg.SaveHistory || flags.resume != ""

	var store *history.Store
	var sess *history.Session
	if save {
		store, err = history.DefaultStore()
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
	}

	switch flags.resume {
	case "":
	case pickSession:
		picked, confirmed, err := deps.TUI.RunSessionSelector(store, cfg.DefaultModel)
		if err != nil {
			return fmt.Errorf("session selector failed: %w", err)
		}
		if !confirmed {
			return nil
		}
		sess = picked
	default:
		sess, err = history.NewResolver(store).ResolveSession(flags.resume)
		if err != nil {
			return err
		}
	}

	if save && sess == nil {
		sess, err = store.CreateSession(cfg.DefaultModel)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	tui.UpdateTheme(cfg.TUITheme)
	minDelay, maxDelay := cfg.RevealDelays()

	opts := tui.Options{
		ModelName:      cfg.DefaultModel,
		SessionID:      uuid.NewString()[:8],
		RevealMinDelay: minDelay,
		RevealMaxDelay: maxDelay,
		Markdown:       render.OptionsFromConfig(cfg.Markdown, getTerminalWidth()),
		Logger:         logger,
		Clipboard:      deps.Clipboard,
	}
	if sess != nil {
		opts.SessionID = sess.ShortID()
		opts.Store = store
		opts.StoreSessionID = sess.ID
		opts.History = sess.Messages
	}

	logger.Info("chat started",
		"model", cfg.DefaultModel,
		"backend", cfg.Backend,
		"saved", sess != nil,
		"resumed", len(opts.History) > 0,
	)

	return deps.TUI.RunChat(ctx, analyzer, opts)
}
