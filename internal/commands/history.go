package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/diogo/qsemantic/internal/history"
	"github.com/diogo/qsemantic/internal/render"
)

type exportFlags struct {
	output string
	format string
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved sessions",
		Long: `View and manage your locally saved sessions.

` + history.ListAliases(),
	}

	export := &exportFlags{}
	exportCmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Export a session as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryExport(cmd, args[0], export)
		},
	}
	exportCmd.Flags().StringVarP(&export.output, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().StringVar(&export.format, "format", "markdown", "Export format (markdown or json)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved sessions",
			Args:  cobra.NoArgs,
			RunE:  runHistoryList,
		},
		&cobra.Command{
			Use:   "show <session>",
			Short: "Show a session",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryShow,
		},
		exportCmd,
		&cobra.Command{
			Use:   "delete <session>",
			Short: "Delete a session",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryDelete,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete all sessions",
			Args:  cobra.NoArgs,
			RunE:  runHistoryClear,
		},
	)

	return cmd
}

func openHistory() (*history.Store, error) {
	store, err := history.DefaultStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func resolveSession(ref string) (*history.Store, *history.Session, error) {
	store, err := openHistory()
	if err != nil {
		return nil, nil, err
	}
	sess, err := history.NewResolver(store).ResolveSession(ref)
	if err != nil {
		return nil, nil, err
	}
	return store, sess, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	sessions, err := store.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	idColor := color.New(color.FgMagenta).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, header("#\tID\tTITLE\tMODEL\tMESSAGES\tUPDATED"))

	for i, sess := range sessions {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			i+1, idColor(sess.ShortID()), truncate(sess.Title, 40), sess.Model,
			len(sess.Messages), dim(history.FormatRelativeTime(sess.UpdatedAt, now)))
	}

	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	_, sess, err := resolveSession(args[0])
	if err != nil {
		return err
	}

	md := history.ToMarkdown(sess)
	out := cmd.OutOrStdout()

	if !isTerminal(out) {
		fmt.Fprint(out, md)
		return nil
	}

	cfg, _ := loadSettings(nil)
	fmt.Fprintln(out, render.MarkdownOrPlain(md, render.OptionsFromConfig(cfg.Markdown, getTerminalWidth())))
	return nil
}

func runHistoryExport(cmd *cobra.Command, ref string, flags *exportFlags) error {
	format, err := history.ParseExportFormat(flags.format)
	if err != nil {
		return err
	}

	_, sess, err := resolveSession(ref)
	if err != nil {
		return err
	}

	data, err := history.Export(sess, format)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %s to %s\n", sess.ShortID(), flags.output)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, sess, err := resolveSession(args[0])
	if err != nil {
		return err
	}

	if err := store.DeleteSession(sess.ID); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session: %s (%s)\n", sess.ShortID(), sess.Title)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	n, err := store.ClearAll()
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions.\n", n)
	return nil
}

// truncate shortens s to n runes, appending "..."
func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
