package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/qsemantic/internal/config"
	"github.com/diogo/qsemantic/internal/conversation"
	"github.com/diogo/qsemantic/internal/models"
	"github.com/diogo/qsemantic/internal/render"
	"github.com/diogo/qsemantic/internal/tui"
	"github.com/diogo/qsemantic/internal/visualizer"
)

var (
	colorText     = render.QuantumTheme.Text
	colorTextDim  = render.QuantumTheme.TextDim
	colorTextMute = render.QuantumTheme.TextMute
	colorSuccess  = lipgloss.Color("#4ade80")
	colorPrimary  = render.QuantumTheme.Primary
	colorAccent   = render.QuantumTheme.Accent
	colorWarning  = render.QuantumTheme.Warning
)

// gradientColors cycles the spinner between the two accent colors
var gradientColors = blendColors(colorAccent, colorPrimary, 8)

var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	metricsTitleStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				MarginTop(1)

	dimStyle = lipgloss.NewStyle().Foreground(colorTextDim)
)

// blendColors returns n colors from a to b and back, blended in Luv space
func blendColors(a, b lipgloss.Color, n int) []lipgloss.Color {
	from, errA := colorful.Hex(string(a))
	to, errB := colorful.Hex(string(b))
	if errA != nil || errB != nil || n < 4 {
		return []lipgloss.Color{a, b}
	}

	half := n / 2
	out := make([]lipgloss.Color, 0, n)
	for i := 0; i < half; i++ {
		out = append(out, lipgloss.Color(from.BlendLuv(to, float64(i)/float64(half-1)).Clamped().Hex()))
	}
	for i := half - 1; i >= 0; i-- {
		out = append(out, out[i])
	}
	return out
}

// spinner handles the animated loading indicator
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to w
func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation. Nothing is drawn when w is not a terminal.
func (s *spinner) start() {
	animate := isTerminal(s.w)
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		if animate {
			// Hide cursor
			fmt.Fprint(s.w, "\033[?25l")
		}

		for {
			select {
			case <-s.stop:
				if animate {
					// Clear line and show cursor
					fmt.Fprint(s.w, "\r\033[K\033[?25h")
				}
				return
			case <-ticker.C:
				if !animate {
					continue
				}
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	fmt.Fprintf(s.w, "\r\033[K%s", s.frameString())
}

// frameString builds the current frame without cursor control codes
func (s *spinner) frameString() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	for i := 0; i < 3; i++ {
		if (s.frame/3)%3 == i {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorPrimary).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("●"))
		}
		if i < 2 {
			dots.WriteString(" ")
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	return fmt.Sprintf("%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.w, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner without a message
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery analyzes a single prompt and prints the revealed reply followed
// by a metrics summary. With --raw the structured result is printed as JSON.
func runQuery(cmd *cobra.Command, deps *Dependencies, global *globalFlags, flags *queryFlags, prompt string) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := loadSettings(global)
	if err != nil {
		return err
	}

	logger, closeLog := openLogger(deps, cfg)
	defer closeLog()

	verbose := cfg.Verbose && !flags.raw
	if verbose {
		fmt.Fprintf(errOut, "[verbose] Model: %s\n", cfg.DefaultModel)
		fmt.Fprintf(errOut, "[verbose] Backend: %s\n", cfg.Backend)
	}

	analyzer, err := deps.NewAnalyzer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	var spin *spinner
	if !flags.raw {
		spin = newSpinner(errOut, "Calculating probability manifold")
		spin.start()
	}

	startTime := time.Now()
	resp := analyzer.Analyze(ctx, prompt)
	requestDuration := time.Since(startTime)

	if err := ctx.Err(); err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return fmt.Errorf("interrupted: %w", err)
	}
	if spin != nil {
		spin.stopWithSuccess("Manifold resolved")
	}

	if verbose {
		fmt.Fprintf(errOut, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	if flags.raw {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		data = append(data, '\n')
		if flags.output != "" {
			return writeOutput(flags.output, data)
		}
		_, err = out.Write(data)
		return err
	}

	if flags.output != "" {
		if err := writeOutput(flags.output, []byte(resp.Response)); err != nil {
			return err
		}
		fmt.Fprintln(errOut, lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Response saved to %s", flags.output)))
	} else {
		if err := printReveal(cmd, cfg, resp.Response); err != nil {
			return err
		}
		printMetrics(out, resp.Stats, getTerminalWidth())
	}

	if cfg.CopyToClipboard {
		if err := deps.Clipboard(resp.Response); err != nil {
			fmt.Fprintln(errOut, lipgloss.NewStyle().Foreground(colorWarning).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(errOut, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	return nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// printReveal prints the reply a chunk at a time on a terminal, or all at
// once when stdout is redirected
func printReveal(cmd *cobra.Command, cfg config.Config, text string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, assistantLabelStyle.Render("◆ LOGIC ENGINE"))

	if !isTerminal(out) {
		fmt.Fprintln(out, text)
		return nil
	}

	minDelay, maxDelay := cfg.RevealDelays()
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	reveal := conversation.NewReveal(models.NewMessageID(), text, rng, minDelay, maxDelay)

	err := reveal.Run(cmd.Context(), func(chunk string) {
		fmt.Fprint(out, chunk)
	})
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}

// printMetrics prints the gauges, scalar metrics and qubit histogram
func printMetrics(w io.Writer, stats models.Stats, termWidth int) {
	palette := visualizer.DefaultPalette()
	scene := visualizer.Render(&stats)

	gaugeWidth := min(max((termWidth-4)/2-2, 12), 30)
	gauges := lipgloss.JoinHorizontal(lipgloss.Top,
		visualizer.StaticGauge(scene.Entanglement, gaugeWidth, colorAccent, palette),
		"    ",
		visualizer.StaticGauge(scene.Superposition, gaugeWidth, colorPrimary, palette),
	)

	v := stats.SemanticVector
	scalars := dimStyle.Render(fmt.Sprintf("Entropy %.2f  •  Semantic vector (%.2f, %.2f, %.2f)",
		stats.Entropy, v.X, v.Y, v.Z))

	fmt.Fprintln(w, metricsTitleStyle.Render("SEMANTIC METRICS"))
	fmt.Fprintln(w, gauges)
	fmt.Fprintln(w, scalars)
	fmt.Fprintln(w, metricsTitleStyle.Render("QUBIT PROBABILITY DISTRIBUTION"))
	fmt.Fprintln(w, visualizer.RenderBars(scene.Bars, 4, 3, palette))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}
	return tui.FormatError(fmt.Errorf("%s: %w", context, err))
}
