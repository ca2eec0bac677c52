// Package tui provides the terminal user interface for qsemantic.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/render"
	"github.com/diogo/qsemantic/internal/visualizer"
)

// Color variables (updated from theme)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle lipgloss.Style

	userBubbleStyle lipgloss.Style
	userLabelStyle  lipgloss.Style

	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	streamingBubbleStyle lipgloss.Style
	cursorStyle          lipgloss.Style
	timestampStyle       lipgloss.Style

	// Side panel
	panelStyle      lipgloss.Style
	panelTitleStyle lipgloss.Style
	statusOkStyle   lipgloss.Style
	statusKeyLabel  lipgloss.Style
	statusValue     lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	errorStyle  lipgloss.Style
	noticeStyle lipgloss.Style

	welcomeTitleStyle lipgloss.Style
	welcomeIconStyle  lipgloss.Style
	welcomeStyle      lipgloss.Style

	// Session selector
	selectorTitleStyle    lipgloss.Style
	selectorPanelStyle    lipgloss.Style
	selectorItemStyle     lipgloss.Style
	selectorSelectedStyle lipgloss.Style
	selectorCursorStyle   lipgloss.Style
	selectorMetaStyle     lipgloss.Style
)

// Palette for the visualizer panel
var scenePalette visualizer.Palette

func init() {
	UpdateTheme(render.QuantumTheme.Name)
}

// UpdateTheme applies the named theme; unknown names fall back to the
// default theme.
func UpdateTheme(name string) {
	theme := render.ThemeOrDefault(name)

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	scenePalette = visualizer.Palette{
		Guide:    theme.Border,
		Vector:   theme.Primary,
		Particle: theme.Primary,
		BarLow:   theme.Accent,
		BarHigh:  theme.Primary,
		Label:    theme.TextDim,
		Value:    theme.Text,
	}

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	streamingBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	cursorStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Blink(true)

	timestampStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	statusOkStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true)

	statusKeyLabel = lipgloss.NewStyle().
		Foreground(colorTextDim)

	statusValue = lipgloss.NewStyle().
		Foreground(colorText)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Align(lipgloss.Center)

	welcomeIconStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Align(lipgloss.Center)

	welcomeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	selectorTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		PaddingLeft(1)

	selectorPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Background(colorSurface).
		Padding(1, 2)

	selectorItemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	selectorSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	selectorCursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	selectorMetaStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)
}

// FormatError returns a styled error message with additional context
// extracted from the structured error types.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	switch {
	case errors.Is(err, apierrors.ErrNoAPIKey):
		sb.WriteString(dimStyle.Render("\n  Hint: export GEMINI_API_KEY or run 'qsemantic config set api_key <key>'"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Raise timeout_seconds or try again"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	}

	return sb.String()
}
