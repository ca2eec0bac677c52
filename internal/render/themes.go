package render

import (
	"github.com/charmbracelet/lipgloss"
)

// TUITheme defines the color scheme for the TUI interface
type TUITheme struct {
	Name        string
	Description string

	// Base colors
	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	// Accent colors. Primary also colors the state vector and particles,
	// Accent the lower end of the qubit bars.
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	// Text colors
	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

// Built-in TUI themes
var (
	// QuantumTheme is the default slate theme with cyan and purple accents
	QuantumTheme = TUITheme{
		Name:        "quantum",
		Description: "Quantum - Slate background with cyan and purple accents",

		Background: lipgloss.Color("#020617"),
		Surface:    lipgloss.Color("#0f172a"),
		Border:     lipgloss.Color("#334155"),

		Primary:   lipgloss.Color("#22d3ee"), // Cyan
		Secondary: lipgloss.Color("#94a3b8"), // Slate
		Accent:    lipgloss.Color("#c084fc"), // Purple
		Warning:   lipgloss.Color("#fbbf24"),
		Error:     lipgloss.Color("#f87171"),

		Text:     lipgloss.Color("#e2e8f0"),
		TextDim:  lipgloss.Color("#64748b"),
		TextMute: lipgloss.Color("#1e293b"),
	}

	// TokyoNightTheme is based on the Tokyo Night color scheme
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",

		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#24283b"),
		Border:     lipgloss.Color("#414868"),

		Primary:   lipgloss.Color("#7aa2f7"),
		Secondary: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),

		Text:     lipgloss.Color("#c0caf5"),
		TextDim:  lipgloss.Color("#565f89"),
		TextMute: lipgloss.Color("#3b4261"),
	}

	// DraculaTheme is based on the Dracula color palette
	DraculaTheme = TUITheme{
		Name:        "dracula",
		Description: "Dracula - Dark theme with vibrant colors",

		Background: lipgloss.Color("#282a36"),
		Surface:    lipgloss.Color("#44475a"),
		Border:     lipgloss.Color("#6272a4"),

		Primary:   lipgloss.Color("#8be9fd"), // Cyan
		Secondary: lipgloss.Color("#50fa7b"), // Green
		Accent:    lipgloss.Color("#ff79c6"), // Pink
		Warning:   lipgloss.Color("#f1fa8c"), // Yellow
		Error:     lipgloss.Color("#ff5555"), // Red

		Text:     lipgloss.Color("#f8f8f2"),
		TextDim:  lipgloss.Color("#6272a4"),
		TextMute: lipgloss.Color("#44475a"),
	}
)

var availableThemes = []TUITheme{QuantumTheme, TokyoNightTheme, DraculaTheme}

// GetTUIThemeByName returns a TUI theme by its name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range availableThemes {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// ThemeOrDefault returns the named theme, or QuantumTheme if it is unknown
func ThemeOrDefault(name string) TUITheme {
	if t, ok := GetTUIThemeByName(name); ok {
		return t
	}
	return QuantumTheme
}

// TUIThemeNames returns the theme names for selection
func TUIThemeNames() []string {
	names := make([]string, len(availableThemes))
	for i, t := range availableThemes {
		names[i] = t.Name
	}
	return names
}
