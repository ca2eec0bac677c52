package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/qsemantic/internal/history"
)

// SessionLister is the part of the history store the selector needs
type SessionLister interface {
	ListSessions() ([]*history.Session, error)
}

// sessionsLoadedMsg is sent when sessions are loaded
type sessionsLoadedMsg struct {
	sessions []*history.Session
	err      error
}

// SessionSelectorModel lets the user pick a saved session to resume
type SessionSelectorModel struct {
	store     SessionLister
	modelName string
	now       func() time.Time

	sessions []*history.Session

	// Cursor 0 is "New Session"
	cursor int

	loading   bool
	err       error
	confirmed bool
	selected  *history.Session

	width  int
	height int
	ready  bool
}

// NewSessionSelectorModel creates a new session selector
func NewSessionSelectorModel(store SessionLister, modelName string) SessionSelectorModel {
	return SessionSelectorModel{
		store:     store,
		modelName: modelName,
		now:       time.Now,
		loading:   true,
	}
}

// Init starts loading sessions
func (m SessionSelectorModel) Init() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		sessions, err := store.ListSessions()
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

// Update handles messages and updates the model
func (m SessionSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case sessionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.sessions = msg.sessions

	case tea.KeyMsg:
		if m.loading {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.sessions)
			}

		case "down", "j":
			m.cursor++
			if m.cursor > len(m.sessions) {
				m.cursor = 0
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.sessions)

		case "enter":
			m.confirmed = true
			m.selected = nil
			if m.cursor > 0 {
				m.selected = m.sessions[m.cursor-1]
			}
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the selector
func (m SessionSelectorModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.loading {
		return loadingStyle.Render("  Loading sessions...")
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	width := max(m.width-4, 40)

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		selectorTitleStyle.Render("Resume Session"),
		hintStyle.Render(fmt.Sprintf("  Model: %s", m.modelName)),
	)

	items := []string{m.renderItem(0, "+ New Session", "")}
	if len(m.sessions) == 0 {
		items = append(items, hintStyle.Render("  No saved sessions"))
	} else {
		maxItems := max(5, m.height-10)
		offset := 0
		if m.cursor >= maxItems {
			offset = m.cursor - maxItems + 1
		}
		end := min(offset+maxItems, len(m.sessions)+1)

		for i := max(offset, 1); i < end; i++ {
			sess := m.sessions[i-1]
			meta := fmt.Sprintf(" [%s] %d msgs - %s",
				sess.ShortID(), len(sess.Messages), history.FormatRelativeTime(sess.UpdatedAt, m.now()))
			items = append(items, m.renderItem(i, sess.Title, meta))
		}
		if offset > 0 {
			items = append([]string{hintStyle.Render("  ...")}, items...)
		}
		if end < len(m.sessions)+1 {
			items = append(items, hintStyle.Render("  ..."))
		}
	}

	list := selectorPanelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, append([]string{header, ""}, items...)...))

	bar := strings.Join([]string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Select"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Quit"),
	}, "  │  ")

	return lipgloss.JoinVertical(lipgloss.Left,
		list,
		statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar),
	)
}

func (m SessionSelectorModel) renderItem(index int, title, meta string) string {
	cursor := "  "
	style := selectorItemStyle
	if index == m.cursor {
		cursor = selectorCursorStyle.Render("> ")
		style = selectorSelectedStyle
	}
	line := cursor + style.Render(title)
	if meta != "" {
		line += selectorMetaStyle.Render(meta)
	}
	return line
}

// Result returns the chosen session (nil for a new one) and whether the
// user confirmed a choice
func (m SessionSelectorModel) Result() (*history.Session, bool) {
	return m.selected, m.confirmed
}

// RunSessionSelector shows the selector and returns the user's choice
func RunSessionSelector(store SessionLister, modelName string) (*history.Session, bool, error) {
	p := tea.NewProgram(NewSessionSelectorModel(store, modelName), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return nil, false, err
	}
	if sm, ok := final.(SessionSelectorModel); ok {
		sess, confirmed := sm.Result()
		return sess, confirmed, nil
	}
	return nil, false, nil
}
