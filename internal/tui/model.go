package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/qsemantic/internal/conversation"
	"github.com/diogo/qsemantic/internal/logging"
	"github.com/diogo/qsemantic/internal/models"
	"github.com/diogo/qsemantic/internal/render"
	"github.com/diogo/qsemantic/internal/visualizer"
)

const (
	animationInterval = 80 * time.Millisecond
	frameInterval     = 60 * time.Millisecond

	// Below this width the side panel collapses into a one-line summary
	sidePanelMinWidth = 100
	sidePanelWidth    = 44
)

// Analyzer turns a prompt into a structured reply. It never fails; errors
// are absorbed into a fallback reply.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) models.QuantumResponse
}

// SessionRecorder persists committed messages
type SessionRecorder interface {
	AppendMessage(id string, msg models.ChatMessage) error
}

// Message types for the TUI
type (
	animationTickMsg time.Time
	frameTickMsg     time.Time

	analysisMsg struct {
		resp models.QuantumResponse
	}

	// revealTickMsg advances the reveal identified by id; ticks for any
	// other reveal are dropped.
	revealTickMsg struct {
		id string
	}
)

// Options configures a chat model
type Options struct {
	ModelName string
	SessionID string

	// Store and StoreSessionID enable persistence; Store may be nil.
	Store          SessionRecorder
	StoreSessionID string
	History        []models.ChatMessage

	RevealMinDelay time.Duration
	RevealMaxDelay time.Duration
	Markdown       render.Options
	Logger         *slog.Logger

	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
	Rand      *rand.Rand
}

// Model represents the chat TUI state
type Model struct {
	ctx      context.Context
	analyzer Analyzer
	conv     *conversation.Controller

	modelName string
	sessionID string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	entBar   progress.Model
	supBar   progress.Model

	// Visualizer state, rebuilt whenever the snapshot changes
	scene      visualizer.Scene
	animator   *visualizer.Animator
	frame      visualizer.Frame
	sceneStats *models.Stats
	framing    bool
	rng        *rand.Rand

	// Commands produced while building the model, issued by Init
	initCmds []tea.Cmd

	// State
	ready          bool
	animationFrame int
	notice         string

	store          SessionRecorder
	storeSessionID string
	markdown       render.Options
	logger         *slog.Logger
	copyText       func(string) error

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(ctx context.Context, analyzer Analyzer, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Inject linguistic vector..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	convOpts := []conversation.Option{
		conversation.WithRand(rng),
		conversation.WithHistory(opts.History),
	}
	if opts.RevealMinDelay > 0 {
		convOpts = append(convOpts, conversation.WithRevealDelays(opts.RevealMinDelay, opts.RevealMaxDelay))
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	markdown := opts.Markdown
	if markdown.Style == "" {
		markdown = render.DefaultOptions()
	}

	m := Model{
		ctx:            ctx,
		analyzer:       analyzer,
		conv:           conversation.New(convOpts...),
		modelName:      opts.ModelName,
		sessionID:      opts.SessionID,
		textarea:       ta,
		spinner:        s,
		entBar:         visualizer.NewGaugeBar(16, colorAccent, colorBorder),
		supBar:         visualizer.NewGaugeBar(16, colorPrimary, colorBorder),
		rng:            rng,
		store:          opts.Store,
		storeSessionID: opts.StoreSessionID,
		markdown:       markdown,
		logger:         logger,
		copyText:       copyText,
	}
	m.initCmds = m.refreshScene(time.Now())
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(append([]tea.Cmd{textarea.Blink}, m.initCmds...)...)
}

func animationTick() tea.Cmd {
	return tea.Tick(animationInterval, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func revealTick(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return revealTickMsg{id: id}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+y":
			m.copyLastReply()
			return m, nil

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if !m.conv.Busy() && (input == "exit" || input == "quit" || input == "/exit" || input == "/quit") {
				return m, tea.Quit
			}
			// Ignored submissions (blank or busy) keep the draft as is
			cmd = m.submit()
			return m, cmd
		}

	case analysisMsg:
		reveal := m.conv.OnAnalysisResult(msg.resp)
		if reveal == nil {
			return m, nil
		}
		cmds = append(cmds, m.refreshScene(time.Now())...)
		cmds = append(cmds, revealTick(reveal.ID(), reveal.Delay()))
		m.updateViewport()
		m.viewport.GotoBottom()

	case revealTickMsg:
		active := m.conv.ActiveReveal()
		if active == nil || active.ID() != msg.id {
			return m, nil
		}
		delay, done := m.conv.Advance()
		if done {
			m.persistLast()
		} else {
			cmds = append(cmds, revealTick(msg.id, delay))
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case frameTickMsg:
		if m.animator == nil || !m.scene.HasVector() {
			m.framing = false
			return m, nil
		}
		m.frame = m.animator.Frame(time.Time(msg))
		cmds = append(cmds, frameTick())

	case progress.FrameMsg:
		var model tea.Model
		model, cmd = m.entBar.Update(msg)
		m.entBar = model.(progress.Model)
		cmds = append(cmds, cmd)
		model, cmd = m.supBar.Update(msg)
		m.supBar = model.(progress.Model)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if m.conv.InFlight() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.conv.InFlight() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea, and only while idle, to prevent
	// escape sequence leaks
	if !m.conv.Busy() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
			m.conv.SetDraft(m.textarea.Value())
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit hands the draft to the controller and starts the analysis
// request. It returns nil when the controller ignores the submission.
func (m *Model) submit() tea.Cmd {
	prompt, ok := m.conv.Submit(m.textarea.Value())
	if !ok {
		return nil
	}

	m.textarea.Reset()
	m.notice = ""
	m.animationFrame = 0
	m.persistLast()
	m.updateViewport()
	m.viewport.GotoBottom()

	return tea.Batch(
		m.analyze(prompt),
		m.spinner.Tick,
		animationTick(),
	)
}

// analyze creates a command that runs the analysis request
func (m Model) analyze(prompt string) tea.Cmd {
	ctx, analyzer := m.ctx, m.analyzer
	return func() tea.Msg {
		if analyzer == nil {
			return analysisMsg{resp: models.FallbackResponse()}
		}
		return analysisMsg{resp: analyzer.Analyze(ctx, prompt)}
	}
}

// refreshScene rebuilds the scene and animator when the current snapshot
// changed. The previous animator is discarded.
func (m *Model) refreshScene(now time.Time) []tea.Cmd {
	stats := m.conv.CurrentStats()
	if m.animator != nil && stats == m.sceneStats {
		return nil
	}

	m.sceneStats = stats
	m.scene = visualizer.Render(stats)
	m.animator = visualizer.NewAnimator(m.scene, now, m.rng)
	m.frame = m.animator.Frame(now)

	cmds := []tea.Cmd{
		m.entBar.SetPercent(m.scene.Entanglement.Value),
		m.supBar.SetPercent(m.scene.Superposition.Value),
	}
	if m.scene.HasVector() && !m.framing {
		m.framing = true
		cmds = append(cmds, frameTick())
	}
	return cmds
}

// persistLast saves the newest committed message when a store is set
func (m *Model) persistLast() {
	if m.store == nil || m.storeSessionID == "" {
		return
	}
	msg, ok := m.conv.Last()
	if !ok {
		return
	}
	if err := m.store.AppendMessage(m.storeSessionID, msg); err != nil {
		m.logger.LogAttrs(m.ctx, slog.LevelWarn, "history append failed",
			slog.String("session", m.storeSessionID),
			slog.String("error", err.Error()),
		)
		m.notice = fmt.Sprintf("history not saved: %v", err)
	}
}

func (m *Model) copyLastReply() {
	msg, ok := m.conv.LastAssistant()
	if !ok {
		m.notice = "nothing to copy yet"
		return
	}
	if err := m.copyText(msg.Text); err != nil {
		m.notice = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.notice = "copied last reply to clipboard"
}

// layout returns the chat column width and the side panel width (0 when
// collapsed)
func (m Model) layout() (chatWidth, panelWidth int) {
	if m.width >= sidePanelMinWidth {
		panelWidth = sidePanelWidth
	}
	chatWidth = m.width - panelWidth - 4
	if panelWidth > 0 {
		chatWidth -= 1
	}
	return max(chatWidth, 20), panelWidth
}

func (m *Model) resize() {
	headerHeight := 3
	inputHeight := 4
	statusHeight := 1

	vpHeight := max(m.height-headerHeight-inputHeight-statusHeight-2, 5)
	chatWidth, panelWidth := m.layout()
	if panelWidth == 0 {
		vpHeight = max(vpHeight-1, 5)
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(m.width - 8)

	barWidth := max((panelWidth-6)/2, 8)
	m.entBar.Width = barWidth
	m.supBar.Width = barWidth

	m.updateViewport()
}

// updateViewport refreshes the viewport content with styled messages and
// the in-progress reveal
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := max(m.viewport.Width-6, 10)

	for i, msg := range m.conv.History() {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}

	if _, partial, ok := m.conv.Streaming(); ok {
		if m.conv.Len() > 0 {
			content.WriteString("\n")
		}
		label := assistantLabelStyle.Render("◆ Streaming Logic...")
		bubble := streamingBubbleStyle.Width(bubbleWidth).Render(partial + cursorStyle.Render("▌"))
		content.WriteString(label + "\n" + bubble + "\n")
	}

	m.viewport.SetContent(content.String())
}

func (m Model) renderMessage(msg models.ChatMessage, bubbleWidth int) string {
	stamp := timestampStyle.Render(" • " + msg.Timestamp.Format("15:04"))

	if msg.Role == models.RoleUser {
		label := userLabelStyle.Render(strings.ToUpper(msg.Label())) + stamp
		bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
		return label + "\n" + bubble
	}

	label := assistantLabelStyle.Render(strings.ToUpper(msg.Label())) + stamp
	rendered := render.MarkdownOrPlain(msg.Text, m.markdown.WithWidth(bubbleWidth-4))
	bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
	return label + "\n" + bubble
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 2

	// Header
	headerParts := []string{
		titleStyle.Render("● Live Semantic Stream"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.modelName),
	}
	if m.sessionID != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render("Session ID: "),
			titleStyle.Render(m.sessionID),
		)
	}
	sections = append(sections, headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)))

	// Chat column and side panel
	var chatContent string
	if m.conv.Len() == 0 && !m.conv.Busy() {
		chatContent = m.renderWelcome()
	} else {
		chatContent = m.viewport.View()
	}
	chatWidth, panelWidth := m.layout()
	chatPanel := messagesAreaStyle.
		Width(chatWidth + 2).
		Height(m.viewport.Height).
		Render(chatContent)

	if panelWidth > 0 {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidePanel(panelWidth), " ", chatPanel))
	} else {
		sections = append(sections, m.renderMetricsLine(), chatPanel)
	}

	// Input
	var inputContent string
	switch {
	case m.conv.InFlight():
		inputContent = m.renderLoadingAnimation()
	case m.conv.Busy():
		inputContent = hintStyle.Render("  Receiving logic stream...")
	default:
		inputContent = lipgloss.JoinHorizontal(lipgloss.Top,
			inputLabelStyle.Render("›"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("  "+m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width
	height := m.viewport.Height

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeIconStyle.Width(width).Render("◌"),
		"",
		welcomeTitleStyle.Width(width).Render("Initialize Quantum Dialogue"),
		"",
		welcomeStyle.Width(width).Render("The semantic engine is waiting for your linguistic vector."),
	)

	topPadding := max((height-lipgloss.Height(content))/2, 0)
	return strings.Repeat("\n", topPadding) + content
}

// renderSidePanel renders the projection, gauges, histogram and engine status
func (m Model) renderSidePanel(width int) string {
	inner := width - 4

	canvasRows := max(min(inner/2, m.height-28), 7)
	canvas := visualizer.NewCanvas(inner, canvasRows, scenePalette)

	gauges := lipgloss.JoinHorizontal(lipgloss.Top,
		visualizer.RenderGauge(m.scene.Entanglement, m.entBar.View(), colorAccent, scenePalette),
		"  ",
		visualizer.RenderGauge(m.scene.Superposition, m.supBar.View(), colorPrimary, scenePalette),
	)

	nBars := max(len(m.scene.Bars), 1)
	colWidth := max((inner-(nBars-1))/nBars, 1)
	bars := visualizer.RenderBars(m.scene.Bars, 5, colWidth, scenePalette)

	status := lipgloss.JoinVertical(lipgloss.Left,
		panelTitleStyle.Render("ENGINE STATUS")+"  "+statusOkStyle.Render("● OPERATIONAL"),
		statusKeyLabel.Render("Decoherence Rate  ")+statusValue.Render("0.002 ps"),
		statusKeyLabel.Render("Active Qubits     ")+statusValue.Render("512 Logical"),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		panelTitleStyle.Render("BLOCH SPHERE PROJECTION"),
		canvas.Draw(m.scene, m.frame),
		"",
		gauges,
		"",
		panelTitleStyle.Render("QUBIT PROBABILITY DISTRIBUTION"),
		bars,
		"",
		status,
	)
	return panelStyle.Width(width - 2).Render(content)
}

// renderMetricsLine is the compact stand-in for the side panel on narrow
// terminals
func (m Model) renderMetricsLine() string {
	return hintStyle.Render(fmt.Sprintf("  %s %s  •  %s %s",
		m.scene.Entanglement.Label, m.scene.Entanglement.Percent(),
		m.scene.Superposition.Label, m.scene.Superposition.Percent()))
}

// renderLoadingAnimation renders the animated in-flight indicator
func (m Model) renderLoadingAnimation() string {
	frame := m.animationFrame

	dots := make([]string, 3)
	for i := range dots {
		if (frame/3)%3 == i {
			dots[i] = lipgloss.NewStyle().Foreground(colorPrimary).Render("●")
		} else {
			dots[i] = lipgloss.NewStyle().Foreground(colorTextMute).Render("●")
		}
	}

	text := lipgloss.NewStyle().Foreground(colorTextDim).Render(" CALCULATING PROBABILITY MANIFOLD...")
	return fmt.Sprintf("%s %s%s", m.spinner.View(), strings.Join(dots, " "), text)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy reply"},
		{"↑↓", "Scroll"},
		{"Esc", "Quit"},
	}

	items := make([]string, len(shortcuts))
	for i, s := range shortcuts {
		items[i] = statusKeyStyle.Render(s.key) + statusDescStyle.Render(" "+s.desc)
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// History returns the committed conversation
func (m Model) History() []models.ChatMessage {
	return m.conv.History()
}

// RunChat starts the chat TUI and blocks until it exits
func RunChat(ctx context.Context, analyzer Analyzer, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewChatModel(ctx, analyzer, opts)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
