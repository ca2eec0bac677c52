package tui

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/diogo/qsemantic/internal/models"
)

// mockAnalyzer is a mock implementation of Analyzer for testing
type mockAnalyzer struct {
	resp    models.QuantumResponse
	prompts []string
}

func (m *mockAnalyzer) Analyze(_ context.Context, prompt string) models.QuantumResponse {
	m.prompts = append(m.prompts, prompt)
	return m.resp
}

// mockRecorder is a mock implementation of SessionRecorder for testing
type mockRecorder struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	err      error
}

func (r *mockRecorder) AppendMessage(_ string, msg models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func entropyResponse() models.QuantumResponse {
	return models.QuantumResponse{
		Response: "Entropy is the measure of missing information.",
		Stats: models.Stats{
			Entanglement:   0.72,
			Entropy:        0.41,
			Superposition:  0.63,
			QubitStates:    []float64{0.1, 0.05, 0.2, 0.15, 0.1, 0.2, 0.1, 0.1},
			SemanticVector: models.Vector{X: 0.5, Y: 0.1, Z: -0.3},
		},
	}
}

func newTestModel(t *testing.T, analyzer Analyzer, opts Options) Model {
	t.Helper()
	if opts.ModelName == "" {
		opts.ModelName = "gemini-3-flash-preview"
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	opts.RevealMinDelay = time.Millisecond
	opts.RevealMaxDelay = 2 * time.Millisecond

	m := NewChatModel(context.Background(), analyzer, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T", updated)
	}
	return model, cmd
}

func enterKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// drainReveal feeds reveal ticks until the active reveal completes
func drainReveal(t *testing.T, m Model) Model {
	t.Helper()
	reveal := m.conv.ActiveReveal()
	if reveal == nil {
		t.Fatal("no active reveal")
	}
	id := reveal.ID()
	for i := 0; m.conv.Busy(); i++ {
		if i > len(reveal.Text())+2 {
			t.Fatal("reveal did not complete")
		}
		m, _ = update(t, m, revealTickMsg{id: id})
	}
	return m
}

func TestNewChatModel(t *testing.T) {
	m := NewChatModel(context.Background(), &mockAnalyzer{}, Options{ModelName: "m"})

	if m.textarea.Placeholder != "Inject linguistic vector..." {
		t.Errorf("Placeholder = %q", m.textarea.Placeholder)
	}
	if m.conv.Len() != 0 || m.conv.Busy() {
		t.Error("new model should be idle with no history")
	}
	if m.scene.HasVector() {
		t.Error("no vector should be drawn before the first result")
	}
	if len(m.scene.Bars) != models.QubitCount {
		t.Errorf("expected default distribution, got %d bars", len(m.scene.Bars))
	}
	if m.Init() == nil {
		t.Error("Init should return a command")
	}
}

func TestModel_View_NotReady(t *testing.T) {
	m := NewChatModel(context.Background(), &mockAnalyzer{}, Options{})
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("expected initializing view before the first resize")
	}
}

func TestModel_View_Welcome(t *testing.T) {
	m := newTestModel(t, &mockAnalyzer{}, Options{SessionID: "0196c3a1"})
	view := ansi.Strip(m.View())

	for _, want := range []string{
		"Live Semantic Stream",
		"Session ID: 0196c3a1",
		"Initialize Quantum Dialogue",
		"waiting for your linguistic vector",
		"BLOCH SPHERE PROJECTION",
		"QUBIT PROBABILITY DISTRIBUTION",
		"OPERATIONAL",
		"512 Logical",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_View_Narrow(t *testing.T) {
	m := newTestModel(t, &mockAnalyzer{}, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	view := ansi.Strip(m.View())
	if strings.Contains(view, "BLOCH SPHERE PROJECTION") {
		t.Error("side panel should collapse on narrow terminals")
	}
	if !strings.Contains(view, "Entanglement 0.0%") {
		t.Errorf("expected compact metrics line, got:\n%s", view)
	}
}

func TestModel_Submit_Blank(t *testing.T) {
	analyzer := &mockAnalyzer{resp: entropyResponse()}
	m := newTestModel(t, analyzer, Options{})

	m.textarea.SetValue("   ")
	m, _ = update(t, m, enterKey())

	if m.conv.Len() != 0 || m.conv.Busy() {
		t.Error("blank submission should be a no-op")
	}
}

func TestModel_Submit_FullCycle(t *testing.T) {
	analyzer := &mockAnalyzer{resp: entropyResponse()}
	recorder := &mockRecorder{}
	m := newTestModel(t, analyzer, Options{Store: recorder, StoreSessionID: "s1"})

	m.textarea.SetValue("define entropy")
	m, cmd := update(t, m, enterKey())
	if cmd == nil {
		t.Fatal("submit should return a command")
	}
	if m.textarea.Value() != "" {
		t.Errorf("input not cleared: %q", m.textarea.Value())
	}
	if !m.conv.InFlight() || m.conv.Len() != 1 {
		t.Fatalf("expected one user message in flight, len=%d", m.conv.Len())
	}
	if !strings.Contains(ansi.Strip(m.View()), "CALCULATING PROBABILITY MANIFOLD") {
		t.Error("expected loading indicator while in flight")
	}

	msg := m.analyze("define entropy")()
	if len(analyzer.prompts) != 1 || analyzer.prompts[0] != "define entropy" {
		t.Errorf("analyzer prompts = %v", analyzer.prompts)
	}

	m, cmd = update(t, m, msg)
	if cmd == nil {
		t.Error("analysis result should schedule reveal ticks")
	}
	stats := m.conv.CurrentStats()
	if stats == nil || stats.Entanglement != 0.72 {
		t.Fatalf("stats not published: %+v", stats)
	}
	if !m.scene.HasVector() {
		t.Error("scene should carry the semantic vector")
	}
	if _, _, ok := m.conv.Streaming(); !ok {
		t.Fatal("expected an active reveal")
	}
	if !strings.Contains(ansi.Strip(m.View()), "Streaming Logic...") {
		t.Error("expected streaming bubble")
	}

	m = drainReveal(t, m)

	history := m.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[1].Role != models.RoleAssistant || history[1].Text != entropyResponse().Response {
		t.Errorf("assistant message = %+v", history[1])
	}
	if history[1].Stats == nil || history[1].Stats.Superposition != 0.63 {
		t.Errorf("assistant stats = %+v", history[1].Stats)
	}
	if len(recorder.messages) != 2 {
		t.Errorf("recorded %d messages, want 2", len(recorder.messages))
	}
	if !strings.Contains(ansi.Strip(m.View()), "LINGUISTIC SOURCE") {
		t.Error("expected user label in transcript")
	}
}

func TestModel_Submit_WhileBusy(t *testing.T) {
	m := newTestModel(t, &mockAnalyzer{resp: entropyResponse()}, Options{})

	m.textarea.SetValue("first")
	m, _ = update(t, m, enterKey())

	m.textarea.SetValue("second")
	m, cmd := update(t, m, enterKey())
	if cmd != nil {
		t.Error("enter while busy should not issue a request")
	}
	if m.conv.Len() != 1 {
		t.Errorf("history length = %d, want 1", m.conv.Len())
	}
}

func TestModel_StaleRevealTick(t *testing.T) {
	m := newTestModel(t, &mockAnalyzer{resp: entropyResponse()}, Options{})

	m.textarea.SetValue("define entropy")
	m, _ = update(t, m, enterKey())
	m, _ = update(t, m, analysisMsg{resp: entropyResponse()})

	_, before, _ := m.conv.Streaming()
	m, cmd := update(t, m, revealTickMsg{id: "stale"})
	_, after, _ := m.conv.Streaming()

	if before != after {
		t.Error("stale tick advanced the reveal")
	}
	if cmd != nil {
		t.Error("stale tick should not reschedule")
	}
}

func TestModel_AnalysisWithoutRequest(t *testing.T) {
	m := newTestModel(t, &mockAnalyzer{}, Options{})

	m, cmd := update(t, m, analysisMsg{resp: entropyResponse()})
	if cmd != nil || m.conv.CurrentStats() != nil {
		t.Error("unsolicited result should be ignored")
	}
}

func TestModel_PersistError(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("disk full")}
	m := newTestModel(t, &mockAnalyzer{}, Options{Store: recorder, StoreSessionID: "s1"})

	m.textarea.SetValue("hello")
	m, _ = update(t, m, enterKey())

	if !strings.Contains(m.notice, "disk full") {
		t.Errorf("notice = %q", m.notice)
	}
	if !m.conv.InFlight() {
		t.Error("persistence failure must not block the request")
	}
}

func TestModel_CopyLastReply(t *testing.T) {
	var copied string
	m := newTestModel(t, &mockAnalyzer{}, Options{
		Clipboard: func(s string) error {
			copied = s
			return nil
		},
	})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.notice != "nothing to copy yet" {
		t.Errorf("notice = %q", m.notice)
	}

	m.textarea.SetValue("define entropy")
	m, _ = update(t, m, enterKey())
	m, _ = update(t, m, analysisMsg{resp: entropyResponse()})
	m = drainReveal(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != entropyResponse().Response {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(m.notice, "copied") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_FrameTick(t *testing.T) {
	m := newTestModel(t, &mockAnalyzer{}, Options{})

	m, cmd := update(t, m, frameTickMsg(time.Now()))
	if cmd != nil {
		t.Error("no frame ticks without a vector")
	}

	m.textarea.SetValue("x")
	m, _ = update(t, m, enterKey())
	m, _ = update(t, m, analysisMsg{resp: entropyResponse()})
	if !m.framing {
		t.Error("frame loop should start with the first vector")
	}

	_, cmd = update(t, m, frameTickMsg(time.Now().Add(500*time.Millisecond)))
	if cmd == nil {
		t.Error("frame loop should continue while a vector is shown")
	}
}

func TestModel_ResumedHistory(t *testing.T) {
	stats := entropyResponse().Stats
	history := []models.ChatMessage{
		{ID: "1", Role: models.RoleUser, Text: "define entropy", Timestamp: time.Now()},
		{ID: "2", Role: models.RoleAssistant, Text: "Missing information.", Timestamp: time.Now(), Stats: &stats},
	}
	m := newTestModel(t, &mockAnalyzer{}, Options{History: history})

	if m.conv.Len() != 2 {
		t.Errorf("history length = %d", m.conv.Len())
	}
	if m.scene.Entanglement.Value != 0.72 {
		t.Errorf("resumed scene entanglement = %v", m.scene.Entanglement.Value)
	}
	view := ansi.Strip(m.View())
	if strings.Contains(view, "Initialize Quantum Dialogue") {
		t.Error("welcome screen shown for a resumed session")
	}
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		text string
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, ""},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, ""},
		{"exit command", enterKey(), "exit"},
		{"quit command", enterKey(), "/quit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, &mockAnalyzer{}, Options{})
			m.textarea.SetValue(tt.text)

			_, cmd := update(t, m, tt.msg)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})
	}
}

func TestModel_NilAnalyzerFallsBack(t *testing.T) {
	m := newTestModel(t, nil, Options{})
	msg, ok := m.analyze("x")().(analysisMsg)
	if !ok {
		t.Fatal("expected analysisMsg")
	}
	if msg.resp.Response != models.FallbackText {
		t.Errorf("response = %q", msg.resp.Response)
	}
}
