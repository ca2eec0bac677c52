package conversation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/qsemantic/internal/models"
)

func newTestController() *Controller {
	n := 0
	fixed := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	return New(
		WithRand(seeded(42)),
		WithClock(func() time.Time { return fixed }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("msg-%03d", n)
		}),
	)
}

func runReveal(t *testing.T, c *Controller) {
	t.Helper()
	for i := 0; i < 100000; i++ {
		delay, done := c.Advance()
		if done {
			return
		}
		require.GreaterOrEqual(t, delay, DefaultMinDelay)
		require.Less(t, delay, DefaultMaxDelay)
	}
	t.Fatal("reveal did not complete")
}

func entropyResponse() models.QuantumResponse {
	return models.QuantumResponse{
		Response: "Entropy: the count of states a system could occupy without changing its appearance.",
		Stats: models.Stats{
			Entanglement:   0.7,
			Entropy:        0.4,
			Superposition:  0.6,
			QubitStates:    []float64{0.1, 0.05, 0.2, 0.15, 0.1, 0.2, 0.1, 0.1},
			SemanticVector: models.Vector{X: 0.5, Y: 0.1, Z: -0.3},
		},
	}
}

func TestSubmit_BlankIsNoop(t *testing.T) {
	for _, text := range []string{"", " ", "\n\t  "} {
		c := newTestController()
		c.SetDraft(text)

		_, ok := c.Submit(text)

		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
		assert.False(t, c.Busy())
		assert.Equal(t, text, c.Draft(), "draft kept on no-op")
	}
}

func TestSubmit_AppendsUserMessage(t *testing.T) {
	c := newTestController()
	c.SetDraft("define entropy")

	prompt, ok := c.Submit("define entropy")

	require.True(t, ok)
	assert.Equal(t, "define entropy", prompt)
	assert.Empty(t, c.Draft())
	assert.True(t, c.InFlight())
	assert.True(t, c.Busy())

	msgs := c.History()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "define entropy", msgs[0].Text)
	assert.Equal(t, "msg-001", msgs[0].ID)
	assert.Nil(t, msgs[0].Stats)
}

func TestSubmit_NoopWhileInFlight(t *testing.T) {
	c := newTestController()
	_, ok := c.Submit("first")
	require.True(t, ok)

	_, ok = c.Submit("second")

	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestSubmit_NoopWhileRevealing(t *testing.T) {
	c := newTestController()
	_, ok := c.Submit("first")
	require.True(t, ok)
	require.NotNil(t, c.OnAnalysisResult(entropyResponse()))
	require.False(t, c.InFlight())

	_, ok = c.Submit("second")

	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Busy())
}

func TestDefineEntropyScenario(t *testing.T) {
	c := newTestController()
	resp := entropyResponse()

	_, ok := c.Submit("define entropy")
	require.True(t, ok)

	reveal := c.OnAnalysisResult(resp)
	require.NotNil(t, reveal)

	// Stats are visible before the reveal finishes
	require.NotNil(t, c.CurrentStats())
	assert.Equal(t, 0.7, c.CurrentStats().Entanglement)

	id, partial, streaming := c.Streaming()
	require.True(t, streaming)
	assert.Equal(t, reveal.ID(), id)
	assert.Empty(t, partial)
	assert.Equal(t, 1, c.Len(), "assistant message not committed during reveal")

	var seen []string
	for {
		_, done := c.Advance()
		if done {
			break
		}
		_, partial, _ := c.Streaming()
		seen = append(seen, partial)
	}

	for i := 1; i < len(seen); i++ {
		require.True(t, strings.HasPrefix(seen[i], seen[i-1]), "partial text must only grow")
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, resp.Response, seen[len(seen)-1])

	msgs := c.History()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, resp.Response, msgs[1].Text)
	assert.Equal(t, id, msgs[1].ID)
	require.NotNil(t, msgs[1].Stats)
	assert.Equal(t, resp.Stats, *msgs[1].Stats)

	_, _, streaming = c.Streaming()
	assert.False(t, streaming)
	assert.False(t, c.Busy())
}

func TestFallbackScenario(t *testing.T) {
	c := newTestController()
	_, ok := c.Submit("define entropy")
	require.True(t, ok)

	c.OnAnalysisResult(models.FallbackResponse())
	runReveal(t, c)

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, models.FallbackText, last.Text)
	require.NotNil(t, last.Stats)
	assert.Equal(t, models.FallbackResponse().Stats, *last.Stats)
}

func TestStatsSnapshotIsolated(t *testing.T) {
	c := newTestController()
	resp := entropyResponse()
	_, _ = c.Submit("x")
	c.OnAnalysisResult(resp)
	runReveal(t, c)

	resp.Stats.QubitStates[0] = 99

	last, _ := c.Last()
	assert.Equal(t, 0.1, last.Stats.QubitStates[0])
	assert.Equal(t, 0.1, c.CurrentStats().QubitStates[0])
}

func TestOnAnalysisResult_WithoutRequest(t *testing.T) {
	c := newTestController()

	assert.Nil(t, c.OnAnalysisResult(entropyResponse()))
	assert.Nil(t, c.CurrentStats())
	assert.False(t, c.Busy())
}

func TestAdvance_Idle(t *testing.T) {
	c := newTestController()
	_, done := c.Advance()
	assert.True(t, done)
	assert.Equal(t, 0, c.Len())
}

func TestEmptyResponseStillCommits(t *testing.T) {
	c := newTestController()
	_, _ = c.Submit("x")
	c.OnAnalysisResult(models.QuantumResponse{})

	_, done := c.Advance()
	assert.True(t, done)
	require.Equal(t, 2, c.Len())
	last, _ := c.Last()
	assert.Equal(t, "", last.Text)
}

func TestMultipleRounds_IDsOrdered(t *testing.T) {
	c := New(WithRand(seeded(5)))

	for i := 0; i < 3; i++ {
		_, ok := c.Submit(fmt.Sprintf("prompt %d", i))
		require.True(t, ok)
		c.OnAnalysisResult(entropyResponse())
		runReveal(t, c)
	}

	msgs := c.History()
	require.Len(t, msgs, 6)
	for i := 1; i < len(msgs); i++ {
		assert.Less(t, msgs[i-1].ID, msgs[i].ID)
	}
	for i, m := range msgs {
		want := models.RoleUser
		if i%2 == 1 {
			want = models.RoleAssistant
		}
		assert.Equal(t, want, m.Role)
	}

	last, ok := c.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, entropyResponse().Response, last.Text)
}

func TestHistoryIsCopy(t *testing.T) {
	c := newTestController()
	_, _ = c.Submit("x")

	msgs := c.History()
	msgs[0].Text = "tampered"

	assert.Equal(t, "x", c.History()[0].Text)
}

func TestWithHistory(t *testing.T) {
	seed := []models.ChatMessage{
		{ID: "a", Role: models.RoleUser, Text: "old"},
		{ID: "b", Role: models.RoleAssistant, Text: "reply"},
	}
	c := New(WithHistory(seed))
	seed[0].Text = "changed"

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "old", c.History()[0].Text)
	assert.Nil(t, c.CurrentStats())

	stats := entropyResponse().Stats
	seed[1].Stats = &stats
	c = New(WithHistory(seed))
	require.NotNil(t, c.CurrentStats())
	assert.Equal(t, 0.7, c.CurrentStats().Entanglement)
}
