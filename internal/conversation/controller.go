// Package conversation holds the chat state machine: history, draft input,
// the in-flight analysis request and the reveal of the current reply.
package conversation

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/diogo/qsemantic/internal/models"
)

// Controller owns the conversation state. It performs no I/O: callers run the
// analysis request and the reveal timer, and report back through
// OnAnalysisResult, Advance and OnRevealComplete.
//
// At most one request and one reveal exist at a time. Submit is a no-op
// while either is active.
type Controller struct {
	history []models.ChatMessage
	draft   string

	inFlight bool
	reveal   *Reveal

	current *models.Stats // latest snapshot, shown as soon as it arrives
	pending *models.Stats // snapshot attached to the message being revealed

	minDelay time.Duration
	maxDelay time.Duration

	now   func() time.Time
	newID func() string
	rng   *rand.Rand
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the time source for message timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDs sets the message identifier generator
func WithIDs(newID func() string) Option {
	return func(c *Controller) {
		c.newID = newID
	}
}

// WithRand sets the random source used for reveal pacing
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
	}
}

// WithRevealDelays sets the reveal step delay bounds
func WithRevealDelays(minDelay, maxDelay time.Duration) Option {
	return func(c *Controller) {
		c.minDelay = minDelay
		c.maxDelay = maxDelay
	}
}

// WithHistory seeds the controller with previously stored messages. The
// newest stored snapshot becomes the current one.
func WithHistory(msgs []models.ChatMessage) Option {
	return func(c *Controller) {
		c.history = append([]models.ChatMessage(nil), msgs...)
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Stats != nil {
				c.current = msgs[i].Stats.Clone()
				break
			}
		}
	}
}

// New creates an idle Controller
func New(opts ...Option) *Controller {
	c := &Controller{
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		now:      time.Now,
		newID:    models.NewMessageID,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c
}

// Submit appends a user message for text and marks a request in flight.
// It returns the prompt to analyze, or ok=false when text is blank or the
// controller is busy; in that case nothing changes.
func (c *Controller) Submit(text string) (prompt string, ok bool) {
	if strings.TrimSpace(text) == "" || c.Busy() {
		return "", false
	}

	c.history = append(c.history, models.ChatMessage{
		ID:        c.newID(),
		Role:      models.RoleUser,
		Text:      text,
		Timestamp: c.now(),
	})
	c.draft = ""
	c.inFlight = true
	return text, true
}

// OnAnalysisResult publishes the result's stats and starts revealing its
// text. It returns nil if no request was in flight.
func (c *Controller) OnAnalysisResult(resp models.QuantumResponse) *Reveal {
	if !c.inFlight {
		return nil
	}

	stats := resp.Stats
	c.current = stats.Clone()
	c.pending = stats.Clone()
	c.inFlight = false
	c.reveal = NewReveal(c.newID(), resp.Response, c.rng, c.minDelay, c.maxDelay)
	return c.reveal
}

// Advance performs one reveal step. It returns the delay before the next
// step, or done=true once the reveal has completed and the assistant
// message has been committed.
func (c *Controller) Advance() (delay time.Duration, done bool) {
	if c.reveal == nil {
		return 0, true
	}
	if _, ok := c.reveal.Next(); !ok {
		c.OnRevealComplete()
		return 0, true
	}
	return c.reveal.Delay(), false
}

// OnRevealComplete commits the revealed reply to history and clears the
// streaming state.
func (c *Controller) OnRevealComplete() {
	if c.reveal == nil {
		return
	}

	c.history = append(c.history, models.ChatMessage{
		ID:        c.reveal.ID(),
		Role:      models.RoleAssistant,
		Text:      c.reveal.Text(),
		Timestamp: c.now(),
		Stats:     c.pending,
	})
	c.reveal = nil
	c.pending = nil
}

// Busy reports whether a request or reveal is active
func (c *Controller) Busy() bool {
	return c.inFlight || c.reveal != nil
}

// InFlight reports whether an analysis request is outstanding
func (c *Controller) InFlight() bool {
	return c.inFlight
}

// Streaming returns the id and released text of the active reveal
func (c *Controller) Streaming() (id, partial string, ok bool) {
	if c.reveal == nil {
		return "", "", false
	}
	return c.reveal.ID(), c.reveal.Released(), true
}

// ActiveReveal returns the active reveal, or nil
func (c *Controller) ActiveReveal() *Reveal {
	return c.reveal
}

// CurrentStats returns the latest metrics snapshot, or nil before the first
// result.
func (c *Controller) CurrentStats() *models.Stats {
	return c.current
}

// History returns a copy of the committed messages in insertion order
func (c *Controller) History() []models.ChatMessage {
	return append([]models.ChatMessage(nil), c.history...)
}

// Len returns the number of committed messages
func (c *Controller) Len() int {
	return len(c.history)
}

// Last returns the most recent committed message
func (c *Controller) Last() (models.ChatMessage, bool) {
	if len(c.history) == 0 {
		return models.ChatMessage{}, false
	}
	return c.history[len(c.history)-1], true
}

// LastAssistant returns the most recent assistant message
func (c *Controller) LastAssistant() (models.ChatMessage, bool) {
	for i := len(c.history) - 1; i >= 0; i-- {
		if c.history[i].Role == models.RoleAssistant {
			return c.history[i], true
		}
	}
	return models.ChatMessage{}, false
}

// Draft returns the current input draft
func (c *Controller) Draft() string {
	return c.draft
}

// SetDraft replaces the input draft
func (c *Controller) SetDraft(s string) {
	c.draft = s
}
