package conversation

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

// Default reveal pacing
const (
	DefaultMinDelay = 15 * time.Millisecond
	DefaultMaxDelay = 40 * time.Millisecond
	maxChunkRunes   = 2
)

// Reveal releases a text one or two runes at a time, simulating a response
// arriving over the wire. A Reveal is not safe for concurrent use.
type Reveal struct {
	id       string
	runes    []rune
	pos      int
	released strings.Builder
	rng      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

// NewReveal creates a reveal over text. rng may be nil.
func NewReveal(id, text string, rng *rand.Rand, minDelay, maxDelay time.Duration) *Reveal {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	if maxDelay <= minDelay {
		maxDelay = minDelay + time.Millisecond
	}
	return &Reveal{
		id:       id,
		runes:    []rune(text),
		rng:      rng,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// ID returns the identifier of the message being revealed
func (r *Reveal) ID() string { return r.id }

// Text returns the full text
func (r *Reveal) Text() string { return string(r.runes) }

// Released returns everything released so far
func (r *Reveal) Released() string { return r.released.String() }

// Remaining reports whether any runes are still unreleased
func (r *Reveal) Remaining() bool { return r.pos < len(r.runes) }

// Next releases the next chunk of one or two runes. ok is false once the
// whole text has been released.
func (r *Reveal) Next() (chunk string, ok bool) {
	if !r.Remaining() {
		return "", false
	}
	n := 1 + r.rng.IntN(maxChunkRunes)
	end := min(r.pos+n, len(r.runes))
	chunk = string(r.runes[r.pos:end])
	r.pos = end
	r.released.WriteString(chunk)
	return chunk, true
}

// Delay returns a pseudo-random wait in [minDelay, maxDelay)
func (r *Reveal) Delay() time.Duration {
	span := int64(r.maxDelay - r.minDelay)
	return r.minDelay + time.Duration(r.rng.Int64N(span))
}

// Run drives the reveal to completion, calling emit for every chunk after
// waiting Delay(). Cancelling ctx stops the loop and returns ctx.Err().
func (r *Reveal) Run(ctx context.Context, emit func(chunk string)) error {
	timer := time.NewTimer(r.Delay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		chunk, ok := r.Next()
		if !ok {
			return nil
		}
		if emit != nil {
			emit(chunk)
		}
		timer.Reset(r.Delay())
	}
}
