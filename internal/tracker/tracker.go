// Package tracker turns per-frame finger flags into press and release edges.
package tracker

import (
	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/hand"
)

// Event pairs a finger with the chord it plays.
type Event struct {
	Key   chord.Key
	Chord chord.Chord
}

// Step is the outcome of one frame.
type Step struct {
	Presses  []Event
	Releases []Event
	// Active holds the notes pressed in this frame, in press order.
	Active []uint8
	// Sweep is set when the frame had no hands and every finger was released.
	Sweep bool
}

// Empty reports whether the frame produced no events.
func (s Step) Empty() bool {
	return len(s.Presses) == 0 && len(s.Releases) == 0
}

// State is the "extended last frame" flag for every finger.
type State [chord.NumSides][chord.NumFingers]bool

// Tracker holds finger state between frames. Not safe for concurrent use;
// the frame loop owns it.
type Tracker struct {
	table     chord.Table
	sweepOnce bool

	state     State
	handsSeen bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// SweepOnce releases everything only on the first frame without hands,
// instead of on every such frame.
func SweepOnce(on bool) Option {
	return func(t *Tracker) { t.sweepOnce = on }
}

// New returns a tracker with every finger down.
func New(table chord.Table, opts ...Option) *Tracker {
	t := &Tracker{table: table, handsSeen: true}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Observe advances the tracker by one frame.
func (t *Tracker) Observe(hands []hand.Observation) Step {
	var step Step

	if len(hands) == 0 {
		if t.sweepOnce && !t.handsSeen {
			return step
		}
		step.Sweep = true
		for _, k := range chord.Keys() {
			if c, ok := t.table.Lookup(k.Side, k.Finger); ok {
				step.Releases = append(step.Releases, Event{Key: k, Chord: c})
			}
		}
		t.state = State{}
		t.handsSeen = false
		return step
	}

	t.handsSeen = true
	for _, h := range onePerSide(hands) {
		for f := chord.Thumb; f <= chord.Pinky; f++ {
			c, ok := t.table.Lookup(h.Side, f)
			if !ok {
				continue
			}
			prev := t.state[h.Side][f]
			cur := h.Up(f)
			k := chord.Key{Side: h.Side, Finger: f}
			switch {
			case cur && !prev:
				step.Presses = append(step.Presses, Event{Key: k, Chord: c})
				step.Active = append(step.Active, c[:]...)
			case !cur && prev:
				step.Releases = append(step.Releases, Event{Key: k, Chord: c})
			}
			t.state[h.Side][f] = cur
		}
	}
	return step
}

// onePerSide keeps the best-scored observation of each side, so every finger
// changes at most once per frame. Ties keep the earlier observation.
func onePerSide(hands []hand.Observation) []hand.Observation {
	var (
		best [chord.NumSides]int
		seen [chord.NumSides]bool
	)
	for i, h := range hands {
		if !seen[h.Side] || h.Score > hands[best[h.Side]].Score {
			best[h.Side], seen[h.Side] = i, true
		}
	}
	out := make([]hand.Observation, 0, chord.NumSides)
	for i, h := range hands {
		if seen[h.Side] && best[h.Side] == i {
			out = append(out, h)
		}
	}
	return out
}

// State returns a copy of the current finger flags.
func (t *Tracker) State() State {
	return t.state
}
