// Package chord maps a (hand, finger) pair to the three MIDI notes it plays.
package chord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadTable is returned for malformed or out-of-range chord tables.
var ErrBadTable = errors.New("chord: bad table")

// Side is the handedness reported by the detector.
type Side int

const (
	Left Side = iota
	Right
)

// NumSides and NumFingers size the per-finger state arrays.
const (
	NumSides   = 2
	NumFingers = 5
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// ParseSide accepts "left"/"right" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: unknown hand %q", ErrBadTable, s)
}

// Finger indexes follow the detector's order.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return "finger(" + strconv.Itoa(int(f)) + ")"
	}
	return fingerNames[f]
}

// ParseFinger accepts the lowercase finger names.
func ParseFinger(s string) (Finger, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range fingerNames {
		if n == s {
			return Finger(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown finger %q", ErrBadTable, s)
}

// Key identifies one of the ten tracked fingers.
type Key struct {
	Side   Side
	Finger Finger
}

func (k Key) String() string { return k.Side.String() + "." + k.Finger.String() }

// Keys lists all ten keys, left hand first.
func Keys() []Key {
	keys := make([]Key, 0, NumSides*NumFingers)
	for s := Left; s <= Right; s++ {
		for f := Thumb; f <= Pinky; f++ {
			keys = append(keys, Key{Side: s, Finger: f})
		}
	}
	return keys
}

// Chord is a triad of MIDI note numbers.
type Chord [3]uint8

func (c Chord) String() string {
	return fmt.Sprintf("[%d %d %d]", c[0], c[1], c[2])
}

// Table is an immutable chord assignment. Copy-on-write: With returns a new
// Table and leaves the receiver untouched.
type Table struct {
	chords map[Key]Chord
}

// D major triads, one per finger, shared by both hands.
var dMajor = [NumFingers]Chord{
	{62, 66, 69}, // D
	{64, 67, 71}, // Em
	{66, 69, 73}, // F#m
	{67, 71, 74}, // G
	{69, 73, 76}, // A
}

// DefaultTable returns the D major table used for both hands.
func DefaultTable() Table {
	t := Table{chords: make(map[Key]Chord, NumSides*NumFingers)}
	for _, k := range Keys() {
		t.chords[k] = dMajor[k.Finger]
	}
	return t
}

// Lookup returns the chord assigned to a finger.
func (t Table) Lookup(side Side, finger Finger) (Chord, bool) {
	c, ok := t.chords[Key{Side: side, Finger: finger}]
	return c, ok
}

// With returns a copy of t with k reassigned to c.
func (t Table) With(k Key, c Chord) Table {
	out := Table{chords: make(map[Key]Chord, len(t.chords)+1)}
	for kk, cc := range t.chords {
		out.chords[kk] = cc
	}
	out.chords[k] = c
	return out
}

// Validate checks that all ten fingers are mapped to notes in MIDI range.
func (t Table) Validate() error {
	for _, k := range Keys() {
		c, ok := t.chords[k]
		if !ok {
			return fmt.Errorf("%w: %s has no chord", ErrBadTable, k)
		}
		for _, n := range c {
			if n > 127 {
				return fmt.Errorf("%w: %s note %d out of range", ErrBadTable, k, n)
			}
		}
	}
	return nil
}

// ParseTable applies overrides of the form
//
//	left.thumb=62,66,69;right.index=64,67,71
//
// on top of base. An empty string returns base unchanged.
func ParseTable(base Table, overrides string) (Table, error) {
	out := base
	for _, entry := range strings.Split(overrides, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, notes, ok := strings.Cut(entry, "=")
		if !ok {
			return Table{}, fmt.Errorf("%w: missing '=' in %q", ErrBadTable, entry)
		}
		sideName, fingerName, ok := strings.Cut(name, ".")
		if !ok {
			return Table{}, fmt.Errorf("%w: want hand.finger, got %q", ErrBadTable, name)
		}
		side, err := ParseSide(sideName)
		if err != nil {
			return Table{}, err
		}
		finger, err := ParseFinger(fingerName)
		if err != nil {
			return Table{}, err
		}
		parts := strings.Split(notes, ",")
		if len(parts) != len(Chord{}) {
			return Table{}, fmt.Errorf("%w: %s wants 3 notes, got %d", ErrBadTable, name, len(parts))
		}
		var c Chord
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil || n > 127 {
				return Table{}, fmt.Errorf("%w: %s note %q", ErrBadTable, name, p)
			}
			c[i] = uint8(n)
		}
		out = out.With(Key{Side: side, Finger: finger}, c)
	}
	return out, out.Validate()
}
