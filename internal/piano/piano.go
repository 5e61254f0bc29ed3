// Package piano lays out the two-octave keyboard strip drawn over the bottom
// of each frame.
package piano

import (
	"image"
	"image/color"
	"strings"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/util"
)

const (
	// Height of the strip in pixels, clamped to the frame height.
	Height = 200
	// WhiteKeys spans C4..B5.
	WhiteKeys = 14
	// LowestNote is the MIDI number of the leftmost white key.
	LowestNote = 60
)

var (
	White   = color.RGBA{255, 255, 255, 255}
	Black   = color.RGBA{0, 0, 0, 255}
	Lit     = color.RGBA{0, 255, 0, 255}
	Caption = color.RGBA{0, 255, 0, 255}
)

// semitone offsets of the white keys within an octave
var whiteSteps = [7]uint8{0, 2, 4, 5, 7, 9, 11}

// white key index (within an octave) that each black key sits after
var blackAfter = [5]int{0, 1, 3, 4, 5}

// Key is one drawn key.
type Key struct {
	Note    uint8
	Rect    image.Rectangle
	IsBlack bool
	Lit     bool
}

// Fill is the key's body color.
func (k Key) Fill() color.RGBA {
	switch {
	case k.Lit:
		return Lit
	case k.IsBlack:
		return Black
	}
	return White
}

// Outline contrasts with the unlit body.
func (k Key) Outline() (color.RGBA, int) {
	if k.IsBlack {
		return White, 1
	}
	return Black, 2
}

// Keyboard is the laid-out strip. Black keys follow white keys so they are
// painted on top.
type Keyboard struct {
	Strip image.Rectangle
	Keys  []Key
}

// Lit returns the notes of every highlighted key, left to right by kind.
func (kb Keyboard) Lit() []uint8 {
	var out []uint8
	for _, k := range kb.Keys {
		if k.Lit {
			out = append(out, k.Note)
		}
	}
	return out
}

// Layout places the keyboard along the bottom of a width x height frame.
// Key width is width/WhiteKeys and may be zero for very narrow frames.
func Layout(width, height int, active []uint8) Keyboard {
	on := make(map[uint8]bool, len(active))
	for _, n := range active {
		on[n] = true
	}

	h := util.Clamp(Height, 0, height)
	top := height - h
	kw := width / WhiteKeys

	kb := Keyboard{
		Strip: image.Rect(0, top, width, height),
		Keys:  make([]Key, 0, WhiteKeys+10),
	}
	// White key i is the i-th natural from C4 (60, 62, 64, 65, ...); black
	// keys are the sharps of C, D, F, G and A in each octave (61, 63, 66, ...).
	for i := 0; i < WhiteKeys; i++ {
		note := uint8(LowestNote + 12*(i/7) + int(whiteSteps[i%7]))
		x := i * kw
		kb.Keys = append(kb.Keys, Key{
			Note: note,
			Rect: image.Rect(x, top, x+kw, height),
			Lit:  on[note],
		})
	}
	for octave := 0; octave < WhiteKeys/7; octave++ {
		for _, w := range blackAfter {
			note := uint8(LowestNote+12*octave) + whiteSteps[w] + 1
			x := (octave*7+w+1)*kw - kw/4
			kb.Keys = append(kb.Keys, Key{
				Note:    note,
				Rect:    image.Rect(x, top, x+kw/2, top+h/2),
				IsBlack: chord.IsBlack(note),
				Lit:     on[note],
			})
		}
	}
	return kb
}

// CaptionText names the notes played this frame, "" when there are none.
func CaptionText(active []uint8) string {
	if len(active) == 0 {
		return ""
	}
	labels := make([]string, len(active))
	for i, n := range active {
		labels[i] = chord.NoteLabel(n)
	}
	return "Playing: " + strings.Join(labels, " + ")
}

// CaptionAt is where the caption baseline starts.
var CaptionAt = image.Pt(10, 50)
