package chord

import (
	"fmt"
	"strings"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName renders a MIDI note in scientific pitch notation, 60 = C4.
func PitchName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}

// NoteLabel is the on-screen label for a single note.
func NoteLabel(pitch uint8) string {
	return fmt.Sprintf("Note %d", pitch)
}

// Names renders a chord as "D4 F#4 A4".
func (c Chord) Names() string {
	names := make([]string, len(c))
	for i, n := range c {
		names[i] = PitchName(n)
	}
	return strings.Join(names, " ")
}

// IsBlack reports whether pitch falls on a black piano key.
func IsBlack(pitch uint8) bool {
	switch pitch % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}
