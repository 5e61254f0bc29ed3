// Package hand holds the per-frame hand observations produced by a landmark
// detector and the rules that turn 21 landmarks into five finger flags.
package hand

import "github.com/chase3718/airchords/internal/chord"

// Landmark indices, MediaPipe convention.
const (
	Wrist        = 0
	ThumbIP      = 3
	ThumbTip     = 4
	IndexPIP     = 6
	IndexTip     = 8
	MiddlePIP    = 10
	MiddleTip    = 12
	RingPIP      = 14
	RingTip      = 16
	PinkyPIP     = 18
	PinkyTip     = 20
	NumLandmarks = 21
)

var tipIDs = [chord.NumFingers]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Point is a landmark in normalized image coordinates (0..1, y grows down).
type Point struct {
	X, Y, Z float64
}

// Observation is one detected hand in one frame.
type Observation struct {
	Side    chord.Side
	Fingers [chord.NumFingers]bool
	Score   float64

	// Landmarks is empty when the detector reports flags only.
	Landmarks []Point
}

// Up reports whether finger f is extended.
func (o Observation) Up(f chord.Finger) bool {
	return o.Fingers[f]
}

// FingersUp classifies each finger from the landmarks. The thumb is extended
// when its tip lies outside the IP joint horizontally (direction depends on
// side); the other fingers when the tip is above the PIP joint.
func FingersUp(side chord.Side, lm []Point) [chord.NumFingers]bool {
	var up [chord.NumFingers]bool
	if len(lm) < NumLandmarks {
		return up
	}
	tip, joint := lm[tipIDs[0]], lm[tipIDs[0]-1]
	if side == chord.Right {
		up[chord.Thumb] = tip.X > joint.X
	} else {
		up[chord.Thumb] = tip.X < joint.X
	}
	for f := chord.Index; f <= chord.Pinky; f++ {
		id := tipIDs[f]
		up[f] = lm[id].Y < lm[id-2].Y
	}
	return up
}
