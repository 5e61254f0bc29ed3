package hand

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/airchords/internal/chord"
)

// openHand builds landmarks for an upright hand with the given fingers up.
// Folded fingers put the tip below the PIP joint.
func openHand(side chord.Side, up [chord.NumFingers]bool) []Point {
	lm := make([]Point, NumLandmarks)
	for i := range lm {
		lm[i] = Point{X: 0.5, Y: 0.8}
	}
	// Thumb: IP at x=0.5, tip left or right of it.
	lm[ThumbIP] = Point{X: 0.5, Y: 0.6}
	out := 0.4
	if side == chord.Right {
		out = 0.6
	}
	if up[chord.Thumb] {
		lm[ThumbTip] = Point{X: out, Y: 0.55}
	} else {
		lm[ThumbTip] = Point{X: 1 - out, Y: 0.55}
	}
	for f := chord.Index; f <= chord.Pinky; f++ {
		tip := tipIDs[f]
		lm[tip-2] = Point{X: 0.5, Y: 0.5}
		if up[f] {
			lm[tip] = Point{X: 0.5, Y: 0.2}
		} else {
			lm[tip] = Point{X: 0.5, Y: 0.6}
		}
	}
	return lm
}

func TestFingersUp(t *testing.T) {
	cases := [][chord.NumFingers]bool{
		{},
		{true, true, true, true, true},
		{true, false, false, false, false},
		{false, true, true, false, false},
		{false, false, false, false, true},
	}
	for _, side := range []chord.Side{chord.Left, chord.Right} {
		for _, want := range cases {
			got := FingersUp(side, openHand(side, want))
			assert.Equal(t, want, got, "%s %v", side, want)
		}
	}
}

func TestFingersUpShortLandmarks(t *testing.T) {
	assert.Equal(t, [chord.NumFingers]bool{}, FingersUp(chord.Left, make([]Point, 5)))
}

func reply(t *testing.T, hands ...map[string]any) []byte {
	b, err := json.Marshal(map[string]any{"hands": hands})
	require.NoError(t, err)
	return b
}

func landmarkArray(lm []Point) [][3]float64 {
	out := make([][3]float64, len(lm))
	for i, p := range lm {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

func TestDecodeLandmarks(t *testing.T) {
	up := [chord.NumFingers]bool{true, true, false, false, false}
	// The detector labels the hand "Right"; flipped, it is our left hand.
	line := reply(t, map[string]any{
		"type":      "Right",
		"score":     0.95,
		"landmarks": landmarkArray(openHand(chord.Left, up)),
	})

	hands, err := Decode(line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, chord.Left, hands[0].Side)
	assert.Equal(t, up, hands[0].Fingers)
	assert.Len(t, hands[0].Landmarks, NumLandmarks)
	assert.Equal(t, "left:11000", Describe(hands))
}

func TestDecodeFingerFlags(t *testing.T) {
	line := reply(t, map[string]any{"type": "left", "fingers": []int{0, 1, 1, 0, 1}})

	hands, err := Decode(line, Options{})
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, chord.Left, hands[0].Side)
	assert.Equal(t, [chord.NumFingers]bool{false, true, true, false, true}, hands[0].Fingers)
	assert.Empty(t, hands[0].Landmarks)
}

func TestDecodeFiltersConfidenceAndCount(t *testing.T) {
	line := reply(t,
		map[string]any{"type": "Left", "score": 0.5, "fingers": []int{1, 1, 1, 1, 1}},
		map[string]any{"type": "Left", "score": 0.85, "fingers": []int{1, 0, 0, 0, 0}},
		map[string]any{"type": "Right", "score": 0.99, "fingers": []int{0, 0, 0, 0, 1}},
		map[string]any{"type": "Right", "score": 0.9, "fingers": []int{0, 1, 0, 0, 0}},
	)

	hands, err := Decode(line, Options{MinConfidence: 0.8, MaxHands: 2})
	require.NoError(t, err)
	require.Len(t, hands, 2)
	assert.Equal(t, 0.99, hands[0].Score)
	assert.Equal(t, 0.9, hands[1].Score)
}

func TestDecodeNoHands(t *testing.T) {
	hands, err := Decode([]byte(`{"hands":[]}`), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, hands)
}

func TestDecodeErrors(t *testing.T) {
	for _, line := range []string{
		`not json`,
		`{"error":"model not loaded"}`,
		`{"hands":[{"type":"Middle","fingers":[0,0,0,0,0]}]}`,
		`{"hands":[{"type":"Left","landmarks":[[0,0,0]]}]}`,
		`{"hands":[{"type":"Left"}]}`,
	} {
		_, err := Decode([]byte(line), Options{})
		assert.ErrorIs(t, err, ErrBadResponse, line)
	}
}
