package hand

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chase3718/airchords/internal/chord"
)

// ErrBadResponse is returned when a detector reply cannot be decoded.
var ErrBadResponse = errors.New("hand: bad detector response")

// Options filters and normalizes decoded detections.
type Options struct {
	// MinConfidence drops hands scored below it.
	MinConfidence float64
	// MaxHands keeps the best-scored hands only; 0 means no limit.
	MaxHands int
	// Flip swaps Left/Right, for detectors that assume a mirrored image.
	Flip bool
}

// DefaultOptions mirrors the stock detector settings.
func DefaultOptions() Options {
	return Options{MinConfidence: 0.8, MaxHands: 2, Flip: true}
}

type wireHand struct {
	Type      string       `json:"type"`
	Score     *float64     `json:"score"`
	Landmarks [][3]float64 `json:"landmarks"`
	Fingers   []int        `json:"fingers"`
}

type wireReply struct {
	Hands []wireHand `json:"hands"`
	Error string     `json:"error"`
}

// Decode parses one detector reply line:
//
//	{"hands":[{"type":"Left","score":0.93,"landmarks":[[x,y,z],...]}]}
//
// A hand may carry "fingers":[0,1,1,0,0] instead of landmarks.
func Decode(line []byte, opts Options) ([]Observation, error) {
	var reply wireReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: detector: %s", ErrBadResponse, reply.Error)
	}

	out := make([]Observation, 0, len(reply.Hands))
	for i, wh := range reply.Hands {
		side, err := chord.ParseSide(wh.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: hand %d: type %q", ErrBadResponse, i, wh.Type)
		}
		if opts.Flip {
			side = 1 - side
		}
		obs := Observation{Side: side, Score: 1}
		if wh.Score != nil {
			obs.Score = *wh.Score
		}
		if obs.Score < opts.MinConfidence {
			continue
		}

		switch {
		case len(wh.Landmarks) > 0:
			if len(wh.Landmarks) != NumLandmarks {
				return nil, fmt.Errorf("%w: hand %d: %d landmarks", ErrBadResponse, i, len(wh.Landmarks))
			}
			obs.Landmarks = make([]Point, NumLandmarks)
			for j, p := range wh.Landmarks {
				obs.Landmarks[j] = Point{X: p[0], Y: p[1], Z: p[2]}
			}
			obs.Fingers = FingersUp(side, obs.Landmarks)
		case len(wh.Fingers) == chord.NumFingers:
			for j, v := range wh.Fingers {
				obs.Fingers[j] = v != 0
			}
		default:
			return nil, fmt.Errorf("%w: hand %d: neither landmarks nor fingers", ErrBadResponse, i)
		}
		out = append(out, obs)
	}

	if opts.MaxHands > 0 && len(out) > opts.MaxHands {
		sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
		out = out[:opts.MaxHands]
	}
	return out, nil
}

// Describe is a compact log form, e.g. "left:01100 right:11111".
func Describe(hands []Observation) string {
	parts := make([]string, len(hands))
	for i, h := range hands {
		var b strings.Builder
		b.WriteString(h.Side.String())
		b.WriteByte(':')
		for _, up := range h.Fingers {
			if up {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, " ")
}
