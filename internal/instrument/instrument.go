// Package instrument runs the frame loop: capture, detect, track, play,
// render, display.
package instrument

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/logging"
	"github.com/chase3718/airchords/internal/piano"
	"github.com/chase3718/airchords/internal/tracker"
)

// ErrNoFrame is returned by a Source when a capture attempt yields nothing.
// The loop logs it and tries again.
var ErrNoFrame = errors.New("instrument: frame not captured")

// QuitKey ends the loop when returned by Display.Show.
const QuitKey = 'q'

// NoKey is returned by Display.Show when nothing was pressed.
const NoKey = -1

// Frame is one captured image.
type Frame interface {
	Size() (width, height int)
	Close() error
}

// Source produces frames.
type Source interface {
	Read() (Frame, error)
}

// Detector finds hands in a frame.
type Detector interface {
	Detect(Frame) ([]hand.Observation, error)
}

// Overlay is everything drawn on top of a frame.
type Overlay struct {
	Keyboard piano.Keyboard
	Caption  string
	Hands    []hand.Observation
}

// Display shows an annotated frame and returns the key pressed, or NoKey.
type Display interface {
	Show(Frame, Overlay) (int, error)
}

// Player triggers and releases chords.
type Player interface {
	Play(chord.Key, chord.Chord)
	ScheduleRelease(chord.Key, chord.Chord)
}

// Loop wires the stages together. It is driven by one goroutine.
type Loop struct {
	Source   Source
	Detector Detector
	Display  Display
	Player   Player
	Tracker  *tracker.Tracker
	Logger   *zap.SugaredLogger

	observers []func(tracker.Step, []hand.Observation)
	frames    uint64
}

// Observe registers fn to be called after every processed frame.
func (l *Loop) Observe(fn func(tracker.Step, []hand.Observation)) {
	l.observers = append(l.observers, fn)
}

// Frames is the number of frames processed so far.
func (l *Loop) Frames() uint64 { return l.frames }

// Run processes frames until the quit key is pressed or ctx is done.
// Detector and display failures end the loop.
func (l *Loop) Run(ctx context.Context) error {
	logger := logging.OrNop(l.Logger)
	logger.Infow("instrument: running", "quit_key", string(rune(QuitKey)))
	for {
		if err := ctx.Err(); err != nil {
			logger.Infow("instrument: stopped", "frames", l.frames, "reason", err)
			return nil
		}
		quit, err := l.step(logger)
		if err != nil {
			return err
		}
		if quit {
			logger.Infow("instrument: quit requested", "frames", l.frames)
			return nil
		}
	}
}

// step handles one frame and reports whether the quit key was pressed.
func (l *Loop) step(logger *zap.SugaredLogger) (bool, error) {
	frame, err := l.Source.Read()
	if errors.Is(err, ErrNoFrame) {
		logger.Warnw("camera: frame not captured")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("instrument: read frame: %w", err)
	}
	defer frame.Close()

	hands, err := l.Detector.Detect(frame)
	if err != nil {
		return false, fmt.Errorf("instrument: detect: %w", err)
	}

	step := l.Tracker.Observe(hands)
	for _, e := range step.Presses {
		l.Player.Play(e.Key, e.Chord)
	}
	for _, e := range step.Releases {
		l.Player.ScheduleRelease(e.Key, e.Chord)
	}
	l.frames++
	w, h := frame.Size()
	kb := piano.Layout(w, h, step.Active)
	if !step.Empty() {
		logger.Debugw("instrument: edges",
			"frame", l.frames,
			"hands", hand.Describe(hands),
			"presses", len(step.Presses),
			"releases", len(step.Releases),
			"sweep", step.Sweep,
			"lit", fmt.Sprint(kb.Lit()),
		)
	}
	for _, fn := range l.observers {
		fn(step, hands)
	}

	key, err := l.Display.Show(frame, Overlay{
		Keyboard: kb,
		Caption:  piano.CaptionText(step.Active),
		Hands:    hands,
	})
	if err != nil {
		return false, fmt.Errorf("instrument: display: %w", err)
	}
	return key == QuitKey, nil
}
