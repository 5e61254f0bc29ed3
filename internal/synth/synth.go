// Package synth sends note events to a sound source: a MIDI output port, a
// serial MIDI interface, or anything else implementing Output.
package synth

import (
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrNoOutput is returned when no output port is available.
	ErrNoOutput = errors.New("synth: no MIDI output available")
	// ErrPortNotFound is returned when the requested port does not exist.
	ErrPortNotFound = errors.New("synth: output port not found")
)

// Output is a sound source. Implementations must be safe for concurrent
// use: note-on comes from the frame loop, note-off from the release scheduler.
type Output interface {
	NoteOn(channel, key, velocity uint8) error
	NoteOff(channel, key, velocity uint8) error
	ProgramChange(channel, program uint8) error
	Close() error
}

// AcousticGrandPiano is General MIDI program 0.
const AcousticGrandPiano uint8 = 0

// Setup selects the instrument once at startup.
func Setup(out Output, channel, program uint8, logger *zap.SugaredLogger) error {
	if err := out.ProgramChange(channel, program); err != nil {
		return err
	}
	if logger != nil {
		logger.Infow("synth: program selected", "channel", channel, "program", program)
	}
	return nil
}
