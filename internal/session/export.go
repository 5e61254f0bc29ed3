package session

import (
	"fmt"
	"io"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Resolution of exported files, in ticks per quarter note.
const Resolution smf.MetricTicks = 960

// ExportBPM is the tempo written to exported files. Event times are kept
// exact; the tempo only sets the tick scale.
const ExportBPM = 120.0

// Export writes events as a single-track Standard MIDI File.
func Export(w io.Writer, name string, events []Event) error {
	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(name))
	tr.Add(0, smf.MetaTempo(ExportBPM))

	var (
		prev     time.Duration
		prevTick uint32
	)
	for _, e := range events {
		at := e.At
		if at < prev {
			at = prev
		}
		tick := Resolution.Ticks(ExportBPM, at)
		var msg midi.Message
		switch e.Kind {
		case NoteOn:
			msg = midi.NoteOn(e.Channel, e.Key, e.Velocity)
		case NoteOff:
			msg = midi.NoteOffVelocity(e.Channel, e.Key, e.Velocity)
		case ProgramChange:
			msg = midi.ProgramChange(e.Channel, e.Key)
		default:
			return fmt.Errorf("session: export: unknown event %s", e.Kind)
		}
		tr.Add(tick-prevTick, msg)
		prev, prevTick = at, tick
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = Resolution
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("session: export: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("session: export: %w", err)
	}
	return nil
}
