// Package tone is a small sine-voice synthesizer used when no MIDI synth is
// available. It implements synth.Output and renders through a beep.Streamer.
package tone

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
)

// DefaultSampleRate is used when the caller has no preference.
const DefaultSampleRate = 44100

const (
	maxVoices = 32
	gain      = 0.12
)

type voice struct {
	freq     float64
	phase    float64
	amp      float64
	decay    float64 // per-sample multiplier while held
	release  float64 // per-sample multiplier after note-off
	released bool
}

// Synth mixes one decaying sine voice per sounding key.
type Synth struct {
	mu     sync.Mutex
	sr     beep.SampleRate
	voices map[uint8]*voice
	closed bool
}

// New returns a synth rendering at sample rate sr.
func New(sr beep.SampleRate) *Synth {
	return &Synth{sr: sr, voices: make(map[uint8]*voice)}
}

// Frequency is the equal-tempered pitch of key, A4 = 440 Hz.
func Frequency(key uint8) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}

// perSample converts a time constant into a per-sample decay multiplier.
func (s *Synth) perSample(tau time.Duration) float64 {
	n := float64(s.sr.N(tau))
	if n <= 0 {
		return 0
	}
	return math.Exp(-1 / n)
}

func (s *Synth) NoteOn(_, key, velocity uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.voices) >= maxVoices {
		if _, ok := s.voices[key]; !ok {
			return nil
		}
	}
	s.voices[key] = &voice{
		freq:    Frequency(key),
		amp:     float64(velocity) / 127,
		decay:   s.perSample(3 * time.Second),
		release: s.perSample(150 * time.Millisecond),
	}
	return nil
}

func (s *Synth) NoteOff(_, key, _ uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[key]; ok {
		v.released = true
	}
	return nil
}

// ProgramChange is accepted and ignored; there is only one timbre.
func (s *Synth) ProgramChange(_, _ uint8) error { return nil }

// Close silences all voices and ends the stream.
func (s *Synth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = make(map[uint8]*voice)
	s.closed = true
	return nil
}

// Streamer renders the mix. It stays alive, emitting silence, until Close.
func (s *Synth) Streamer() beep.Streamer {
	return beep.StreamerFunc(s.stream)
}

func (s *Synth) stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false
	}
	step := 2 * math.Pi / float64(s.sr)
	for i := range samples {
		var sum float64
		for key, v := range s.voices {
			sum += math.Sin(v.phase) * v.amp
			v.phase += step * v.freq
			if v.phase > 2*math.Pi {
				v.phase -= 2 * math.Pi
			}
			if v.released {
				v.amp *= v.release
			} else {
				v.amp *= v.decay
			}
			if v.amp < 1e-4 {
				delete(s.voices, key)
			}
		}
		sum *= gain
		samples[i][0] = sum
		samples[i][1] = sum
	}
	return len(samples), true
}
