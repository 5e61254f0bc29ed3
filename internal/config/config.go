// Package config holds the run configuration and binds it to command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/chase3718/airchords/internal/chord"
	"github.com/chase3718/airchords/internal/hand"
	"github.com/chase3718/airchords/internal/sustain"
	"github.com/chase3718/airchords/internal/synth"
	"github.com/chase3718/airchords/internal/synth/tone"
)

// Output backends.
const (
	BackendPort   = "port"
	BackendSerial = "serial"
	BackendTone   = "tone"
)

var backends = []string{BackendPort, BackendSerial, BackendTone}

// DefaultDetector runs the MediaPipe sidecar shipped in detector/.
const DefaultDetector = "python3 detector/hands.py"

// DefaultTitle is the window title.
const DefaultTitle = "Hand Tracking MIDI Chords"

// Config is everything `play` needs.
type Config struct {
	Camera   int
	Title    string
	Headless bool

	Backend     string
	PortIndex   int
	PortPattern string
	SerialDev   string
	SerialBaud  int
	ToneRate    int

	Channel  uint8
	Program  uint8
	Velocity uint8
	Delay    time.Duration

	// Chords overrides entries of the default table, e.g.
	// "left.thumb=62,66,69;right.index=64,67,71".
	Chords    string
	SweepOnce bool

	Detector      string
	MinConfidence float64
	MaxHands      int
	Flip          bool

	DB     string
	Record bool
	Listen string
}

// Default returns the stock instrument settings.
func Default() Config {
	opts := hand.DefaultOptions()
	return Config{
		Camera:        0,
		Title:         DefaultTitle,
		Backend:       BackendPort,
		SerialDev:     "/dev/ttyUSB0",
		SerialBaud:    synth.DINBaud,
		ToneRate:      tone.DefaultSampleRate,
		Channel:       0,
		Program:       synth.AcousticGrandPiano,
		Velocity:      sustain.DefaultVelocity,
		Delay:         sustain.DefaultDelay,
		Detector:      DefaultDetector,
		MinConfidence: opts.MinConfidence,
		MaxHands:      opts.MaxHands,
		Flip:          opts.Flip,
		DB:            "airchords.db",
	}
}

// Bind registers flags for every field of c, using the current values as
// defaults.
func Bind(fs *pflag.FlagSet, c *Config) {
	fs.IntVarP(&c.Camera, "camera", "c", c.Camera, "camera device index")
	fs.StringVar(&c.Title, "title", c.Title, "window title")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "no window; quit with q in the terminal")

	fs.StringVarP(&c.Backend, "output", "o", c.Backend, "sound output: "+strings.Join(backends, ", "))
	fs.IntVarP(&c.PortIndex, "port", "p", c.PortIndex, "MIDI output port index")
	fs.StringVar(&c.PortPattern, "port-name", c.PortPattern, "pick the first MIDI output whose name contains this")
	fs.StringVar(&c.SerialDev, "serial", c.SerialDev, "serial device for raw MIDI")
	fs.IntVar(&c.SerialBaud, "baud", c.SerialBaud, "serial baud rate")
	fs.IntVar(&c.ToneRate, "sample-rate", c.ToneRate, "sample rate of the built-in tone synth")

	fs.Uint8Var(&c.Channel, "channel", c.Channel, "MIDI channel (0-15)")
	fs.Uint8Var(&c.Program, "program", c.Program, "General MIDI program")
	fs.Uint8Var(&c.Velocity, "velocity", c.Velocity, "note velocity (1-127)")
	fs.DurationVar(&c.Delay, "sustain", c.Delay, "how long a chord rings after the finger drops")

	fs.StringVar(&c.Chords, "chords", c.Chords, "chord overrides, hand.finger=n,n,n;...")
	fs.BoolVar(&c.SweepOnce, "sweep-once", c.SweepOnce, "release everything only on the first frame without hands")

	fs.StringVar(&c.Detector, "detector", c.Detector, "hand detector command")
	fs.Float64Var(&c.MinConfidence, "min-confidence", c.MinConfidence, "drop hands scored below this")
	fs.IntVar(&c.MaxHands, "max-hands", c.MaxHands, "hands tracked per frame")
	fs.BoolVar(&c.Flip, "flip", c.Flip, "swap left and right (mirrored camera)")

	fs.StringVar(&c.DB, "db", c.DB, "session database")
	fs.BoolVar(&c.Record, "record", c.Record, "record the session to the database")
	fs.StringVar(&c.Listen, "listen", c.Listen, "serve the status endpoint on this address, e.g. :8080")
}

// Table is the default chord table with c.Chords applied.
func (c Config) Table() (chord.Table, error) {
	return chord.ParseTable(chord.DefaultTable(), c.Chords)
}

// HandOptions are the detector filters.
func (c Config) HandOptions() hand.Options {
	return hand.Options{MinConfidence: c.MinConfidence, MaxHands: c.MaxHands, Flip: c.Flip}
}

// Sustain is the sustain controller configuration.
func (c Config) Sustain() sustain.Config {
	return sustain.Config{Delay: c.Delay, Velocity: c.Velocity, Channel: c.Channel}
}

// DetectorArgv splits the detector command on whitespace.
func (c Config) DetectorArgv() []string {
	return strings.Fields(c.Detector)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Camera < 0 {
		errs = append(errs, fmt.Errorf("camera index %d is negative", c.Camera))
	}
	switch c.Backend {
	case BackendPort:
		if c.PortIndex < 0 {
			errs = append(errs, fmt.Errorf("port index %d is negative", c.PortIndex))
		}
	case BackendSerial:
		if c.SerialDev == "" {
			errs = append(errs, errors.New("serial device is empty"))
		}
		if c.SerialBaud <= 0 {
			errs = append(errs, fmt.Errorf("baud %d is not positive", c.SerialBaud))
		}
	case BackendTone:
		if c.ToneRate <= 0 {
			errs = append(errs, fmt.Errorf("sample rate %d is not positive", c.ToneRate))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output %q (want %s)", c.Backend, strings.Join(backends, ", ")))
	}
	if c.Channel > 15 {
		errs = append(errs, fmt.Errorf("channel %d out of range 0-15", c.Channel))
	}
	if c.Program > 127 {
		errs = append(errs, fmt.Errorf("program %d out of range 0-127", c.Program))
	}
	if c.Velocity == 0 || c.Velocity > 127 {
		errs = append(errs, fmt.Errorf("velocity %d out of range 1-127", c.Velocity))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("sustain %s is negative", c.Delay))
	}
	if _, err := c.Table(); err != nil {
		errs = append(errs, err)
	}
	if len(c.DetectorArgv()) == 0 {
		errs = append(errs, errors.New("detector command is empty"))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("min-confidence %g out of range 0-1", c.MinConfidence))
	}
	if c.MaxHands < 0 {
		errs = append(errs, fmt.Errorf("max-hands %d is negative", c.MaxHands))
	}
	if c.Record && c.DB == "" {
		errs = append(errs, errors.New("recording needs a database path"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
