package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/airchords/internal/chord"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "Hand Tracking MIDI Chords", c.Title)
	assert.Equal(t, 2*time.Second, c.Delay)
	assert.Equal(t, uint8(127), c.Velocity)
	assert.Equal(t, uint8(0), c.Program)
	assert.Equal(t, 31250, c.SerialBaud)
	assert.Equal(t, []string{"python3", "detector/hands.py"}, c.DetectorArgv())

	table, err := c.Table()
	require.NoError(t, err)
	assert.Equal(t, chord.DefaultTable(), table)
}

func TestBindFlags(t *testing.T) {
	c := Default()
	fs := pflag.NewFlagSet("play", pflag.ContinueOnError)
	Bind(fs, &c)

	require.NoError(t, fs.Parse([]string{
		"--camera=1",
		"-o", "serial",
		"--serial", "/dev/ttyACM0",
		"--sustain", "1500ms",
		"--chords", "left.thumb=60,64,67",
		"--sweep-once",
		"--flip=false",
		"--min-confidence", "0.5",
		"--listen", ":8080",
	}))
	require.NoError(t, c.Validate())

	assert.Equal(t, 1, c.Camera)
	assert.Equal(t, BackendSerial, c.Backend)
	assert.Equal(t, "/dev/ttyACM0", c.SerialDev)
	assert.True(t, c.SweepOnce)
	assert.Equal(t, ":8080", c.Listen)

	opts := c.HandOptions()
	assert.False(t, opts.Flip)
	assert.Equal(t, 0.5, opts.MinConfidence)
	assert.Equal(t, 2, opts.MaxHands)

	sc := c.Sustain()
	assert.Equal(t, 1500*time.Millisecond, sc.Delay)
	assert.Equal(t, uint8(127), sc.Velocity)

	table, err := c.Table()
	require.NoError(t, err)
	got, ok := table.Lookup(chord.Left, chord.Thumb)
	require.True(t, ok)
	assert.Equal(t, chord.Chord{60, 64, 67}, got)
}

func TestValidateCollectsErrors(t *testing.T) {
	c := Default()
	c.Backend = "fm"
	c.Channel = 16
	c.Velocity = 0
	c.Chords = "left.sixth=1,2,3"
	c.Detector = "  "
	c.MinConfidence = 1.5
	c.Record = true
	c.DB = ""

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`unknown output "fm"`,
		"channel 16",
		"velocity 0",
		"detector command is empty",
		"min-confidence 1.5",
		"recording needs a database path",
	} {
		assert.Contains(t, msg, want)
	}
	assert.ErrorIs(t, err, chord.ErrBadTable)
}

func TestValidateSerial(t *testing.T) {
	c := Default()
	c.Backend = BackendSerial
	c.SerialDev = ""
	c.SerialBaud = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial device is empty")
	assert.Contains(t, err.Error(), "baud 0")
}
