package synth

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type fakeOut struct {
	name string
	open bool
	sent [][]byte
}

func (o *fakeOut) Open() error             { o.open = true; return nil }
func (o *fakeOut) Close() error            { o.open = false; return nil }
func (o *fakeOut) IsOpen() bool            { return o.open }
func (o *fakeOut) Number() int             { return 0 }
func (o *fakeOut) String() string          { return o.name }
func (o *fakeOut) Underlying() interface{} { return nil }
func (o *fakeOut) Send(b []byte) error {
	o.sent = append(o.sent, append([]byte(nil), b...))
	return nil
}

type fakeDriver struct {
	outs []drivers.Out
	err  error
}

func (d *fakeDriver) Ins() ([]drivers.In, error)   { return nil, nil }
func (d *fakeDriver) Outs() ([]drivers.Out, error) { return d.outs, d.err }
func (d *fakeDriver) String() string               { return "fake" }
func (d *fakeDriver) Close() error                 { return nil }

func TestSelectorPick(t *testing.T) {
	names := []string{"Midi Through Port-0", "FLUID Synth (1234)", "USB MIDI Interface"}

	i, err := Selector{}.Pick(names)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = Selector{Index: 2}.Pick(names)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	i, err = Selector{Pattern: "fluid"}.Pick(names)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = Selector{Pattern: "through"}.Pick(names)
	assert.ErrorIs(t, err, ErrPortNotFound)

	_, err = Selector{Index: 3}.Pick(names)
	assert.ErrorIs(t, err, ErrPortNotFound)

	_, err = Selector{}.Pick(nil)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestPortSendsMessages(t *testing.T) {
	out := &fakeOut{name: "synth"}
	drv := &fakeDriver{outs: []drivers.Out{out}}

	p, err := OpenPort(drv, Selector{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "synth", p.Name())

	require.NoError(t, Setup(p, 0, AcousticGrandPiano, nil))
	require.NoError(t, p.NoteOn(0, 62, 127))
	require.NoError(t, p.NoteOff(0, 62, 127))

	assert.Equal(t, [][]byte{
		{0xC0, 0x00},
		{0x90, 62, 127},
		{0x80, 62, 127},
	}, out.sent)

	require.NoError(t, p.Close())
	assert.False(t, out.IsOpen())
}

func TestOpenPortListError(t *testing.T) {
	_, err := OpenPort(&fakeDriver{err: errors.New("boom")}, Selector{}, nil)
	assert.Error(t, err)

	_, err = OpenPort(&fakeDriver{}, Selector{}, nil)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestListOuts(t *testing.T) {
	drv := &fakeDriver{outs: []drivers.Out{&fakeOut{name: "a"}, &fakeOut{name: "b"}}}
	names, err := ListOuts(drv)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

type bufCloser struct {
	mu sync.Mutex
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Buffer.Write(p)
}

func (b *bufCloser) Close() error { b.closed = true; return nil }

func TestSerialWritesRawBytes(t *testing.T) {
	buf := &bufCloser{}
	s := NewSerial(buf, "/dev/null", nil)

	require.NoError(t, s.NoteOn(1, 60, 100))
	require.NoError(t, s.NoteOff(1, 60, 127))
	assert.Equal(t, []byte{0x91, 60, 100, 0x81, 60, 127}, buf.Bytes())

	require.NoError(t, s.Close())
	assert.True(t, buf.closed)
}
