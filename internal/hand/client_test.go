package hand

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/airchords/internal/chord"
)

func TestClientFraming(t *testing.T) {
	var sent bytes.Buffer
	replies := strings.NewReader(
		`{"hands":[{"type":"Left","fingers":[1,0,0,0,0]}]}` + "\n" +
			`{"hands":[]}` + "\n")
	c := NewClient(&sent, replies, Options{})

	hands, err := c.Detect([]byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Equal(t, chord.Left, hands[0].Side)
	assert.True(t, hands[0].Up(chord.Thumb))

	hands, err = c.Detect([]byte("jpeg"))
	require.NoError(t, err)
	assert.Empty(t, hands)

	raw := sent.Bytes()
	require.Len(t, raw, 4+3+4+4)
	assert.Equal(t, uint32(3), binary.BigEndian.Uint32(raw[0:4]))
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, raw[4:7])
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(raw[7:11]))
	assert.Equal(t, "jpeg", string(raw[11:]))
}

func TestClientLongReply(t *testing.T) {
	lm := make([][3]float64, NumLandmarks)
	for i := range lm {
		lm[i] = [3]float64{0.123456789012345, 0.5, -0.0123456789}
	}
	line := reply(t, map[string]any{"type": "Right", "landmarks": lm})
	c := NewClient(io.Discard, bytes.NewReader(append(line, '\n')), Options{})

	hands, err := c.Detect(nil)
	require.NoError(t, err)
	require.Len(t, hands, 1)
	assert.Len(t, hands[0].Landmarks, NumLandmarks)
}

func TestClientClosedPipe(t *testing.T) {
	c := NewClient(io.Discard, strings.NewReader(""), Options{})
	_, err := c.Detect([]byte("x"))
	assert.ErrorIs(t, err, io.EOF)
}
