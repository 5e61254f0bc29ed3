package piano

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chase3718/airchords/internal/chord"
)

func TestLayoutNoActiveNotes(t *testing.T) {
	kb := Layout(640, 480, nil)
	require.Len(t, kb.Keys, 24)
	assert.Empty(t, kb.Lit())
	assert.Equal(t, image.Rect(0, 280, 640, 480), kb.Strip)

	for _, k := range kb.Keys {
		if k.IsBlack {
			assert.Equal(t, Black, k.Fill())
		} else {
			assert.Equal(t, White, k.Fill())
		}
	}
}

func TestLayoutMiddleCIsFirstWhiteKey(t *testing.T) {
	kb := Layout(640, 480, []uint8{60})
	assert.Equal(t, []uint8{60}, kb.Lit())
	assert.True(t, kb.Keys[0].Lit)
	assert.False(t, kb.Keys[0].IsBlack)
	assert.Equal(t, Lit, kb.Keys[0].Fill())
	for _, k := range kb.Keys[1:] {
		assert.False(t, k.Lit, k.Note)
	}
}

func TestLayoutKeyGeometry(t *testing.T) {
	kb := Layout(700, 480, nil)
	kw := 700 / WhiteKeys

	for i := 0; i < WhiteKeys; i++ {
		k := kb.Keys[i]
		assert.Equal(t, i*kw, k.Rect.Min.X)
		assert.Equal(t, kw, k.Rect.Dx())
		assert.Equal(t, Height, k.Rect.Dy())
		assert.False(t, chord.IsBlack(k.Note))
	}
	assert.Equal(t, uint8(60), kb.Keys[0].Note)
	assert.Equal(t, uint8(83), kb.Keys[WhiteKeys-1].Note)

	black := kb.Keys[WhiteKeys:]
	require.Len(t, black, 10)
	assert.Equal(t, []uint8{61, 63, 66, 68, 70, 73, 75, 78, 80, 82}, notes(black))
	for _, k := range black {
		assert.True(t, chord.IsBlack(k.Note))
		assert.Equal(t, kw/2, k.Rect.Dx())
		assert.Equal(t, Height/2, k.Rect.Dy())
	}
	// C#4 straddles the C4/D4 boundary.
	assert.Equal(t, kw-kw/4, black[0].Rect.Min.X)
}

func TestLayoutChordHighlights(t *testing.T) {
	kb := Layout(640, 480, []uint8{66, 69, 73})
	assert.ElementsMatch(t, []uint8{66, 69, 73}, kb.Lit())
}

func TestLayoutIgnoresNotesOffTheKeyboard(t *testing.T) {
	kb := Layout(640, 480, []uint8{12, 100})
	assert.Empty(t, kb.Lit())
}

func TestLayoutDegenerateFrames(t *testing.T) {
	kb := Layout(10, 480, []uint8{60})
	require.Len(t, kb.Keys, 24)
	assert.Zero(t, kb.Keys[0].Rect.Dx())

	kb = Layout(640, 120, nil)
	assert.Equal(t, image.Rect(0, 0, 640, 120), kb.Strip)
	assert.Equal(t, 120, kb.Keys[0].Rect.Dy())
}

func TestCaptionText(t *testing.T) {
	assert.Equal(t, "", CaptionText(nil))
	assert.Equal(t, "Playing: Note 62 + Note 66 + Note 69", CaptionText([]uint8{62, 66, 69}))
}

func notes(keys []Key) []uint8 {
	out := make([]uint8, len(keys))
	for i, k := range keys {
		out[i] = k.Note
	}
	return out
}
