package chord

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableMatchesBothHands(t *testing.T) {
	table := DefaultTable()
	require.NoError(t, table.Validate())

	expected := map[Finger]Chord{
		Thumb:  {62, 66, 69},
		Index:  {64, 67, 71},
		Middle: {66, 69, 73},
		Ring:   {67, 71, 74},
		Pinky:  {69, 73, 76},
	}
	for _, k := range Keys() {
		c, ok := table.Lookup(k.Side, k.Finger)
		assert.True(t, ok, k.String())
		assert.Equal(t, expected[k.Finger], c, k.String())
	}
}

func TestLookupIsPure(t *testing.T) {
	table := DefaultTable()
	for _, k := range Keys() {
		a, _ := table.Lookup(k.Side, k.Finger)
		b, _ := table.Lookup(k.Side, k.Finger)
		assert.Equal(t, a, b)
	}
}

func TestKeysCoversTenFingers(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, 10)
	assert.Equal(t, Key{Left, Thumb}, keys[0])
	assert.Equal(t, Key{Right, Pinky}, keys[9])
}

func TestWithLeavesBaseUntouched(t *testing.T) {
	base := DefaultTable()
	changed := base.With(Key{Left, Thumb}, Chord{60, 64, 67})

	c, _ := base.Lookup(Left, Thumb)
	assert.Equal(t, Chord{62, 66, 69}, c)
	c, _ = changed.Lookup(Left, Thumb)
	assert.Equal(t, Chord{60, 64, 67}, c)
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable(DefaultTable(), "left.thumb=60,64,67; right.pinky = 57,60,64")
	require.NoError(t, err)

	c, _ := table.Lookup(Left, Thumb)
	assert.Equal(t, Chord{60, 64, 67}, c)
	c, _ = table.Lookup(Right, Pinky)
	assert.Equal(t, Chord{57, 60, 64}, c)
	c, _ = table.Lookup(Right, Thumb)
	assert.Equal(t, Chord{62, 66, 69}, c)
}

func TestParseTableEmpty(t *testing.T) {
	table, err := ParseTable(DefaultTable(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTable(), table)
}

func TestParseTableFailures(t *testing.T) {
	for _, spec := range []string{
		"left.thumb",
		"thumb=60,64,67",
		"middle.thumb=60,64,67",
		"left.toe=60,64,67",
		"left.thumb=60,64",
		"left.thumb=60,64,128",
		"left.thumb=a,b,c",
	} {
		_, err := ParseTable(DefaultTable(), spec)
		assert.True(t, errors.Is(err, ErrBadTable), spec)
	}
}

func TestValidateIncompleteTable(t *testing.T) {
	_, err := ParseTable(Table{}, "left.thumb=60,64,67")
	assert.ErrorIs(t, err, ErrBadTable)
}

func TestPitchNames(t *testing.T) {
	assert.Equal(t, "C4", PitchName(60))
	assert.Equal(t, "F#4", PitchName(66))
	assert.Equal(t, "C-1", PitchName(0))
	assert.Equal(t, "G9", PitchName(127))
	assert.Equal(t, "D4 F#4 A4", Chord{62, 66, 69}.Names())
	assert.Equal(t, "Note 62", NoteLabel(62))
	assert.True(t, IsBlack(61))
	assert.False(t, IsBlack(60))
}
