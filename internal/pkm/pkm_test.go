package pkm

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-H-Afonso/beastvault/internal/errors"
)

// buildFile assembles a minimal decoded stored-format buffer.
func buildFile(t *testing.T, size int, mutate func(data []byte)) []byte {
	t.Helper()
	require.True(t, size == sizeStored || size == sizeParty)

	data := make([]byte, size)
	binary.LittleEndian.PutUint16(data[offsetSpecies:], 25)
	data[offsetVersion] = 44 // Sword
	data[offsetBall] = 4
	if mutate != nil {
		mutate(data)
	}
	return data
}

func setNickname(data []byte, name string) {
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(data[offsetNickname+i*2:], u)
	}
}

func TestDecodeStored(t *testing.T) {
	t.Parallel()

	data := buildFile(t, sizeStored, func(data []byte) {
		binary.LittleEndian.PutUint16(data[offsetForm:], 2)
		setNickname(data, "Sparky")
	})

	c, err := Decode(data, "sparky.pk8")
	require.NoError(t, err)
	assert.Equal(t, 25, c.SpeciesID)
	assert.Equal(t, 2, c.Form)
	assert.Equal(t, "Sparky", c.Nickname)
	assert.Equal(t, 4, c.BallID)
	assert.Equal(t, 8, c.OriginGeneration)
	assert.Equal(t, 8, c.CaptureGeneration)
	assert.Equal(t, "pk8", c.Format)
	assert.Zero(t, c.Level, "stored files carry no level")
}

func TestDecodePartyLevel(t *testing.T) {
	t.Parallel()

	data := buildFile(t, sizeParty, func(data []byte) {
		data[offsetLevel] = 67
	})

	c, err := Decode(data, "pikachu.pk8")
	require.NoError(t, err)
	assert.Equal(t, 67, c.Level)
}

func TestDecodeShiny(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pid  uint32
		tid  uint16
		sid  uint16
		want bool
	}{
		{"zero xor", 0, 0, 0, true},
		{"xor below threshold", 0x0005_0001, 0x0005, 0x0001, true},
		{"xor above threshold", 0xDEAD_BEEF, 0x1234, 0x5678, false},
		{"xor exactly sixteen", 0x0010_0000, 0, 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data := buildFile(t, sizeStored, func(data []byte) {
				binary.LittleEndian.PutUint32(data[offsetPID:], tt.pid)
				binary.LittleEndian.PutUint16(data[offsetTID:], tt.tid)
				binary.LittleEndian.PutUint16(data[offsetSID:], tt.sid)
			})
			c, err := Decode(data, "x.pk8")
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.IsShiny)
		})
	}
}

func TestDecodeGigantamaxFlag(t *testing.T) {
	t.Parallel()

	data := buildFile(t, sizeStored, func(data []byte) {
		data[offsetFlags] |= 0x10
	})
	c, err := Decode(data, "x.pk8")
	require.NoError(t, err)
	assert.True(t, c.CanGigantamax)
}

func TestDecodeMegaStone(t *testing.T) {
	t.Parallel()

	data := buildFile(t, sizeStored, func(data []byte) {
		binary.LittleEndian.PutUint16(data[offsetHeldItem:], 660) // inside the first stone range
		data[offsetVersion] = 27                                  // Omega Ruby
	})
	c, err := Decode(data, "x.pk6.pk8")
	require.NoError(t, err)
	assert.True(t, c.HasMegaStone)
	assert.Equal(t, 6, c.OriginGeneration)
}

func TestDecodeGenerationMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version     int
		originGen   int
		captureGen  int
		fileName    string
		wantsFormat string
	}{
		{44, 8, 8, "a.pk8", "pk8"},
		{50, 9, 9, "a.pk9", "pk9"},
		{30, 7, 8, "a.pk8", "pk8"}, // transferred forward
		{24, 6, 9, "a.pk9", "pk9"},
		{0, 0, 8, "a.pk8", "pk8"}, // unknown origin
	}

	for _, tt := range tests {
		tt := tt
		data := buildFile(t, sizeStored, func(data []byte) {
			data[offsetVersion] = byte(tt.version)
		})
		c, err := Decode(data, tt.fileName)
		require.NoError(t, err)
		assert.Equal(t, tt.originGen, c.OriginGeneration, "version %d", tt.version)
		assert.Equal(t, tt.captureGen, c.CaptureGeneration, "version %d", tt.version)
		assert.Equal(t, tt.wantsFormat, c.Format)
	}
}

func TestDetectFormatWithoutExtension(t *testing.T) {
	t.Parallel()

	data := buildFile(t, sizeStored, func(data []byte) {
		data[offsetVersion] = 51 // Violet
	})
	c, err := Decode(data, "blob")
	require.NoError(t, err)
	assert.Equal(t, "pk9", c.Format)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", make([]byte, 100)},
		{"oversized", make([]byte, 1024)},
		{"species zero", buildFile(t, sizeStored, func(data []byte) {
			binary.LittleEndian.PutUint16(data[offsetSpecies:], 0)
		})},
		{"species out of range", buildFile(t, sizeStored, func(data []byte) {
			binary.LittleEndian.PutUint16(data[offsetSpecies:], 60000)
		})},
		{"encrypted", buildFile(t, sizeStored, func(data []byte) {
			binary.LittleEndian.PutUint16(data[offsetSanity:], 0xBEEF)
		})},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.data, "bad.pk8")
			require.Error(t, err)
			var enhanced *errors.EnhancedError
			require.True(t, errors.As(err, &enhanced))
			assert.Equal(t, errors.CategoryFileParsing, enhanced.Category)
		})
	}
}

func TestNicknameTruncation(t *testing.T) {
	t.Parallel()

	// Exactly twelve characters fills the field with no terminator.
	data := buildFile(t, sizeStored, func(data []byte) {
		setNickname(data, "AbcdefghijkL")
	})
	c, err := Decode(data, "x.pk8")
	require.NoError(t, err)
	assert.Equal(t, "AbcdefghijkL", c.Nickname)
}
