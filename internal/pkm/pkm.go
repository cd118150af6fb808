// Package pkm decodes the header of creature save files (.pk8/.pk9 family)
// far enough to catalogue them. It is not a full save editor: only the
// fields the vault indexes are read, and everything else is ignored.
package pkm

import (
	"encoding/binary"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/David-H-Afonso/beastvault/internal/errors"
)

// File sizes of the stored and party variants of the modern box formats.
const (
	sizeStored = 344
	sizeParty  = 376
)

// Header field offsets shared by the pk8/pk9 layouts.
const (
	offsetSanity   = 0x04
	offsetSpecies  = 0x08
	offsetHeldItem = 0x0A
	offsetTID      = 0x0C
	offsetSID      = 0x0E
	offsetFlags    = 0x16 // bit 4: can gigantamax
	offsetPID      = 0x1C
	offsetForm     = 0x24
	offsetNickname = 0x58 // 12 UTF-16LE code units + terminator
	offsetVersion  = 0xDE
	offsetBall     = 0x124
	offsetLevel    = 0x168 // party section only
)

const (
	nicknameChars = 12
	maxSpeciesID  = 1025
)

// Creature holds the decoded header fields of one file.
type Creature struct {
	SpeciesID         int
	Form              int
	Nickname          string
	Level             int // 0 when the file carries no party section
	IsShiny           bool
	BallID            int
	OriginGeneration  int
	CaptureGeneration int
	CanGigantamax     bool
	HasMegaStone      bool
	Format            string // "pk8" or "pk9"
}

// versionGenerations maps origin-game ids to the generation that produced
// them. Unknown versions map to 0 and are corrected from metadata later.
var versionGenerations = map[int]int{
	24: 6, 25: 6, 26: 6, 27: 6, // X/Y, ORAS
	30: 7, 31: 7, 32: 7, 33: 7, // SM, USUM
	42: 7, 43: 7, // LGPE
	44: 8, 45: 8, // SwSh
	47: 8, // Legends Arceus
	48: 8, 49: 8, // BDSP
	50: 9, 51: 9, // SV
}

// megaStoneRanges lists the held-item id ranges occupied by mega stones.
var megaStoneRanges = [][2]int{
	{656, 683},
	{752, 767},
}

// Decode parses the header of a creature file. The format family is
// detected by file size; fileName breaks the pk8/pk9 tie by extension.
func Decode(data []byte, fileName string) (*Creature, error) {
	switch len(data) {
	case sizeStored, sizeParty:
	default:
		return nil, errors.Newf("unrecognized file size %d bytes", len(data)).
			Category(errors.CategoryFileParsing).
			Context("file_name", fileName).
			Component("pkm").
			Build()
	}

	// A nonzero sanity word means the file is still encrypted.
	if binary.LittleEndian.Uint16(data[offsetSanity:]) != 0 {
		return nil, errors.Newf("file appears to be encrypted").
			Category(errors.CategoryFileParsing).
			Context("file_name", fileName).
			Component("pkm").
			Build()
	}

	species := int(binary.LittleEndian.Uint16(data[offsetSpecies:]))
	if species < 1 || species > maxSpeciesID {
		return nil, errors.Newf("species id %d out of range", species).
			Category(errors.CategoryFileParsing).
			Context("file_name", fileName).
			Component("pkm").
			Build()
	}

	version := int(data[offsetVersion])
	heldItem := int(binary.LittleEndian.Uint16(data[offsetHeldItem:]))

	c := &Creature{
		SpeciesID:     species,
		Form:          int(binary.LittleEndian.Uint16(data[offsetForm:])),
		Nickname:      decodeNickname(data[offsetNickname:]),
		IsShiny:       isShiny(data),
		BallID:        int(data[offsetBall]),
		CanGigantamax: data[offsetFlags]&0x10 != 0,
		HasMegaStone:  isMegaStone(heldItem),
		Format:        detectFormat(fileName, version),
	}

	c.OriginGeneration = versionGenerations[version]
	c.CaptureGeneration = c.OriginGeneration
	if c.Format == "pk9" {
		c.CaptureGeneration = 9
	} else if c.Format == "pk8" && c.CaptureGeneration < 8 {
		c.CaptureGeneration = 8
	}

	if len(data) == sizeParty {
		c.Level = int(data[offsetLevel])
	}

	return c, nil
}

// isShiny applies the PID xor TID xor SID rule with the modern threshold.
func isShiny(data []byte) bool {
	pid := binary.LittleEndian.Uint32(data[offsetPID:])
	tid := binary.LittleEndian.Uint16(data[offsetTID:])
	sid := binary.LittleEndian.Uint16(data[offsetSID:])
	xor := uint16(pid>>16) ^ uint16(pid) ^ tid ^ sid
	return xor < 16
}

func isMegaStone(itemID int) bool {
	for _, r := range megaStoneRanges {
		if itemID >= r[0] && itemID <= r[1] {
			return true
		}
	}
	return false
}

// decodeNickname reads the fixed-width UTF-16LE nickname field up to the
// first null terminator.
func decodeNickname(data []byte) string {
	units := make([]uint16, 0, nicknameChars)
	for i := 0; i < nicknameChars; i++ {
		u := binary.LittleEndian.Uint16(data[i*2:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// detectFormat resolves the pk8/pk9 ambiguity. Both share the same file
// sizes, so the extension decides when present and the origin game decides
// otherwise.
func detectFormat(fileName string, version int) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "pk9", "ek9":
		return "pk9"
	case "pk8", "ek8":
		return "pk8"
	}
	if versionGenerations[version] == 9 {
		return "pk9"
	}
	return "pk8"
}
