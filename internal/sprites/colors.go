package sprites

import "strings"

// typeColors maps elemental type names to their display colors.
var typeColors = map[string]string{
	"normal":   "#A8A77A",
	"fire":     "#EE8130",
	"water":    "#6390F0",
	"electric": "#F7D02C",
	"grass":    "#7AC74C",
	"ice":      "#96D9D6",
	"fighting": "#C22E28",
	"poison":   "#A33EA1",
	"ground":   "#E2BF65",
	"flying":   "#A98FF3",
	"psychic":  "#F95587",
	"bug":      "#A6B91A",
	"rock":     "#B6A136",
	"ghost":    "#735797",
	"dragon":   "#6F35FC",
	"dark":     "#705746",
	"steel":    "#B7B7CE",
	"fairy":    "#D685AD",
}

const defaultTypeColor = "#777777"

// TypeColor returns the display color for an elemental type name.
// Unknown types get a neutral gray rather than an error.
func TypeColor(typeName string) string {
	if c, ok := typeColors[strings.ToLower(typeName)]; ok {
		return c
	}
	return defaultTypeColor
}
