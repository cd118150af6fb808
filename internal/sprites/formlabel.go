package sprites

import (
	"fmt"
	"strings"
)

// FormKind is the closed classification of how a creature's display form
// label is derived. Priority: Gigantamax > Mega > regional > pattern > numbered.
type FormKind int

const (
	FormKindNone FormKind = iota
	FormKindGigantamax
	FormKindMega
	FormKindRegional
	FormKindPattern
	FormKindNumbered
)

// PatternSpecies is the set of species whose cosmetic pattern variants share
// a single identity in the external data source. The Scatterbug line carries
// twenty wing patterns that the API does not model as varieties.
var PatternSpecies = map[int]bool{
	664: true, // Scatterbug
	665: true, // Spewpa
	666: true, // Vivillon
}

// patternNames is the fixed ordered list of named wing patterns, 1-indexed
// by form number.
var patternNames = []string{
	"Icy Snow", "Polar", "Tundra", "Continental", "Garden",
	"Elegant", "Meadow", "Modern", "Marine", "Archipelago",
	"High Plains", "Sandstorm", "River", "Monsoon", "Savanna",
	"Sun", "Ocean", "Jungle", "Fancy", "Poké Ball",
}

// regionalPrefixes maps the name tokens of the four regional variants to
// their display labels.
var regionalPrefixes = []struct {
	token string
	label string
}{
	{"-alola", "Alolan"},
	{"-galar", "Galarian"},
	{"-hisui", "Hisuian"},
	{"-paldea", "Paldean"},
}

// FormClass is the result of classifying a creature's form.
type FormClass struct {
	Kind  FormKind
	Label string
}

// ClassifyForm derives the display form label for a creature. apiName is the
// canonical external name of the resolved variety (may be empty when only
// base data was available). The flags take priority over name tokens so a
// Gigantamax-capable regional variant still reads "Gigantamax".
func ClassifyForm(apiName string, speciesID, form int, canGigantamax, hasMegaStone bool) FormClass {
	name := strings.ToLower(apiName)

	if canGigantamax || strings.Contains(name, "-gmax") {
		return FormClass{Kind: FormKindGigantamax, Label: "Gigantamax"}
	}
	if hasMegaStone || strings.Contains(name, "-mega") {
		return FormClass{Kind: FormKindMega, Label: "Mega"}
	}
	for _, rp := range regionalPrefixes {
		if strings.Contains(name, rp.token) {
			return FormClass{Kind: FormKindRegional, Label: rp.label}
		}
	}
	if PatternSpecies[speciesID] && form > 0 {
		if form <= len(patternNames) {
			return FormClass{Kind: FormKindPattern, Label: patternNames[form-1]}
		}
		return FormClass{Kind: FormKindPattern, Label: fmt.Sprintf("Pattern %d", form)}
	}
	if form > 0 {
		return FormClass{Kind: FormKindNumbered, Label: fmt.Sprintf("Form %d", form)}
	}
	return FormClass{Kind: FormKindNone}
}
