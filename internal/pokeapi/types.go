package pokeapi

import (
	"time"

	"github.com/David-H-Afonso/beastvault/internal/sprites"
)

// Config holds the species data client configuration
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimitMS int
}

// DefaultConfig returns the default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://pokeapi.co/api/v2",
		Timeout:     10 * time.Second,
		CacheTTL:    1 * time.Hour,
		RateLimitMS: 100,
	}
}

// SpeciesMetadata is the resolved, cacheable description of a
// (species, form, gmax) combination. Immutable once cached.
type SpeciesMetadata struct {
	SpeciesID      int               `json:"species_id"`
	Name           string            `json:"name"`         // canonical name of the resolved variety
	SpeciesName    string            `json:"species_name"` // canonical name of the base species
	PrimaryType    string            `json:"primary_type"`
	SecondaryType  string            `json:"secondary_type,omitempty"`
	PrimaryColor   string            `json:"primary_color"`
	SecondaryColor string            `json:"secondary_color,omitempty"`
	PatternIndex   int               `json:"pattern_index,omitempty"` // 1-indexed cosmetic pattern, 0 when not a pattern species
	Gmax           bool              `json:"gmax"`
	Sprites        sprites.SpriteSet `json:"sprites"`
	Stats          []StatValue       `json:"stats,omitempty"`
	CryURL         string            `json:"cry_url,omitempty"`
}

// StatValue is one entry of the species' base stat block, retained from the
// raw payload for downstream use.
type StatValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// pokemonPayload mirrors the fields of the /pokemon/{id|name} response the
// client consumes.
type pokemonPayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int `json:"base_stat"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Cries struct {
		Latest string `json:"latest"`
	} `json:"cries"`
	Sprites spritesPayload `json:"sprites"`
}

// spritesPayload mirrors the nested sprite URL bag of the /pokemon response.
// Entries are pointers because the API reports missing assets as null.
type spritesPayload struct {
	FrontDefault     *string `json:"front_default"`
	FrontShiny       *string `json:"front_shiny"`
	FrontFemale      *string `json:"front_female"`
	FrontShinyFemale *string `json:"front_shiny_female"`
	BackDefault      *string `json:"back_default"`
	BackShiny        *string `json:"back_shiny"`
	Other            struct {
		OfficialArtwork struct {
			FrontDefault *string `json:"front_default"`
			FrontShiny   *string `json:"front_shiny"`
		} `json:"official-artwork"`
		Home struct {
			FrontDefault *string `json:"front_default"`
			FrontShiny   *string `json:"front_shiny"`
		} `json:"home"`
	} `json:"other"`
	Versions struct {
		GenerationV struct {
			BlackWhite struct {
				Animated struct {
					FrontDefault *string `json:"front_default"`
					FrontShiny   *string `json:"front_shiny"`
				} `json:"animated"`
			} `json:"black-white"`
		} `json:"generation-v"`
	} `json:"versions"`
}

// speciesPayload mirrors the fields of the /pokemon-species/{id} response the
// client consumes.
type speciesPayload struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Varieties []struct {
		IsDefault bool `json:"is_default"`
		Pokemon   struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"pokemon"`
	} `json:"varieties"`
}

// apiError mirrors an error response body from the species data API.
type apiError struct {
	Detail string `json:"detail"`
	Status int    `json:"-"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// spriteSet flattens the nested payload shape into the engine's fixed set.
func (sp *spritesPayload) spriteSet() sprites.SpriteSet {
	return sprites.SpriteSet{
		FrontDefault:     deref(sp.FrontDefault),
		FrontShiny:       deref(sp.FrontShiny),
		FrontFemale:      deref(sp.FrontFemale),
		FrontShinyFemale: deref(sp.FrontShinyFemale),
		BackDefault:      deref(sp.BackDefault),
		BackShiny:        deref(sp.BackShiny),
		Artwork:          deref(sp.Other.OfficialArtwork.FrontDefault),
		ArtworkShiny:     deref(sp.Other.OfficialArtwork.FrontShiny),
		Home:             deref(sp.Other.Home.FrontDefault),
		HomeShiny:        deref(sp.Other.Home.FrontShiny),
		Animated:         deref(sp.Versions.GenerationV.BlackWhite.Animated.FrontDefault),
		AnimatedShiny:    deref(sp.Versions.GenerationV.BlackWhite.Animated.FrontShiny),
	}
}
