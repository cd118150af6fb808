// Package sprites implements sprite URL resolution and form label derivation
// for catalogued creatures. Resolution is a pure function of the sprite set,
// the user's style preference and the shiny flag.
package sprites

import (
	"fmt"
	"strings"
)

// SpriteSet is the canonical bag of known image URLs for one creature.
// An empty string means the source has no image; resolution falls through
// to the next link in the style's priority chain.
type SpriteSet struct {
	FrontDefault     string `json:"front_default"`
	FrontShiny       string `json:"front_shiny"`
	FrontFemale      string `json:"front_female"`
	FrontShinyFemale string `json:"front_shiny_female"`
	BackDefault      string `json:"back_default"`
	BackShiny        string `json:"back_shiny"`
	Artwork          string `json:"artwork"`
	ArtworkShiny     string `json:"artwork_shiny"`
	Home             string `json:"home"`
	HomeShiny        string `json:"home_shiny"`
	Animated         string `json:"animated"`
	AnimatedShiny    string `json:"animated_shiny"`
}

// IsEmpty reports whether the set contains no URLs at all.
func (s *SpriteSet) IsEmpty() bool {
	return *s == SpriteSet{}
}

// Style selects which family of art assets to prefer for display.
type Style string

const (
	StyleAnimated Style = "animated"
	StyleHome     Style = "home"
	StyleArtwork  Style = "artwork"
	StyleDefault  Style = "default"
	StyleBox      Style = "box"
)

// ParseStyle maps a stored preference string to a Style, falling back to
// the generation-correct box style for unknown values.
func ParseStyle(s string) Style {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleAnimated:
		return StyleAnimated
	case StyleHome:
		return StyleHome
	case StyleArtwork:
		return StyleArtwork
	case StyleDefault:
		return StyleDefault
	default:
		return StyleBox
	}
}

// Engine resolves display sprites. BoxBaseURL is the root of the static
// box-sprite repository used by StyleBox.
type Engine struct {
	BoxBaseURL string
}

// NewEngine returns an engine building box sprite URLs under baseURL.
func NewEngine(baseURL string) *Engine {
	return &Engine{BoxBaseURL: strings.TrimRight(baseURL, "/")}
}

// BoxURL builds the predictable box-sprite filename for a canonical API name.
// Returns "" when the name is unknown.
func (e *Engine) BoxURL(apiName string, shiny bool) string {
	if apiName == "" {
		return ""
	}
	variant := "regular"
	if shiny {
		variant = "shiny"
	}
	return fmt.Sprintf("%s/pokemon-gen8/%s/%s.png", e.BoxBaseURL, variant, apiName)
}

// Resolve returns the best display URL for the given sprite set, style and
// shiny flag, walking the style's priority chain and returning the first
// present URL. ok is false when every link in the chain is absent; callers
// must render a placeholder, never fail.
func (e *Engine) Resolve(set *SpriteSet, apiName string, style Style, shiny bool) (url string, ok bool) {
	var chain []string
	switch style {
	case StyleAnimated:
		if shiny {
			chain = []string{set.AnimatedShiny, set.Animated, set.HomeShiny, set.Home, set.FrontShiny, set.FrontDefault}
		} else {
			chain = []string{set.Animated, set.Home, set.FrontDefault}
		}
	case StyleHome:
		if shiny {
			chain = []string{set.HomeShiny, set.Home, set.ArtworkShiny, set.Artwork, set.FrontShiny, set.FrontDefault}
		} else {
			chain = []string{set.Home, set.Artwork, set.FrontDefault}
		}
	case StyleArtwork:
		if shiny {
			chain = []string{set.ArtworkShiny, set.Artwork, set.HomeShiny, set.Home, set.FrontShiny, set.FrontDefault}
		} else {
			chain = []string{set.Artwork, set.Home, set.FrontDefault}
		}
	case StyleDefault:
		if shiny {
			chain = []string{set.FrontShiny, set.FrontDefault, set.HomeShiny, set.Home}
		} else {
			chain = []string{set.FrontDefault, set.Home}
		}
	case StyleBox:
		fallthrough
	default:
		// Box sprites are derived from the canonical name; when the name
		// could not be resolved the style degrades to the generic chain.
		if shiny {
			chain = []string{e.BoxURL(apiName, true), e.BoxURL(apiName, false)}
		} else {
			chain = []string{e.BoxURL(apiName, false), e.BoxURL(apiName, true)}
		}
		chain = append(chain, set.Animated, set.Home, set.Artwork, set.FrontDefault)
	}

	for _, u := range chain {
		if u != "" {
			return u, true
		}
	}
	return "", false
}
