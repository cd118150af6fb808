package sprites

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullSet() *SpriteSet {
	return &SpriteSet{
		FrontDefault:  "front.png",
		FrontShiny:    "front-shiny.png",
		Artwork:       "artwork.png",
		ArtworkShiny:  "artwork-shiny.png",
		Home:          "home.png",
		HomeShiny:     "home-shiny.png",
		Animated:      "animated.gif",
		AnimatedShiny: "animated-shiny.gif",
	}
}

func TestResolvePriorityChains(t *testing.T) {
	t.Parallel()
	engine := NewEngine("https://sprites.example")

	tests := []struct {
		name  string
		style Style
		shiny bool
		set   *SpriteSet
		want  string
	}{
		{"animated shiny full set", StyleAnimated, true, fullSet(), "animated-shiny.gif"},
		{"animated non-shiny full set", StyleAnimated, false, fullSet(), "animated.gif"},
		{"home shiny full set", StyleHome, true, fullSet(), "home-shiny.png"},
		{"artwork shiny falls to artwork", StyleArtwork, true, &SpriteSet{Artwork: "artwork.png", Home: "home.png"}, "artwork.png"},
		{"artwork shiny falls to home shiny", StyleArtwork, true, &SpriteSet{HomeShiny: "home-shiny.png", Home: "home.png"}, "home-shiny.png"},
		{"default shiny prefers generic shiny", StyleDefault, true, fullSet(), "front-shiny.png"},
		{"default non-shiny ignores artwork", StyleDefault, false, &SpriteSet{Artwork: "artwork.png", Home: "home.png"}, "home.png"},
		// Scenario from the collection: shiny animated request with only home
		// and default available must land on home.
		{"animated shiny degrades to home", StyleAnimated, true, &SpriteSet{Home: "home.png", FrontDefault: "front.png"}, "home.png"},
		{"animated non-shiny degrades to default", StyleAnimated, false, &SpriteSet{FrontDefault: "front.png"}, "front.png"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := engine.Resolve(tt.set, "pikachu", tt.style, tt.shiny)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBoxStyle(t *testing.T) {
	t.Parallel()
	engine := NewEngine("https://sprites.example/")

	got, ok := engine.Resolve(fullSet(), "pikachu", StyleBox, false)
	assert.True(t, ok)
	assert.Equal(t, "https://sprites.example/pokemon-gen8/regular/pikachu.png", got)

	got, ok = engine.Resolve(fullSet(), "pikachu", StyleBox, true)
	assert.True(t, ok)
	assert.Equal(t, "https://sprites.example/pokemon-gen8/shiny/pikachu.png", got)
}

func TestResolveBoxStyleDegradesWithoutName(t *testing.T) {
	t.Parallel()
	engine := NewEngine("https://sprites.example")

	// No canonical name: box URLs cannot be built, chain continues with
	// animated, home, artwork, default.
	got, ok := engine.Resolve(&SpriteSet{Home: "home.png", Artwork: "artwork.png"}, "", StyleBox, true)
	assert.True(t, ok)
	assert.Equal(t, "home.png", got)
}

func TestResolveEmptySetReturnsNotOK(t *testing.T) {
	t.Parallel()
	engine := NewEngine("https://sprites.example")

	for _, style := range []Style{StyleAnimated, StyleHome, StyleArtwork, StyleDefault} {
		url, ok := engine.Resolve(&SpriteSet{}, "", style, true)
		assert.False(t, ok, "style %s", style)
		assert.Empty(t, url, "style %s", style)
	}

	// Box style without a name has nothing to derive either.
	url, ok := engine.Resolve(&SpriteSet{}, "", StyleBox, false)
	assert.False(t, ok)
	assert.Empty(t, url)
}

func TestResolveNeverReturnsEmptyHit(t *testing.T) {
	t.Parallel()
	engine := NewEngine("https://sprites.example")

	// Partially filled sets across every style and shiny combination must
	// either produce a non-empty URL or report no hit.
	sets := []*SpriteSet{
		{}, {FrontDefault: "d.png"}, {HomeShiny: "hs.png"}, {Animated: "a.gif"}, fullSet(),
	}
	styles := []Style{StyleAnimated, StyleHome, StyleArtwork, StyleDefault, StyleBox}
	for _, set := range sets {
		for _, style := range styles {
			for _, shiny := range []bool{false, true} {
				url, ok := engine.Resolve(set, "", style, shiny)
				if ok {
					assert.NotEmpty(t, url)
				} else {
					assert.Empty(t, url)
				}
			}
		}
	}
}

func TestParseStyle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StyleAnimated, ParseStyle("animated"))
	assert.Equal(t, StyleHome, ParseStyle(" HOME "))
	assert.Equal(t, StyleArtwork, ParseStyle("artwork"))
	assert.Equal(t, StyleDefault, ParseStyle("default"))
	assert.Equal(t, StyleBox, ParseStyle("box"))
	// Unknown or unset preferences fall back to the box style.
	assert.Equal(t, StyleBox, ParseStyle(""))
	assert.Equal(t, StyleBox, ParseStyle("sprites-3d"))
}
