package pokeapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://species.test/api/v2"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client := NewClient(Config{
		BaseURL:     testBaseURL,
		Timeout:     2 * time.Second,
		CacheTTL:    time.Hour,
		RateLimitMS: 1,
	}, nil)
	t.Cleanup(client.Close)
	return client
}

func pikachuResponse() string {
	return `{
		"id": 25,
		"name": "pikachu",
		"types": [{"slot": 1, "type": {"name": "electric"}}],
		"stats": [{"base_stat": 35, "stat": {"name": "hp"}}],
		"cries": {"latest": "https://cries.test/25.ogg"},
		"sprites": {
			"front_default": "https://img.test/25.png",
			"front_shiny": "https://img.test/shiny/25.png",
			"other": {
				"official-artwork": {"front_default": "https://img.test/art/25.png", "front_shiny": null},
				"home": {"front_default": "https://img.test/home/25.png", "front_shiny": "https://img.test/home/shiny/25.png"}
			},
			"versions": {"generation-v": {"black-white": {"animated": {"front_default": "https://img.test/ani/25.gif", "front_shiny": null}}}}
		}
	}`
}

func registerJSON(path, body string) {
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+path,
		httpmock.NewStringResponder(http.StatusOK, body))
}

func TestFetchSpeciesBaseForm(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/25", pikachuResponse())

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 25, 0, false)

	require.NoError(t, err)
	assert.Equal(t, "pikachu", meta.Name)
	assert.Equal(t, 25, meta.SpeciesID)
	assert.Equal(t, "electric", meta.PrimaryType)
	assert.Equal(t, "#F7D02C", meta.PrimaryColor)
	assert.Empty(t, meta.SecondaryType)
	assert.Equal(t, "https://img.test/25.png", meta.Sprites.FrontDefault)
	assert.Equal(t, "https://img.test/home/shiny/25.png", meta.Sprites.HomeShiny)
	assert.Equal(t, "https://img.test/ani/25.gif", meta.Sprites.Animated)
	assert.Empty(t, meta.Sprites.AnimatedShiny)
	assert.Equal(t, []StatValue{{Name: "hp", Value: 35}}, meta.Stats)
	assert.Equal(t, "https://cries.test/25.ogg", meta.CryURL)
}

func TestFetchSpeciesTypeSlotOrdering(t *testing.T) {
	setupHTTPMock(t)
	// Slots arrive out of order; primary must be slot 1.
	registerJSON("/pokemon/6", `{
		"id": 6, "name": "charizard",
		"types": [
			{"slot": 2, "type": {"name": "flying"}},
			{"slot": 1, "type": {"name": "fire"}}
		],
		"sprites": {"front_default": "x.png"}
	}`)

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 6, 0, false)

	require.NoError(t, err)
	assert.Equal(t, "fire", meta.PrimaryType)
	assert.Equal(t, "flying", meta.SecondaryType)
}

func TestFetchSpeciesGigantamax(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/6", `{"id": 6, "name": "charizard", "types": [{"slot":1,"type":{"name":"fire"}}], "sprites": {"front_default": "base.png"}}`)
	registerJSON("/pokemon-species/6", `{"id": 6, "name": "charizard", "varieties": []}`)
	registerJSON("/pokemon/charizard-gmax", `{"id": 10196, "name": "charizard-gmax", "types": [{"slot":1,"type":{"name":"fire"}}], "sprites": {"front_default": "gmax.png"}}`)

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 6, 0, true)

	require.NoError(t, err)
	assert.Equal(t, "charizard-gmax", meta.Name)
	assert.Equal(t, "charizard", meta.SpeciesName)
	assert.True(t, meta.Gmax)
	assert.Equal(t, "gmax.png", meta.Sprites.FrontDefault)
}

func TestFetchSpeciesGigantamaxFallsBackToBase(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/150", `{"id": 150, "name": "mewtwo", "types": [{"slot":1,"type":{"name":"psychic"}}], "sprites": {"front_default": "base.png"}}`)
	registerJSON("/pokemon-species/150", `{"id": 150, "name": "mewtwo", "varieties": []}`)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/pokemon/mewtwo-gmax",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail": "Not found."}`))

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 150, 0, true)

	// The gigantamax path never propagates subordinate failures.
	require.NoError(t, err)
	assert.Equal(t, "mewtwo", meta.Name)
	assert.True(t, meta.Gmax)
	assert.Equal(t, "base.png", meta.Sprites.FrontDefault)
}

func TestFetchSpeciesPatternVariant(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/666", `{"id": 666, "name": "vivillon", "types": [{"slot":1,"type":{"name":"bug"}},{"slot":2,"type":{"name":"flying"}}], "sprites": {"front_default": "vivillon.png"}}`)

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 666, 5, false)

	require.NoError(t, err)
	assert.Equal(t, 5, meta.PatternIndex)
	assert.Equal(t, "vivillon", meta.Name)
	// Patterns share one external identity: no species or variety call.
	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["GET "+testBaseURL+"/pokemon/666"])
	assert.Len(t, info, 1)
}

func TestFetchSpeciesVariety(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/37", `{"id": 37, "name": "vulpix", "types": [{"slot":1,"type":{"name":"fire"}}], "sprites": {"front_default": "vulpix.png"}}`)
	registerJSON("/pokemon-species/37", `{
		"id": 37, "name": "vulpix",
		"varieties": [
			{"is_default": true, "pokemon": {"name": "vulpix", "url": ""}},
			{"is_default": false, "pokemon": {"name": "vulpix-alola", "url": ""}}
		]
	}`)
	registerJSON("/pokemon/vulpix-alola", `{"id": 10103, "name": "vulpix-alola", "types": [{"slot":1,"type":{"name":"ice"}}], "sprites": {"front_default": "vulpix-alola.png"}}`)

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 37, 1, false)

	require.NoError(t, err)
	assert.Equal(t, "vulpix-alola", meta.Name)
	assert.Equal(t, "vulpix", meta.SpeciesName)
	assert.Equal(t, "ice", meta.PrimaryType)
}

func TestFetchSpeciesVarietyOutOfRange(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/37", `{"id": 37, "name": "vulpix", "types": [{"slot":1,"type":{"name":"fire"}}], "sprites": {"front_default": "vulpix.png"}}`)
	registerJSON("/pokemon-species/37", `{
		"id": 37, "name": "vulpix",
		"varieties": [{"is_default": true, "pokemon": {"name": "vulpix", "url": ""}}]
	}`)

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 37, 9, false)

	require.NoError(t, err)
	assert.Equal(t, "vulpix", meta.Name)
	assert.Equal(t, "fire", meta.PrimaryType)
}

func TestFetchSpeciesVarietyFetchFailureDegradesToBase(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/37", `{"id": 37, "name": "vulpix", "types": [{"slot":1,"type":{"name":"fire"}}], "sprites": {"front_default": "vulpix.png"}}`)
	registerJSON("/pokemon-species/37", `{
		"id": 37, "name": "vulpix",
		"varieties": [
			{"is_default": true, "pokemon": {"name": "vulpix", "url": ""}},
			{"is_default": false, "pokemon": {"name": "vulpix-alola", "url": ""}}
		]
	}`)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/pokemon/vulpix-alola",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail": "Not found."}`))

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 37, 1, false)

	require.NoError(t, err)
	assert.Equal(t, "vulpix", meta.Name)
}

func TestFetchSpeciesBaseFetchFailure(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/pokemon/9999",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail": "Not found."}`))

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 9999, 0, false)

	require.Error(t, err)
	assert.Nil(t, meta)
}

func TestFetchSpeciesInvalidID(t *testing.T) {
	setupHTTPMock(t)
	client := newTestClient(t)

	_, err := client.FetchSpecies(context.Background(), 0, 0, false)
	require.Error(t, err)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestPayloadCacheSuppressesSecondFetch(t *testing.T) {
	setupHTTPMock(t)
	registerJSON("/pokemon/25", pikachuResponse())

	client := newTestClient(t)
	_, err := client.FetchSpecies(context.Background(), 25, 0, false)
	require.NoError(t, err)
	_, err = client.FetchSpecies(context.Background(), 25, 0, false)
	require.NoError(t, err)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	client.ClearCache()
	_, err = client.FetchSpecies(context.Background(), 25, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestRetryOnServerError(t *testing.T) {
	setupHTTPMock(t)
	responder := httpmock.ResponderFromMultipleResponses([]*http.Response{
		httpmock.NewStringResponse(http.StatusInternalServerError, `{}`),
		httpmock.NewStringResponse(http.StatusOK, pikachuResponse()),
	})
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/pokemon/25", responder)

	client := newTestClient(t)
	meta, err := client.FetchSpecies(context.Background(), 25, 0, false)

	require.NoError(t, err)
	assert.Equal(t, "pikachu", meta.Name)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestNoRetryOnClientError(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/pokemon/25",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail": "Not found."}`))

	client := newTestClient(t)
	_, err := client.FetchSpecies(context.Background(), 25, 0, false)

	require.Error(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
