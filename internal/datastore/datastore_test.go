package datastore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
)

// newTestStore opens a private in-memory database per test.
func newTestStore(t *testing.T) *DataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, performAutoMigration(db, "SQLite", "memory"))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &DataStore{DB: db}
}

func testCreature(speciesID int, name, nickname string) *Creature {
	return &Creature{
		SpeciesID:         speciesID,
		SpeciesName:       name,
		Nickname:          nickname,
		Level:             50,
		OriginGeneration:  8,
		CaptureGeneration: 8,
		FilePath:          fmt.Sprintf("vault/%s-%d.pk8", name, speciesID),
		FileName:          name + ".pk8",
		FileFormat:        "pk8",
		FileHash:          fmt.Sprintf("hash-%s-%s", name, nickname),
	}
}

func assertCategory(t *testing.T, err error, want errors.ErrorCategory) {
	t.Helper()
	var enhanced *errors.EnhancedError
	require.True(t, errors.As(err, &enhanced), "expected an enhanced error, got %v", err)
	assert.Equal(t, want, enhanced.Category)
}

func TestCreatureRoundTrip(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	c := testCreature(25, "Pikachu", "Sparky")
	require.NoError(t, ds.SaveCreature(c))
	require.NotZero(t, c.ID)

	got, err := ds.GetCreature(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pikachu", got.SpeciesName)
	assert.Equal(t, "Sparky", got.Nickname)
	assert.Equal(t, 25, got.SpeciesID)
}

func TestGetCreatureNotFound(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	_, err := ds.GetCreature(999)
	require.Error(t, err)
	assertCategory(t, err, errors.CategoryNotFound)
}

func TestGetCreatureByHash(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	c := testCreature(7, "Squirtle", "")
	require.NoError(t, ds.SaveCreature(c))

	got, err := ds.GetCreatureByHash(c.FileHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)

	// Unknown hash is not an error, just absence.
	got, err = ds.GetCreatureByHash("no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteCreatureRemovesTagLinks(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	c := testCreature(6, "Charizard", "Blaze")
	require.NoError(t, ds.SaveCreature(c))
	tag, err := ds.CreateTag("starters")
	require.NoError(t, err)
	require.NoError(t, ds.ReplaceCreatureTags(c.ID, []uint{tag.ID}))

	require.NoError(t, ds.DeleteCreature(c.ID))

	_, err = ds.GetCreature(c.ID)
	assertCategory(t, err, errors.CategoryNotFound)

	var count int64
	require.NoError(t, ds.DB.Table("creature_tags").Count(&count).Error)
	assert.Zero(t, count, "join rows must not outlive the creature")

	// Deleting again reports not found.
	err = ds.DeleteCreature(c.ID)
	assertCategory(t, err, errors.CategoryNotFound)
}

func TestSearchFreeText(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	require.NoError(t, ds.SaveCreature(testCreature(25, "Pikachu", "Sparky")))
	require.NoError(t, ds.SaveCreature(testCreature(26, "Raichu", "PIKA")))
	require.NoError(t, ds.SaveCreature(testCreature(143, "Snorlax", "Nap")))

	results, total, err := ds.SearchCreatures(&SearchFilters{Search: "pika"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, results, 2)

	names := []string{results[0].SpeciesName, results[1].SpeciesName}
	assert.Contains(t, names, "Pikachu")
	assert.Contains(t, names, "Raichu")
}

func TestSearchTotalCountsAllPages(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	for i := 0; i < 7; i++ {
		c := testCreature(25, "Pikachu", fmt.Sprintf("Pika%d", i))
		require.NoError(t, ds.SaveCreature(c))
	}

	results, total, err := ds.SearchCreatures(&SearchFilters{Search: "pika", Take: 3, Skip: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total, "total must reflect the full match count")
	assert.Len(t, results, 3)
}

func TestSearchFilters(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	shiny := testCreature(25, "Pikachu", "Shine")
	shiny.IsShiny = true
	shiny.Level = 80
	require.NoError(t, ds.SaveCreature(shiny))

	plain := testCreature(25, "Pikachu", "Plain")
	plain.Level = 12
	require.NoError(t, ds.SaveCreature(plain))

	other := testCreature(4, "Charmander", "Ember")
	other.OriginGeneration = 9
	require.NoError(t, ds.SaveCreature(other))

	isShiny := true
	results, total, err := ds.SearchCreatures(&SearchFilters{IsShiny: &isShiny})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "Shine", results[0].Nickname)

	dex := 25
	minLevel := 50
	results, _, err = ds.SearchCreatures(&SearchFilters{PokedexNumber: &dex, MinLevel: &minLevel})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Shine", results[0].Nickname)

	gen := 9
	results, _, err = ds.SearchCreatures(&SearchFilters{OriginGeneration: &gen})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Charmander", results[0].SpeciesName)
}

func TestSearchSortOrder(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	low := testCreature(1, "Bulbasaur", "Low")
	low.Level = 5
	high := testCreature(2, "Ivysaur", "High")
	high.Level = 60
	require.NoError(t, ds.SaveCreature(low))
	require.NoError(t, ds.SaveCreature(high))

	results, _, err := ds.SearchCreatures(&SearchFilters{SortBy: "level", SortDesc: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "High", results[0].Nickname)

	// Unknown sort names fall back to id order instead of erroring.
	results, _, err = ds.SearchCreatures(&SearchFilters{SortBy: "ball_id; DROP TABLE creatures"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchTagFilters(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	a := testCreature(25, "Pikachu", "A")
	b := testCreature(26, "Raichu", "B")
	c := testCreature(27, "Sandshrew", "C")
	require.NoError(t, ds.SaveCreature(a))
	require.NoError(t, ds.SaveCreature(b))
	require.NoError(t, ds.SaveCreature(c))

	fav, err := ds.CreateTag("favorites")
	require.NoError(t, err)
	trade, err := ds.CreateTag("trade")
	require.NoError(t, err)

	require.NoError(t, ds.ReplaceCreatureTags(a.ID, []uint{fav.ID, trade.ID}))
	require.NoError(t, ds.ReplaceCreatureTags(b.ID, []uint{trade.ID}))

	// All listed tags required
	results, total, err := ds.SearchCreatures(&SearchFilters{TagIDs: []uint{fav.ID, trade.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].Nickname)

	// Any listed tag suffices
	_, total, err = ds.SearchCreatures(&SearchFilters{AnyTagIDs: []uint{fav.ID, trade.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// No tags at all
	results, total, err = ds.SearchCreatures(&SearchFilters{Untagged: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "C", results[0].Nickname)
}

func TestTagLifecycle(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	tag, err := ds.CreateTag("shinies")
	require.NoError(t, err)
	require.NotZero(t, tag.ID)

	_, err = ds.CreateTag("shinies")
	require.Error(t, err)
	assertCategory(t, err, errors.CategoryConflict)

	_, err = ds.CreateTag("   ")
	require.Error(t, err)
	assertCategory(t, err, errors.CategoryValidation)

	require.NoError(t, ds.SetTagImage(tag.ID, "tags/shinies.png"))
	got, err := ds.GetTag(tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "tags/shinies.png", got.ImagePath)

	require.NoError(t, ds.DeleteTag(tag.ID))
	_, err = ds.GetTag(tag.ID)
	assertCategory(t, err, errors.CategoryNotFound)

	err = ds.DeleteTag(tag.ID)
	assertCategory(t, err, errors.CategoryNotFound)
}

func TestTagCountsAndCascade(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	a := testCreature(25, "Pikachu", "A")
	b := testCreature(26, "Raichu", "B")
	require.NoError(t, ds.SaveCreature(a))
	require.NoError(t, ds.SaveCreature(b))

	tag, err := ds.CreateTag("electric")
	require.NoError(t, err)
	require.NoError(t, ds.ReplaceCreatureTags(a.ID, []uint{tag.ID}))
	require.NoError(t, ds.ReplaceCreatureTags(b.ID, []uint{tag.ID}))

	tags, err := ds.GetAllTags()
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, int64(2), tags[0].PokemonCount)

	// Tag deletion detaches both creatures but keeps them.
	require.NoError(t, ds.DeleteTag(tag.ID))

	got, err := ds.GetCreature(a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestReplaceCreatureTags(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	c := testCreature(25, "Pikachu", "A")
	require.NoError(t, ds.SaveCreature(c))
	first, err := ds.CreateTag("first")
	require.NoError(t, err)
	second, err := ds.CreateTag("second")
	require.NoError(t, err)

	require.NoError(t, ds.ReplaceCreatureTags(c.ID, []uint{first.ID}))
	require.NoError(t, ds.ReplaceCreatureTags(c.ID, []uint{second.ID}))

	got, err := ds.GetCreature(c.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "second", got.Tags[0].Name)

	// Empty set clears all tags.
	require.NoError(t, ds.ReplaceCreatureTags(c.ID, nil))
	got, err = ds.GetCreature(c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	// Unknown tag id is rejected without partial application.
	err = ds.ReplaceCreatureTags(c.ID, []uint{first.ID, 999})
	assertCategory(t, err, errors.CategoryValidation)

	err = ds.ReplaceCreatureTags(999, []uint{first.ID})
	assertCategory(t, err, errors.CategoryNotFound)
}

func TestClientState(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	// Unset keys read as empty, not as errors.
	value, err := ds.GetClientState("spriteStyle")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, ds.SetClientState("spriteStyle", "animated"))
	require.NoError(t, ds.SetClientState("spriteStyle", "home"))

	value, err = ds.GetClientState("spriteStyle")
	require.NoError(t, err)
	assert.Equal(t, "home", value)
}

func TestSpeciesMetaRoundTrip(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	meta, cachedAt, err := ds.GetSpeciesMeta("25:0")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.True(t, cachedAt.IsZero())

	in := &pokeapi.SpeciesMetadata{
		SpeciesID:   25,
		Name:        "pikachu",
		SpeciesName: "pikachu",
		PrimaryType: "electric",
	}
	require.NoError(t, ds.SaveSpeciesMeta("25:0", in))

	meta, cachedAt, err = ds.GetSpeciesMeta("25:0")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 25, meta.SpeciesID)
	assert.Equal(t, "electric", meta.PrimaryType)
	assert.WithinDuration(t, time.Now(), cachedAt, 5*time.Second)

	// Second save upserts rather than duplicating the row.
	in.PrimaryType = "psychic"
	require.NoError(t, ds.SaveSpeciesMeta("25:0", in))

	var count int64
	require.NoError(t, ds.DB.Model(&SpeciesMetaRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	meta, _, err = ds.GetSpeciesMeta("25:0")
	require.NoError(t, err)
	assert.Equal(t, "psychic", meta.PrimaryType)
}

func TestAllCreatureFilePaths(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	a := testCreature(25, "Pikachu", "A")
	b := testCreature(26, "Raichu", "B")
	require.NoError(t, ds.SaveCreature(a))
	require.NoError(t, ds.SaveCreature(b))

	paths, err := ds.AllCreatureFilePaths()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, a.FilePath, paths[a.ID])
	assert.Equal(t, b.FilePath, paths[b.ID])
}

func TestDuplicateHashRejected(t *testing.T) {
	t.Parallel()
	ds := newTestStore(t)

	a := testCreature(25, "Pikachu", "A")
	require.NoError(t, ds.SaveCreature(a))

	b := testCreature(26, "Raichu", "B")
	b.FileHash = a.FileHash
	err := ds.SaveCreature(b)
	require.Error(t, err)
}
