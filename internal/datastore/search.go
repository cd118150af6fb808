package datastore

import (
	"strings"

	"github.com/David-H-Afonso/beastvault/internal/errors"
)

// SearchFilters provides the filter vocabulary accepted by SearchCreatures.
// Pointer fields are optional; nil means "no constraint".
type SearchFilters struct {
	// Search matches nickname or species name, case-insensitive.
	Search string

	// PokedexNumber filters by exact species id.
	PokedexNumber *int

	// SpeciesName filters by species name, case-insensitive exact match.
	SpeciesName string

	// Nickname filters by nickname, case-insensitive exact match.
	Nickname string

	// IsShiny filters by the shiny flag.
	IsShiny *bool

	// OriginGeneration / CaptureGeneration filter by generation info.
	OriginGeneration  *int
	CaptureGeneration *int

	// BallID filters by the ball the creature was caught in.
	BallID *int

	// MinLevel / MaxLevel bound the level range.
	MinLevel *int
	MaxLevel *int

	// TagIDs requires membership in every listed tag.
	TagIDs []uint

	// AnyTagIDs requires membership in at least one listed tag.
	AnyTagIDs []uint

	// Untagged selects creatures with no tags at all.
	Untagged bool

	// SortBy names the sort column; SortDesc flips the direction.
	SortBy   string
	SortDesc bool

	// Skip / Take are the pagination offset and limit.
	Skip int
	Take int
}

// HasTagFilters reports whether any tag-based filter is set. These are
// incompatible with the grouped-by-tag view and must be stripped before
// issuing per-tag queries.
func (f *SearchFilters) HasTagFilters() bool {
	return len(f.TagIDs) > 0 || len(f.AnyTagIDs) > 0 || f.Untagged
}

// sortColumns is the allow-list of sortable fields, keyed by the external
// sort names.
var sortColumns = map[string]string{
	"id":          "id",
	"species":     "species_id",
	"speciesName": "species_name",
	"nickname":    "nickname",
	"level":       "level",
	"createdAt":   "created_at",
}

const defaultTake = 50

// SearchCreatures returns the page of creatures matching filters plus the
// total match count across all pages.
func (ds *DataStore) SearchCreatures(filters *SearchFilters) ([]Creature, int64, error) {
	query := ds.DB.Model(&Creature{})

	if s := strings.TrimSpace(filters.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(nickname) LIKE ? OR LOWER(species_name) LIKE ?", pattern, pattern)
	}
	if filters.PokedexNumber != nil {
		query = query.Where("species_id = ?", *filters.PokedexNumber)
	}
	if s := strings.TrimSpace(filters.SpeciesName); s != "" {
		query = query.Where("LOWER(species_name) = ?", strings.ToLower(s))
	}
	if s := strings.TrimSpace(filters.Nickname); s != "" {
		query = query.Where("LOWER(nickname) = ?", strings.ToLower(s))
	}
	if filters.IsShiny != nil {
		query = query.Where("is_shiny = ?", *filters.IsShiny)
	}
	if filters.OriginGeneration != nil {
		query = query.Where("origin_generation = ?", *filters.OriginGeneration)
	}
	if filters.CaptureGeneration != nil {
		query = query.Where("capture_generation = ?", *filters.CaptureGeneration)
	}
	if filters.BallID != nil {
		query = query.Where("ball_id = ?", *filters.BallID)
	}
	if filters.MinLevel != nil {
		query = query.Where("level >= ?", *filters.MinLevel)
	}
	if filters.MaxLevel != nil {
		query = query.Where("level <= ?", *filters.MaxLevel)
	}

	if len(filters.TagIDs) > 0 {
		// Membership in every listed tag
		query = query.Where(
			"(SELECT COUNT(DISTINCT tag_id) FROM creature_tags WHERE creature_tags.creature_id = creatures.id AND tag_id IN ?) = ?",
			filters.TagIDs, len(filters.TagIDs))
	}
	if len(filters.AnyTagIDs) > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM creature_tags WHERE creature_tags.creature_id = creatures.id AND tag_id IN ?)",
			filters.AnyTagIDs)
	}
	if filters.Untagged {
		query = query.Where(
			"NOT EXISTS (SELECT 1 FROM creature_tags WHERE creature_tags.creature_id = creatures.id)")
	}

	// Total reflects the full match count, not the page size.
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if filters.SortDesc {
		direction = "DESC"
	}

	take := filters.Take
	if take <= 0 {
		take = defaultTake
	}
	skip := filters.Skip
	if skip < 0 {
		skip = 0
	}

	var creatures []Creature
	err := query.
		Preload("Tags").
		Order(column + " " + direction).
		Offset(skip).
		Limit(take).
		Find(&creatures).Error
	if err != nil {
		return nil, 0, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	return creatures, total, nil
}
