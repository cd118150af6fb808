// model.go defines the persisted data model for the vault.
package datastore

import "time"

// Creature represents one catalogued creature file.
type Creature struct {
	ID                uint   `gorm:"primaryKey"`
	SpeciesID         int    `gorm:"index:idx_creatures_species;not null"`
	Form              int    `gorm:"index:idx_creatures_species"` // 0 = base form
	SpeciesName       string `gorm:"index:idx_creatures_speciesname"`
	Nickname          string `gorm:"index:idx_creatures_nickname"`
	Level             int
	IsShiny           bool `gorm:"index:idx_creatures_shiny"`
	BallID            int
	TeraType          *int // elemental type overlay, optional
	OriginGeneration  int
	CaptureGeneration int
	CanGigantamax     bool
	HasMegaStone      bool
	FilePath          string `gorm:"not null"` // stored original file, relative to the vault directory
	FileName          string // original upload filename
	FileFormat        string // pk8, pk9, ...
	FileHash          string `gorm:"uniqueIndex;not null"` // content hash, used for duplicate detection
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Tags              []Tag `gorm:"many2many:creature_tags;constraint:OnDelete:CASCADE"`
}

// Tag groups creatures. Name uniqueness is enforced by the database.
type Tag struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	ImagePath string // optional raster asset
	CreatedAt time.Time

	// Derived, not stored
	PokemonCount int64 `gorm:"-" json:"pokemonCount"`
}

// ClientState persists one user preference key across sessions.
type ClientState struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// SpeciesMetaRecord mirrors a successful species metadata resolution so the
// memory cache can warm-start across restarts.
type SpeciesMetaRecord struct {
	ID       uint      `gorm:"primaryKey"`
	CacheKey string    `gorm:"uniqueIndex;not null"`
	Payload  string    `gorm:"type:text"` // SpeciesMetadata as JSON
	CachedAt time.Time `gorm:"index"`
}
