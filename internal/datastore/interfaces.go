// interfaces.go defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/David-H-Afonso/beastvault/internal/conf"
	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	// Creatures
	SaveCreature(creature *Creature) error
	GetCreature(id uint) (*Creature, error)
	GetCreatureByHash(hash string) (*Creature, error)
	DeleteCreature(id uint) error
	SearchCreatures(filters *SearchFilters) ([]Creature, int64, error)
	AllCreatureFilePaths() (map[uint]string, error)

	// Tags
	GetAllTags() ([]Tag, error)
	GetTag(id uint) (*Tag, error)
	CreateTag(name string) (*Tag, error)
	DeleteTag(id uint) error
	SetTagImage(id uint, imagePath string) error
	ReplaceCreatureTags(creatureID uint, tagIDs []uint) error

	// Client state
	GetClientState(key string) (string, error)
	SetClientState(key, value string) error

	// Species metadata mirror (metacache.MetaStore)
	GetSpeciesMeta(key string) (*pokeapi.SpeciesMetadata, time.Time, error)
	SaveSpeciesMeta(key string, meta *pokeapi.SpeciesMetadata) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store instance for the configured database backend.
func New(settings *conf.Settings) Interface {
	switch settings.Database.Type {
	case "mysql":
		return &MySQLStore{Settings: settings}
	default:
		return &SQLiteStore{Settings: settings}
	}
}

// performAutoMigration migrates every persisted model.
func performAutoMigration(db *gorm.DB, dialect, connectionInfo string) error {
	if err := db.AutoMigrate(&Creature{}, &Tag{}, &ClientState{}, &SpeciesMetaRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database at %s: %w", dialect, connectionInfo, err)
	}
	return nil
}

// SaveCreature inserts or updates a creature record.
func (ds *DataStore) SaveCreature(creature *Creature) error {
	if err := ds.DB.Save(creature).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("species_id", creature.SpeciesID).
			Component("datastore").
			Build()
	}
	return nil
}

// GetCreature fetches one creature with its tags preloaded.
func (ds *DataStore) GetCreature(id uint) (*Creature, error) {
	var creature Creature
	err := ds.DB.Preload("Tags").First(&creature, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("creature %d not found", id).
				Category(errors.CategoryNotFound).
				Context("creature_id", id).
				Component("datastore").
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return &creature, nil
}

// GetCreatureByHash fetches a creature by its file content hash, returning
// nil without error when no record matches.
func (ds *DataStore) GetCreatureByHash(hash string) (*Creature, error) {
	var creature Creature
	err := ds.DB.Where("file_hash = ?", hash).First(&creature).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return &creature, nil
}

// DeleteCreature removes a creature and its tag associations.
func (ds *DataStore) DeleteCreature(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		creature := Creature{ID: id}
		if err := tx.Model(&creature).Association("Tags").Clear(); err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Context("creature_id", id).
				Component("datastore").
				Build()
		}
		result := tx.Delete(&creature)
		if result.Error != nil {
			return errors.New(result.Error).
				Category(errors.CategoryDatabase).
				Context("creature_id", id).
				Component("datastore").
				Build()
		}
		if result.RowsAffected == 0 {
			return errors.Newf("creature %d not found", id).
				Category(errors.CategoryNotFound).
				Context("creature_id", id).
				Component("datastore").
				Build()
		}
		return nil
	})
}

// AllCreatureFilePaths returns the stored file path of every creature,
// keyed by record id. Used by the directory scan to detect removals.
func (ds *DataStore) AllCreatureFilePaths() (map[uint]string, error) {
	var rows []struct {
		ID       uint
		FilePath string
	}
	if err := ds.DB.Model(&Creature{}).Select("id", "file_path").Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	paths := make(map[uint]string, len(rows))
	for _, r := range rows {
		paths[r.ID] = r.FilePath
	}
	return paths, nil
}

// createGormLogger builds the GORM logger used by every backend. Only slow
// queries and errors are reported.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      gormlogger.Warn,
			Colorful:      false,
		},
	)
}
