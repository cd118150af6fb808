package datastore

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
)

// GetSpeciesMeta loads a persisted species payload by cache key. A missing
// row returns (nil, nil) so callers can fall through to the network.
func (ds *DataStore) GetSpeciesMeta(cacheKey string) (*pokeapi.SpeciesMetadata, time.Time, error) {
	var record SpeciesMetaRecord
	if err := ds.DB.First(&record, "cache_key = ?", cacheKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("cache_key", cacheKey).
			Component("datastore").
			Build()
	}

	var meta pokeapi.SpeciesMetadata
	if err := json.Unmarshal([]byte(record.Payload), &meta); err != nil {
		// A corrupt row behaves like a miss; the next save overwrites it.
		return nil, time.Time{}, nil
	}
	return &meta, record.CachedAt, nil
}

// SaveSpeciesMeta upserts a species payload under its cache key.
func (ds *DataStore) SaveSpeciesMeta(cacheKey string, meta *pokeapi.SpeciesMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryGeneric).
			Context("cache_key", cacheKey).
			Component("datastore").
			Build()
	}

	record := SpeciesMetaRecord{
		CacheKey: cacheKey,
		Payload:  string(payload),
		CachedAt: time.Now(),
	}
	err = ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "cached_at"}),
	}).Create(&record).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("cache_key", cacheKey).
			Component("datastore").
			Build()
	}
	return nil
}
