package datastore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/David-H-Afonso/beastvault/internal/errors"
)

// GetClientState returns the stored value for a preference key, or
// ("", nil) when the key has never been written.
func (ds *DataStore) GetClientState(key string) (string, error) {
	var state ClientState
	if err := ds.DB.First(&state, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", errors.New(err).
			Category(errors.CategoryDatabase).
			Context("state_key", key).
			Component("datastore").
			Build()
	}
	return state.Value, nil
}

// SetClientState upserts a preference key.
func (ds *DataStore) SetClientState(key, value string) error {
	state := ClientState{Key: key, Value: value}
	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&state).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("state_key", key).
			Component("datastore").
			Build()
	}
	return nil
}
