package datastore

import (
	"strings"

	"gorm.io/gorm"

	"github.com/David-H-Afonso/beastvault/internal/errors"
)

// GetAllTags returns every tag with its derived creature count.
func (ds *DataStore) GetAllTags() ([]Tag, error) {
	var tags []Tag
	if err := ds.DB.Order("name ASC").Find(&tags).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	for i := range tags {
		var count int64
		if err := ds.DB.Table("creature_tags").Where("tag_id = ?", tags[i].ID).Count(&count).Error; err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryDatabase).
				Context("tag_id", tags[i].ID).
				Component("datastore").
				Build()
		}
		tags[i].PokemonCount = count
	}
	return tags, nil
}

// GetTag fetches one tag by id.
func (ds *DataStore) GetTag(id uint) (*Tag, error) {
	var tag Tag
	if err := ds.DB.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("tag %d not found", id).
				Category(errors.CategoryNotFound).
				Context("tag_id", id).
				Component("datastore").
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return &tag, nil
}

// CreateTag inserts a tag. Duplicate names surface as a conflict; the
// uniqueness is enforced by the database index.
func (ds *DataStore) CreateTag(name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Newf("tag name must not be empty").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}

	tag := Tag{Name: name}
	if err := ds.DB.Create(&tag).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Newf("tag %q already exists", name).
				Category(errors.CategoryConflict).
				Context("tag_name", name).
				Component("datastore").
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return &tag, nil
}

// DeleteTag removes a tag and cascades removal from every creature.
func (ds *DataStore) DeleteTag(id uint) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM creature_tags WHERE tag_id = ?", id).Error; err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Context("tag_id", id).
				Component("datastore").
				Build()
		}
		result := tx.Delete(&Tag{}, id)
		if result.Error != nil {
			return errors.New(result.Error).
				Category(errors.CategoryDatabase).
				Context("tag_id", id).
				Component("datastore").
				Build()
		}
		if result.RowsAffected == 0 {
			return errors.Newf("tag %d not found", id).
				Category(errors.CategoryNotFound).
				Context("tag_id", id).
				Component("datastore").
				Build()
		}
		return nil
	})
}

// SetTagImage stores or clears a tag's image asset path.
func (ds *DataStore) SetTagImage(id uint, imagePath string) error {
	result := ds.DB.Model(&Tag{}).Where("id = ?", id).Update("image_path", imagePath)
	if result.Error != nil {
		return errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("tag_id", id).
			Component("datastore").
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("tag %d not found", id).
			Category(errors.CategoryNotFound).
			Context("tag_id", id).
			Component("datastore").
			Build()
	}
	return nil
}

// ReplaceCreatureTags sets a creature's tag set with full-replace semantics.
func (ds *DataStore) ReplaceCreatureTags(creatureID uint, tagIDs []uint) error {
	var creature Creature
	if err := ds.DB.First(&creature, creatureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Newf("creature %d not found", creatureID).
				Category(errors.CategoryNotFound).
				Context("creature_id", creatureID).
				Component("datastore").
				Build()
		}
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	var tags []Tag
	if len(tagIDs) > 0 {
		if err := ds.DB.Find(&tags, tagIDs).Error; err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Build()
		}
		if len(tags) != len(tagIDs) {
			return errors.Newf("one or more tags do not exist").
				Category(errors.CategoryValidation).
				Context("creature_id", creatureID).
				Component("datastore").
				Build()
		}
	}

	if err := ds.DB.Model(&creature).Association("Tags").Replace(tags); err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("creature_id", creatureID).
			Component("datastore").
			Build()
	}
	return nil
}

// isUniqueViolation detects unique constraint errors across sqlite and mysql.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "constraint failed")
}
