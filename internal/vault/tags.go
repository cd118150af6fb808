package vault

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/errors"
)

// allowedImageTypes are the raster formats accepted for tag images,
// verified by content sniffing rather than by file extension.
var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ListTags returns every tag with its creature count.
func (s *Service) ListTags() ([]datastore.Tag, error) {
	return s.ds.GetAllTags()
}

// CreateTag validates and creates a tag. Empty names are rejected and
// duplicates surface as a conflict.
func (s *Service) CreateTag(name string) (*datastore.Tag, error) {
	return s.ds.CreateTag(name)
}

// DeleteTag removes a tag, its creature assignments and its image asset.
func (s *Service) DeleteTag(id uint) error {
	tag, err := s.ds.GetTag(id)
	if err != nil {
		return err
	}
	if err := s.ds.DeleteTag(id); err != nil {
		return err
	}
	if tag.ImagePath != "" {
		if removeErr := os.Remove(tag.ImagePath); removeErr != nil && !os.IsNotExist(removeErr) {
			serviceLogger.Warn("failed to remove tag image",
				"tag_id", id,
				"path", tag.ImagePath,
				"error", removeErr)
		}
	}
	return nil
}

// AssignTags replaces a creature's tag set.
func (s *Service) AssignTags(creatureID uint, tagIDs []uint) error {
	return s.ds.ReplaceCreatureTags(creatureID, tagIDs)
}

// SetTagImage stores an uploaded image for a tag. The payload must sniff
// as PNG, JPEG or WebP.
func (s *Service) SetTagImage(id uint, data []byte) error {
	tag, err := s.ds.GetTag(id)
	if err != nil {
		return err
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return errors.Newf("unsupported image type %s", contentType).
			Category(errors.CategoryValidation).
			Context("tag_id", id).
			Component("vault").
			Build()
	}

	dir := filepath.Join(s.settings.Vault.Path, "tag-images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Component("vault").
			Build()
	}

	imagePath := filepath.Join(dir, fmt.Sprintf("tag-%d-%s%s", id, uuid.NewString(), ext))
	if err := os.WriteFile(imagePath, data, 0o644); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("tag_id", id).
			Component("vault").
			Build()
	}

	if err := s.ds.SetTagImage(id, imagePath); err != nil {
		_ = os.Remove(imagePath)
		return err
	}

	// Replace rather than accumulate previous uploads.
	if tag.ImagePath != "" && tag.ImagePath != imagePath {
		if removeErr := os.Remove(tag.ImagePath); removeErr != nil && !os.IsNotExist(removeErr) {
			serviceLogger.Debug("failed to remove previous tag image",
				"tag_id", id,
				"path", tag.ImagePath,
				"error", removeErr)
		}
	}
	return nil
}

// RemoveTagImage clears a tag's image asset.
func (s *Service) RemoveTagImage(id uint) error {
	tag, err := s.ds.GetTag(id)
	if err != nil {
		return err
	}
	if err := s.ds.SetTagImage(id, ""); err != nil {
		return err
	}
	if tag.ImagePath != "" {
		if removeErr := os.Remove(tag.ImagePath); removeErr != nil && !os.IsNotExist(removeErr) {
			serviceLogger.Debug("failed to remove tag image file",
				"tag_id", id,
				"path", tag.ImagePath,
				"error", removeErr)
		}
	}
	return nil
}

// TagImagePath returns the stored image path for a tag, or an empty string.
func (s *Service) TagImagePath(id uint) (string, error) {
	tag, err := s.ds.GetTag(id)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(tag.ImagePath), nil
}
