package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/pkm"
)

// ImportFile is one uploaded file to catalogue.
type ImportFile struct {
	Name string
	Data []byte
}

// ImportResult reports the outcome for one file of an import batch.
type ImportResult struct {
	FileName   string `json:"fileName"`
	CreatureID uint   `json:"creatureId,omitempty"`
	Duplicate  bool   `json:"duplicate"`
	Error      string `json:"error,omitempty"`
}

// ScanSummary reports the outcome of one directory scan. Partial errors
// never abort the scan; they are counted and listed.
type ScanSummary struct {
	Processed        int      `json:"processed"`
	NewlyImported    int      `json:"newlyImported"`
	AlreadyImported  int      `json:"alreadyImported"`
	Deleted          int      `json:"deleted"`
	Errors           int      `json:"errors"`
	ErrorDetails     []string `json:"errorDetails,omitempty"`
}

// ImportFiles decodes and stores a batch of uploaded files. Each file is
// handled independently; one bad file never blocks the rest.
func (s *Service) ImportFiles(files []ImportFile) []ImportResult {
	results := make([]ImportResult, 0, len(files))
	for _, file := range files {
		result := ImportResult{FileName: file.Name}
		creature, duplicate, err := s.importOne(file.Name, file.Data)
		switch {
		case err != nil:
			result.Error = err.Error()
			s.metrics.IncrementImportErrors()
		case duplicate:
			result.Duplicate = true
			result.CreatureID = creature.ID
		default:
			result.CreatureID = creature.ID
			s.metrics.IncrementImportedFiles()
		}
		results = append(results, result)
	}
	return results
}

// importOne decodes one file, stores the blob under the vault directory
// and creates the creature row. Returns duplicate=true when the content
// hash is already catalogued.
func (s *Service) importOne(fileName string, data []byte) (*datastore.Creature, bool, error) {
	decoded, err := pkm.Decode(data, fileName)
	if err != nil {
		return nil, false, err
	}

	hash := contentHash(data)
	existing, err := s.ds.GetCreatureByHash(hash)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	if err := os.MkdirAll(s.settings.Vault.Path, 0o755); err != nil {
		return nil, false, errors.New(err).
			Category(errors.CategoryFileIO).
			Component("vault").
			Build()
	}

	storedName := fmt.Sprintf("%s.%s", uuid.NewString(), decoded.Format)
	storedPath := filepath.Join(s.settings.Vault.Path, storedName)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return nil, false, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("file_name", fileName).
			Component("vault").
			Build()
	}

	creature := &datastore.Creature{
		SpeciesID:         decoded.SpeciesID,
		Form:              decoded.Form,
		Nickname:          decoded.Nickname,
		Level:             decoded.Level,
		IsShiny:           decoded.IsShiny,
		BallID:            decoded.BallID,
		OriginGeneration:  decoded.OriginGeneration,
		CaptureGeneration: decoded.CaptureGeneration,
		CanGigantamax:     decoded.CanGigantamax,
		HasMegaStone:      decoded.HasMegaStone,
		FilePath:          storedPath,
		FileName:          filepath.Base(fileName),
		FileFormat:        decoded.Format,
		FileHash:          hash,
	}
	if err := s.ds.SaveCreature(creature); err != nil {
		_ = os.Remove(storedPath)
		return nil, false, err
	}

	serviceLogger.Info("imported creature file",
		"species_id", creature.SpeciesID,
		"form", creature.Form,
		"format", creature.FileFormat,
		"file", creature.FileName)
	return creature, false, nil
}

// ScanDirectory walks the configured scan directory, imports every new
// file and deletes rows whose stored files have disappeared.
func (s *Service) ScanDirectory() (*ScanSummary, error) {
	s.metrics.IncrementScans()
	summary := &ScanSummary{}

	scanPath := s.settings.Vault.ScanPath
	if scanPath == "" {
		scanPath = s.settings.Vault.Path
	}

	entries, err := os.ReadDir(scanPath)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("scan_path", scanPath).
			Component("vault").
			Build()
	}

	for _, entry := range entries {
		if entry.IsDir() || !isCreatureFile(entry.Name()) {
			continue
		}
		summary.Processed++

		path := filepath.Join(scanPath, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			summary.Errors++
			summary.ErrorDetails = append(summary.ErrorDetails, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}

		_, duplicate, err := s.importOne(entry.Name(), data)
		switch {
		case err != nil:
			summary.Errors++
			summary.ErrorDetails = append(summary.ErrorDetails, fmt.Sprintf("%s: %v", entry.Name(), err))
			s.metrics.IncrementImportErrors()
		case duplicate:
			summary.AlreadyImported++
		default:
			summary.NewlyImported++
			s.metrics.IncrementImportedFiles()
		}
	}

	deleted, err := s.pruneMissing()
	if err != nil {
		summary.Errors++
		summary.ErrorDetails = append(summary.ErrorDetails, err.Error())
	}
	summary.Deleted = deleted

	serviceLogger.Info("scan finished",
		"processed", summary.Processed,
		"new", summary.NewlyImported,
		"existing", summary.AlreadyImported,
		"deleted", summary.Deleted,
		"errors", summary.Errors)
	return summary, nil
}

// pruneMissing deletes rows whose stored file no longer exists.
func (s *Service) pruneMissing() (int, error) {
	paths, err := s.ds.AllCreatureFilePaths()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for id, path := range paths {
		if _, statErr := os.Stat(path); statErr == nil || !os.IsNotExist(statErr) {
			continue
		}
		if err := s.ds.DeleteCreature(id); err != nil {
			serviceLogger.Warn("failed to prune missing creature",
				"creature_id", id,
				"error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// DeleteCreature removes the row, its tag links and the stored file.
func (s *Service) DeleteCreature(id uint) error {
	creature, err := s.ds.GetCreature(id)
	if err != nil {
		return err
	}
	if err := s.ds.DeleteCreature(id); err != nil {
		return err
	}
	if creature.FilePath != "" {
		if removeErr := os.Remove(creature.FilePath); removeErr != nil && !os.IsNotExist(removeErr) {
			serviceLogger.Warn("failed to remove stored file",
				"creature_id", id,
				"path", creature.FilePath,
				"error", removeErr)
		}
	}
	return nil
}

// DownloadOriginal returns the stored bytes of a creature file plus a
// download filename. source selects "database" (the vault copy) or
// "backup" (the secondary copy under the backup directory).
func (s *Service) DownloadOriginal(id uint, source string) ([]byte, string, error) {
	creature, err := s.ds.GetCreature(id)
	if err != nil {
		return nil, "", err
	}

	path := creature.FilePath
	if source == "backup" {
		if s.settings.Vault.BackupPath == "" {
			return nil, "", errors.Newf("no backup directory configured").
				Category(errors.CategoryConfiguration).
				Component("vault").
				Build()
		}
		path = filepath.Join(s.settings.Vault.BackupPath, filepath.Base(creature.FilePath))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.New(err).
			Category(errors.CategoryFileIO).
			Context("creature_id", id).
			Component("vault").
			Build()
	}

	name := creature.FileName
	if name == "" {
		name = fmt.Sprintf("%s-%d.%s", strings.ToLower(creature.SpeciesName), creature.SpeciesID, creature.FileFormat)
	}
	return data, name, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// isCreatureFile filters scan candidates by extension.
func isCreatureFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pk8", ".pk9", ".ek8", ".ek9":
		return true
	}
	return false
}
