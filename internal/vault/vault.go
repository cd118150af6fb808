// Package vault implements the collection query layer: it combines the
// persisted creature records with resolved species metadata and produces
// the display-ready views the API serves.
package vault

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/David-H-Afonso/beastvault/internal/conf"
	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/logging"
	"github.com/David-H-Afonso/beastvault/internal/metacache"
	"github.com/David-H-Afonso/beastvault/internal/observability/metrics"
	"github.com/David-H-Afonso/beastvault/internal/sprites"
)

// stalenessWindow is how long a committed snapshot stays fresh without a
// successful fetch.
const stalenessWindow = 5 * time.Minute

// resolveConcurrency bounds the metadata fan-out per page.
const resolveConcurrency = 8

var (
	serviceLogger   *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	serviceLogger, closeLogger, err = logging.NewFileLogger("logs/vault.log", "vault", serviceLevelVar)
	if err != nil || serviceLogger == nil {
		serviceLogger = slog.Default().With("service", "vault")
		closeLogger = func() error { return nil }
	}
}

// CreatureView is the display form of one catalogued creature.
type CreatureView struct {
	ID                uint            `json:"id"`
	SpeciesID         int             `json:"speciesId"`
	Form              int             `json:"form"`
	SpeciesName       string          `json:"speciesName"`
	Nickname          string          `json:"nickname,omitempty"`
	FormLabel         string          `json:"formLabel,omitempty"`
	Level             int             `json:"level"`
	IsShiny           bool            `json:"isShiny"`
	BallID            int             `json:"ballId"`
	TeraType          *int            `json:"teraType,omitempty"`
	OriginGeneration  int             `json:"originGeneration"`
	CaptureGeneration int             `json:"captureGeneration"`
	CanGigantamax     bool            `json:"canGigantamax"`
	PrimaryType       string          `json:"primaryType,omitempty"`
	SecondaryType     string          `json:"secondaryType,omitempty"`
	PrimaryColor      string          `json:"primaryColor,omitempty"`
	SecondaryColor    string          `json:"secondaryColor,omitempty"`
	SpriteURL         string          `json:"spriteUrl,omitempty"`
	Placeholder       bool            `json:"placeholder"` // metadata unresolved, render fallback art
	Tags              []datastore.Tag `json:"tags"`
	FileFormat        string          `json:"fileFormat"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Page is one committed query result.
type Page struct {
	Items      []CreatureView `json:"items"`
	Total      int64          `json:"total"`
	Generation uint64         `json:"-"`
}

// TagGroup is one partition of the grouped-by-tag view.
type TagGroup struct {
	TagID   uint           `json:"tagId"` // 0 for the untagged group
	TagName string         `json:"tagName"`
	Items   []CreatureView `json:"items"`
	Total   int64          `json:"total"`
}

// GroupedPage is the grouped-by-tag query result.
type GroupedPage struct {
	Groups []TagGroup `json:"groups"`
}

// Service owns filter normalization, the enrichment pipeline and the
// import/scan operations.
type Service struct {
	settings *conf.Settings
	ds       datastore.Interface
	resolver *metacache.Resolver
	engine   *sprites.Engine
	metrics  *metrics.VaultMetrics

	// snapshot state; guarded by mu
	mu         sync.Mutex
	snapshot   *Page
	lastFetch  time.Time
	generation atomic.Uint64
}

// New creates the vault service. m may be nil.
func New(settings *conf.Settings, ds datastore.Interface, resolver *metacache.Resolver, engine *sprites.Engine, m *metrics.VaultMetrics) *Service {
	return &Service{
		settings: settings,
		ds:       ds,
		resolver: resolver,
		engine:   engine,
		metrics:  m,
	}
}

// Snapshot returns the last committed page, or nil before the first
// successful fetch.
func (s *Service) Snapshot() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// IsStale reports whether the committed snapshot has aged past the
// staleness window.
func (s *Service) IsStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFetch.IsZero() {
		return true
	}
	return time.Since(s.lastFetch) > stalenessWindow
}

// commit installs page as the current snapshot unless a newer fetch has
// already committed. Returns false for a discarded stale page.
func (s *Service) commit(page *Page) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil && s.snapshot.Generation > page.Generation {
		serviceLogger.Debug("discarding stale fetch result",
			"generation", page.Generation,
			"current", s.snapshot.Generation)
		return false
	}
	s.snapshot = page
	s.lastFetch = time.Now()
	return true
}

// spriteStyle returns the user's persisted sprite style preference, falling
// back to the configured default.
func (s *Service) spriteStyle() sprites.Style {
	value, err := s.ds.GetClientState("spriteStyle")
	if err != nil || value == "" {
		value = s.settings.UI.SpriteStyle
	}
	return sprites.ParseStyle(value)
}

// Close flushes the service log file.
func (s *Service) Close() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
