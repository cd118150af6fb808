// Package conf defines the application settings and loads them from the
// config file, environment and defaults using viper.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains top-level application settings
type MainSettings struct {
	Name  string // service name used in logs
	Debug bool   // true to enable debug logging
	Log   LogSettings
}

// LogSettings contains file logging settings
type LogSettings struct {
	Path string // directory for per-service log files
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host  string
	Port  int
	Debug bool
}

// DatabaseSettings selects and configures the persistence backend
type DatabaseSettings struct {
	Type string // "sqlite" or "mysql"
	Path string // sqlite database file path
	DSN  string // mysql connection string
}

// VaultSettings configures where imported creature files live
type VaultSettings struct {
	Path       string // directory holding imported files
	BackupPath string // secondary copy used by the backup download source
	ScanPath   string // directory watched by the scan operation
}

// PokeAPISettings configures the external species data client
type PokeAPISettings struct {
	BaseURL     string
	SpriteURL   string // base URL for generation-correct box sprites
	Timeout     time.Duration
	RateLimitMS int
	CacheTTL    time.Duration // client-internal payload cache
}

// MetadataCacheSettings configures the shared species metadata cache
type MetadataCacheSettings struct {
	Capacity int           // maximum number of entries before LRU eviction
	TTL      time.Duration // validity window for successful lookups
	MissTTL  time.Duration // validity window for negative entries
}

// UISettings holds the defaults returned for unset client state keys
type UISettings struct {
	SpriteStyle     string // animated | home | artwork | default | box
	BackgroundStyle string // solid | gradient | image
	CardStyle       string // default | minimal | detailed
	Theme           string
	LayoutMode      string // comfortable | compact
	ViewMode        string // grid | list | grouped
}

// Settings is the root configuration object
type Settings struct {
	Main     MainSettings
	Server   ServerSettings
	Database DatabaseSettings
	Vault    VaultSettings
	PokeAPI  PokeAPISettings
	Cache    MetadataCacheSettings
	UI       UISettings
}

// Load reads the configuration from disk, applying defaults and environment
// overrides. A missing config file is not an error; the defaults are
// written out so users have a file to edit.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("BEASTVAULT")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found, write one with the defaults
		return createDefaultConfig(configPaths)
	}
	return nil
}

// createDefaultConfig writes the default settings as a config file to the
// last (user-level) config path, then loads it back.
func createDefaultConfig(configPaths []string) error {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling default config: %w", err)
	}

	configPath := filepath.Join(configPaths[len(configPaths)-1], "config.yaml")
	if err := settings.SaveTo(configPath); err != nil {
		return fmt.Errorf("error creating default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "beastvault"))
	}
	return paths, nil
}

// SaveTo writes the settings as YAML to the given path.
func (s *Settings) SaveTo(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing settings: %w", err)
	}
	return nil
}
