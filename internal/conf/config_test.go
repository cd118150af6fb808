package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultsCoverClientPreferences(t *testing.T) {
	setDefaults()

	settings := &Settings{}
	require.NoError(t, viper.Unmarshal(settings))

	assert.Equal(t, "box", settings.UI.SpriteStyle)
	assert.Equal(t, "solid", settings.UI.BackgroundStyle)
	assert.Equal(t, "default", settings.UI.CardStyle)
	assert.Equal(t, "system", settings.UI.Theme)
	assert.Equal(t, "comfortable", settings.UI.LayoutMode)
	assert.Equal(t, "grid", settings.UI.ViewMode)
}

func TestSaveToRoundTrip(t *testing.T) {
	settings := &Settings{}
	settings.Main.Name = "beastvault-test"
	settings.Server.Port = 9090
	settings.UI.SpriteStyle = "animated"
	settings.UI.LayoutMode = "compact"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, settings.SaveTo(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded := &Settings{}
	require.NoError(t, yaml.Unmarshal(data, loaded))
	assert.Equal(t, "beastvault-test", loaded.Main.Name)
	assert.Equal(t, 9090, loaded.Server.Port)
	assert.Equal(t, "animated", loaded.UI.SpriteStyle)
	assert.Equal(t, "compact", loaded.UI.LayoutMode)
}
