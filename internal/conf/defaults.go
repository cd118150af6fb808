package conf

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers the default value for every setting key.
func setDefaults() {
	viper.SetDefault("main.name", "beastvault")
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.log.path", "logs")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.debug", false)

	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.path", "beastvault.db")
	viper.SetDefault("database.dsn", "")

	viper.SetDefault("vault.path", "vault")
	viper.SetDefault("vault.backuppath", "vault/backup")
	viper.SetDefault("vault.scanpath", "incoming")

	viper.SetDefault("pokeapi.baseurl", "https://pokeapi.co/api/v2")
	viper.SetDefault("pokeapi.spriteurl", "https://raw.githubusercontent.com/msikma/pokesprite/master")
	viper.SetDefault("pokeapi.timeout", 10*time.Second)
	viper.SetDefault("pokeapi.ratelimitms", 100)
	viper.SetDefault("pokeapi.cachettl", time.Hour)

	viper.SetDefault("cache.capacity", 2048)
	viper.SetDefault("cache.ttl", 14*24*time.Hour)
	viper.SetDefault("cache.missttl", 15*time.Minute)

	viper.SetDefault("ui.spritestyle", "box")
	viper.SetDefault("ui.backgroundstyle", "solid")
	viper.SetDefault("ui.cardstyle", "default")
	viper.SetDefault("ui.theme", "system")
	viper.SetDefault("ui.layoutmode", "comfortable")
	viper.SetDefault("ui.viewmode", "grid")
}

func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	return errors.As(err, target)
}
