// Package cmd assembles the command line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/David-H-Afonso/beastvault/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beastvault",
		Short: "BeastVault creature collection server",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serveCommand(settings),
		scanCommand(settings),
	)

	return rootCmd
}

// setupFlags binds the global flags and their viper keys.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Main.Debug, "debug", "d", settings.Main.Debug, "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Database.Path, "db", settings.Database.Path, "SQLite database path")
	cmd.PersistentFlags().StringVar(&settings.Vault.Path, "vault", settings.Vault.Path, "Directory for imported creature files")
	cmd.PersistentFlags().IntVarP(&settings.Server.Port, "port", "p", settings.Server.Port, "HTTP listen port")

	_ = viper.BindPFlag("main.debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("database.path", cmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("vault.path", cmd.PersistentFlags().Lookup("vault"))
	_ = viper.BindPFlag("server.port", cmd.PersistentFlags().Lookup("port"))
}
