package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/David-H-Afonso/beastvault/cmd"
	"github.com/David-H-Afonso/beastvault/internal/conf"
	"github.com/David-H-Afonso/beastvault/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if settings.Main.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command error: %v\n", err)
		os.Exit(1)
	}
}
