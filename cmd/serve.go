package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/David-H-Afonso/beastvault/internal/api"
	"github.com/David-H-Afonso/beastvault/internal/conf"
	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/metacache"
	"github.com/David-H-Afonso/beastvault/internal/observability"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
	"github.com/David-H-Afonso/beastvault/internal/sprites"
	"github.com/David-H-Afonso/beastvault/internal/vault"
)

const shutdownTimeout = 10 * time.Second

// serveCommand runs the HTTP server.
func serveCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the collection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
}

// scanCommand runs one directory scan and exits.
func scanCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the configured directory for creature files",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := buildVault(settings, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := svc.ScanDirectory()
			if err != nil {
				return err
			}
			fmt.Printf("processed %d files: %d new, %d existing, %d deleted, %d errors\n",
				summary.Processed, summary.NewlyImported, summary.AlreadyImported,
				summary.Deleted, summary.Errors)
			return nil
		},
	}
}

// buildVault assembles the datastore, metadata pipeline and vault service.
func buildVault(settings *conf.Settings, obs *observability.Metrics) (*vault.Service, datastore.Interface, func(), error) {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	resolverMetrics := obs.ResolverMetrics()
	client := pokeapi.NewClient(pokeapi.Config{
		BaseURL:     settings.PokeAPI.BaseURL,
		Timeout:     settings.PokeAPI.Timeout,
		CacheTTL:    settings.PokeAPI.CacheTTL,
		RateLimitMS: settings.PokeAPI.RateLimitMS,
	}, resolverMetrics)

	cache := metacache.New(settings.Cache.Capacity, settings.Cache.TTL, settings.Cache.MissTTL)
	resolver := metacache.NewResolver(cache, client, store, resolverMetrics, slog.Default())
	engine := sprites.NewEngine(settings.PokeAPI.SpriteURL)

	svc := vault.New(settings, store, resolver, engine, obs.VaultMetrics())
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Default().Error("failed to close database", "error", err)
		}
	}
	return svc, store, cleanup, nil
}

// runServer wires every component and serves until interrupted.
func runServer(settings *conf.Settings) error {
	obs, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	svc, store, cleanup, err := buildVault(settings, obs)
	if err != nil {
		return err
	}
	defer cleanup()

	e := echo.New()
	e.HideBanner = true
	controller := api.New(e, store, settings, svc, obs)

	address := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	go func() {
		if err := e.Start(address); err != nil {
			slog.Default().Info("http server stopped", "error", err)
		}
	}()
	slog.Default().Info("server started", "address", address)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	controller.Shutdown()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
