package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"versio/src/features/config"
	"versio/src/features/hosting"
	"versio/src/features/logging"
	"versio/src/features/metrics"
	"versio/src/features/versioning"
	"versio/src/features/watching"
	"versio/src/infra/database"
	"versio/src/infra/watcher"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "versio",
	Short:        "Watch folders and keep a timestamped version of every change to tracked files",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the watch daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists at %s", configPath)
		}
		if _, err := config.Load(configPath); err != nil {
			return err
		}
		fmt.Printf("Configuration created at %s\n", configPath)
		return nil
	},
}

var versionsLimit int

var versionsCmd = &cobra.Command{
	Use:   "versions [source]",
	Short: "List recorded versions, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgManager, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg := cfgManager.Get()
		if !cfg.Catalog.Enabled {
			return versioning.ErrCatalogDisabled
		}

		catalog, err := database.NewSqliteCatalog(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer catalog.Close()

		service := versioning.NewService(catalog)
		var versions []versioning.Version
		if len(args) == 1 {
			versions, err = service.BySource(context.Background(), args[0], versionsLimit)
		} else {
			versions, err = service.Recent(context.Background(), versionsLimit)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tSOURCE\tSIZE\tVERSION FILE")
		for _, v := range versions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", v.Token, v.Source, v.Size, v.Path)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 50, "maximum number of versions to list")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(runCmd, configCmd, versionsCmd)
}

func runDaemon() error {
	cfgManager, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := cfgManager.Get()

	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	var catalog versioning.Catalog
	if cfg.Catalog.Enabled {
		sqliteCatalog, err := database.NewSqliteCatalog(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer sqliteCatalog.Close()
		catalog = sqliteCatalog
	}

	source, err := watcher.New(watcher.DefaultBufferSize)
	if err != nil {
		return fmt.Errorf("failed to create event source: %w", err)
	}

	m := metrics.New()
	writer := versioning.NewWriter(cfg.Versions.Path, catalog)
	watchService := watching.NewService(cfgManager, source, writer, m)
	versionService := versioning.NewService(catalog)

	if err := watchService.Start(context.Background()); err != nil {
		source.Close()
		return err
	}

	var server *hosting.Server
	if cfg.Server.Enabled {
		server = hosting.NewServer(cfgManager, watchService, versionService, m)
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("Status server stopped", "error", err)
			}
		}()
		slog.Info("Status server started", "port", cfg.Server.Port)
	}

	slog.Info("Versio is running. Press Ctrl+C to stop.", "folders", len(cfg.Folders), "window", cfg.Debounce.Window.Std())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down...")

	watchService.Stop()

	if server != nil {
		if err := server.Shutdown(); err != nil {
			slog.Warn("Failed to shut down status server", "error", err)
		}
	}

	slog.Info("Versio shut down cleanly.")
	return nil
}
