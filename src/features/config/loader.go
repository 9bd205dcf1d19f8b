package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new config Manager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		manager := NewManager(createDefaultConfig())

		if err := manager.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		slog.Info("Default configuration created successfully", "path", path)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	applyDefaults(&cfg)

	for i, folder := range cfg.Folders {
		info, err := os.Stat(folder.Path)
		if err != nil {
			return nil, fmt.Errorf("watched folder %q: %w", folder.Path, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("watched folder %q is not a directory", folder.Path)
		}
		for _, pattern := range folder.Patterns {
			if _, err := filepath.Match(pattern, ""); err != nil {
				return nil, fmt.Errorf("folder %q: malformed pattern %q: %w", folder.Path, pattern, err)
			}
		}
		cfg.Folders[i].Path = filepath.Clean(folder.Path)
	}

	manager := NewManager(&cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// applyDefaults fills in the values the YAML file may omit.
func applyDefaults(cfg *Config) {
	if cfg.Debounce.Window <= 0 {
		cfg.Debounce.Window = Duration(2 * time.Second)
	}
	if cfg.Shutdown.Grace <= 0 {
		cfg.Shutdown.Grace = Duration(5 * time.Second)
	}
	if cfg.Versions.Ignore == nil {
		cfg.Versions.Ignore = DefaultIgnoreSuffixes()
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3636
	}
	if cfg.Catalog.Enabled && cfg.Catalog.Path == "" {
		cfg.Catalog.Path = filepath.Join(filepath.Dir(cfg.Versions.Path), "catalog.db")
	}
}

// saveConfig saves the configuration to the specified file path.
func saveConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
