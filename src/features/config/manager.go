package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Manager holds the application configuration and provides thread-safe access
// to it. The configuration is immutable for a running watch subsystem;
// applying a change means reloading and restarting the watcher, never mutating
// in-flight state.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a new config Manager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetJSON returns the current configuration rendered as JSON, for the status
// endpoints.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Sprintf("{%q: %q}", "error", err.Error())
	}
	return string(data)
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return saveConfig(path, m.config)
}

// EnsureDirectories creates the version-storage and catalog directories if
// they don't exist.
func (m *Manager) EnsureDirectories() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if err := os.MkdirAll(cfg.Versions.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create versions directory %q: %w", cfg.Versions.Path, err)
	}
	if cfg.Catalog.Enabled && cfg.Catalog.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Catalog.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	return nil
}
