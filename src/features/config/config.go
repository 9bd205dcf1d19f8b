package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Folders  []Folder `yaml:"folders" validate:"required,min=1,dive"`
	Versions Versions `yaml:"versions"`
	Debounce Debounce `yaml:"debounce"`
	Shutdown Shutdown `yaml:"shutdown"`
	Logger   Logger   `yaml:"logger"`
	Server   Server   `yaml:"server"`
	Catalog  Catalog  `yaml:"catalog"`
}

// Folder is a single watch target: a directory plus the file name patterns
// tracked inside it.
type Folder struct {
	Path      string   `yaml:"path" validate:"required"`
	Patterns  []string `yaml:"patterns" validate:"required,min=1"`
	Recursive bool     `yaml:"recursive"`
}

// Versions holds the configuration for version storage.
type Versions struct {
	Path string `yaml:"path" validate:"required"`
	// Ignore lists file name suffixes that never trigger a version
	// (browser temp downloads, editor swap files).
	Ignore []string `yaml:"ignore"`
}

// Debounce holds the quiescence settings for the change detector.
type Debounce struct {
	Window Duration `yaml:"window"`
}

// Shutdown holds the graceful-drain settings.
type Shutdown struct {
	Grace Duration `yaml:"grace"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Server holds the configuration for the embedded status server.
type Server struct {
	Enabled     bool   `yaml:"enabled"`
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Catalog holds the configuration for the version catalog database.
type Catalog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Duration is a time.Duration that unmarshals from a YAML string like "1.5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
