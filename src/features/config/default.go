package config

import (
	"os"
	"path/filepath"
	"time"
)

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Folders: []Folder{
			{
				Path: filepath.Join(home, "Downloads"),
				Patterns: []string{
					"statement.pdf",
					"invoice.pdf",
					"report.pdf",
				},
			},
		},
		Versions: Versions{
			Path:   filepath.Join(home, ".versio", "versions"),
			Ignore: DefaultIgnoreSuffixes(),
		},
		Debounce: Debounce{
			Window: Duration(2 * time.Second),
		},
		Shutdown: Shutdown{
			Grace: Duration(5 * time.Second),
		},
		Logger: Logger{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Enabled:     false,
			PrintRoutes: false,
			Port:        3636,
		},
		Catalog: Catalog{
			Enabled: true,
			Path:    filepath.Join(home, ".versio", "catalog.db"),
		},
	}
}

// DefaultIgnoreSuffixes returns the file name suffixes that are skipped by
// default: partial browser downloads and editor temp files.
func DefaultIgnoreSuffixes() []string {
	return []string{".crdownload", ".download", ".tmp", ".part", "~"}
}
