package watching

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"versio/src/features/config"
)

func testConfig(folders ...config.Folder) *config.Config {
	return &config.Config{
		Folders: folders,
		Versions: config.Versions{
			Path:   "/versions",
			Ignore: config.DefaultIgnoreSuffixes(),
		},
	}
}

func TestFilter_Matches(t *testing.T) {
	cfg := testConfig(
		config.Folder{Path: "/docs", Patterns: []string{"report.pdf", "*.txt"}},
		config.Folder{Path: "/projects", Patterns: []string{"notes.md"}, Recursive: true},
	)
	filter := NewFilter(cfg)

	tests := []struct {
		name  string
		path  string
		match bool
	}{
		{"exact name in watched folder", "/docs/report.pdf", true},
		{"glob match in watched folder", "/docs/todo.txt", true},
		{"untracked name", "/docs/photo.jpg", false},
		{"tracked name in unwatched folder", "/tmp/report.pdf", false},
		{"tracked name in subfolder of non-recursive target", "/docs/archive/report.pdf", false},
		{"exact name in recursive target root", "/projects/notes.md", true},
		{"exact name deep in recursive target", "/projects/a/b/notes.md", true},
		{"sibling folder sharing the recursive prefix", "/projectsx/notes.md", false},
		{"dotfile", "/docs/.report.pdf", false},
		{"partial browser download", "/docs/report.pdf.crdownload", false},
		{"editor temp file", "/docs/report.pdf.tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, filter.Matches(filepath.FromSlash(tt.path)))
		})
	}
}

func TestFilter_SkipsOwnVersionFiles(t *testing.T) {
	// Version files carry the writer's token; when the version directory sits
	// inside a watched folder they must not re-trigger the watcher.
	cfg := testConfig(config.Folder{Path: "/docs", Patterns: []string{"report.pdf*", "*"}})
	filter := NewFilter(cfg)

	assert.True(t, filter.Matches("/docs/report.pdf"))
	assert.False(t, filter.Matches("/docs/report.pdf.20260830-142501.123"))
	assert.False(t, filter.Matches("/docs/report.pdf.20260830-142501.123-002"))
}

func TestFilter_VariationPatterns(t *testing.T) {
	// Browser download variations are tracked through globs.
	cfg := testConfig(config.Folder{Path: "/downloads", Patterns: []string{"statement*.pdf", "*statement.pdf"}})
	filter := NewFilter(cfg)

	assert.True(t, filter.Matches("/downloads/statement.pdf"))
	assert.True(t, filter.Matches("/downloads/statement (1).pdf"))
	assert.True(t, filter.Matches("/downloads/(1)statement.pdf"))
	assert.False(t, filter.Matches("/downloads/invoice.pdf"))
}
