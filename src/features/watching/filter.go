package watching

import (
	"path/filepath"
	"regexp"
	"strings"

	"versio/src/features/config"
)

// versionTokenPattern matches file names produced by the version writer
// (name.20060102-150405.000 with an optional collision suffix). Files that
// already carry a token are never treated as tracked changes, so a version
// directory inside a watched folder can't feed the watcher its own output.
var versionTokenPattern = regexp.MustCompile(`\.\d{8}-\d{6}\.\d{3}(-\d+)?$`)

// Filter decides whether a path belongs to a configured watch target. It is
// pure: built once from the configuration, no side effects, safe for
// concurrent use.
type Filter struct {
	folders        []config.Folder
	ignoreSuffixes []string
}

// NewFilter builds a Filter from the configuration.
func NewFilter(cfg *config.Config) *Filter {
	return &Filter{
		folders:        cfg.Folders,
		ignoreSuffixes: cfg.Versions.Ignore,
	}
}

// Matches reports whether path is a tracked file: it lies in a configured
// folder (directly, or anywhere below it for recursive targets) and its base
// name matches one of the folder's patterns, exact or glob.
func (f *Filter) Matches(path string) bool {
	name := filepath.Base(path)

	if strings.HasPrefix(name, ".") {
		return false
	}
	if versionTokenPattern.MatchString(name) {
		return false
	}
	for _, suffix := range f.ignoreSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}

	dir := filepath.Clean(filepath.Dir(path))
	for _, folder := range f.folders {
		if !f.inFolder(dir, folder) {
			continue
		}
		for _, pattern := range folder.Patterns {
			if pattern == name {
				return true
			}
			if ok, err := filepath.Match(pattern, name); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func (f *Filter) inFolder(dir string, folder config.Folder) bool {
	root := filepath.Clean(folder.Path)
	if dir == root {
		return true
	}
	if !folder.Recursive {
		return false
	}
	return strings.HasPrefix(dir, root+string(filepath.Separator))
}
