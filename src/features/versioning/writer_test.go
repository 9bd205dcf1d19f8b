package versioning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	recorded []Version
	err      error
}

func (c *fakeCatalog) Record(ctx context.Context, v Version) error {
	if c.err != nil {
		return c.err
	}
	c.recorded = append(c.recorded, v)
	return nil
}

func (c *fakeCatalog) Recent(ctx context.Context, limit int) ([]Version, error) {
	return c.recorded, nil
}

func (c *fakeCatalog) BySource(ctx context.Context, source string, limit int) ([]Version, error) {
	return c.recorded, nil
}

func (c *fakeCatalog) Close() error { return nil }

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWriter_WritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))
	source := writeSource(t, dir, "report.pdf", "the report bytes")

	writer := NewWriter(versionDir, nil)
	version, err := writer.Write(context.Background(), source)
	require.NoError(t, err)
	require.NotNil(t, version)

	assert.Equal(t, source, version.Source)
	assert.Equal(t, int64(len("the report bytes")), version.Size)
	assert.True(t, strings.HasPrefix(filepath.Base(version.Path), "report.pdf."), "version name keeps the original name")
	assert.Equal(t, "report.pdf."+version.Token, filepath.Base(version.Path))

	data, err := os.ReadFile(version.Path)
	require.NoError(t, err)
	assert.Equal(t, "the report bytes", string(data))
}

func TestWriter_TokensIncreaseAcrossWrites(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))
	source := writeSource(t, dir, "report.pdf", "v1")

	writer := NewWriter(versionDir, nil)
	clock := time.Date(2026, 8, 30, 14, 25, 1, 100*int(time.Millisecond), time.UTC)
	writer.now = func() time.Time { return clock }

	first, err := writer.Write(context.Background(), source)
	require.NoError(t, err)

	clock = clock.Add(250 * time.Millisecond)
	require.NoError(t, os.WriteFile(source, []byte("v2"), 0o644))
	second, err := writer.Write(context.Background(), source)
	require.NoError(t, err)

	assert.Greater(t, second.Token, first.Token, "tokens must sort by creation order")
}

func TestWriter_CollidingTokensGetSuffixes(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))
	source := writeSource(t, dir, "report.pdf", "v1")

	writer := NewWriter(versionDir, nil)
	frozen := time.Date(2026, 8, 30, 14, 25, 1, 0, time.UTC)
	writer.now = func() time.Time { return frozen }

	first, err := writer.Write(context.Background(), source)
	require.NoError(t, err)
	second, err := writer.Write(context.Background(), source)
	require.NoError(t, err)
	third, err := writer.Write(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, first.Token+"-001", second.Token)
	assert.Equal(t, first.Token+"-002", third.Token)
	assert.NotEqual(t, first.Path, second.Path)
	assert.NotEqual(t, second.Path, third.Path)
	for _, v := range []*Version{first, second, third} {
		if _, err := os.Stat(v.Path); err != nil {
			t.Errorf("version %s missing: %v", v.Path, err)
		}
	}
}

func TestWriter_SuffixedTokensStaySortablePastTen(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))
	source := writeSource(t, dir, "report.pdf", "v1")

	writer := NewWriter(versionDir, nil)
	frozen := time.Date(2026, 8, 30, 14, 25, 1, 0, time.UTC)
	writer.now = func() time.Time { return frozen }

	var tokens []string
	for n := 0; n < 12; n++ {
		version, err := writer.Write(context.Background(), source)
		require.NoError(t, err)
		tokens = append(tokens, version.Token)
	}

	// An unpadded counter would put "-10" before "-9".
	assert.True(t, sort.StringsAreSorted(tokens), "tokens out of creation order: %v", tokens)
}

func TestWriter_ConcurrentSameBaseNameWritesStayDistinct(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))

	writer := NewWriter(versionDir, nil)
	frozen := time.Date(2026, 8, 30, 14, 25, 1, 0, time.UTC)
	writer.now = func() time.Time { return frozen }

	// Same base name in different folders, all colliding on one token.
	contents := make(map[string]string)
	var sources []string
	for i := 0; i < 8; i++ {
		sub := filepath.Join(dir, fmt.Sprintf("folder-%d", i))
		require.NoError(t, os.Mkdir(sub, 0o755))
		content := fmt.Sprintf("report body %d", i)
		source := writeSource(t, sub, "report.pdf", content)
		contents[source] = content
		sources = append(sources, source)
	}

	var (
		mu       sync.Mutex
		versions []*Version
		wg       sync.WaitGroup
	)
	for _, source := range sources {
		source := source
		wg.Add(1)
		go func() {
			defer wg.Done()
			version, err := writer.Write(context.Background(), source)
			assert.NoError(t, err)
			mu.Lock()
			versions = append(versions, version)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, versions, len(sources))
	paths := make(map[string]bool)
	for _, v := range versions {
		require.NotNil(t, v)
		assert.False(t, paths[v.Path], "version path reused: %s", v.Path)
		paths[v.Path] = true
		data, err := os.ReadFile(v.Path)
		require.NoError(t, err)
		assert.Equal(t, contents[v.Source], string(data), "version of %s holds foreign bytes", v.Source)
	}

	entries, err := os.ReadDir(versionDir)
	require.NoError(t, err)
	assert.Len(t, entries, len(sources), "every write must land in its own file")
}

func TestWriter_VanishedSourceIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))

	writer := NewWriter(versionDir, nil)
	version, err := writer.Write(context.Background(), filepath.Join(dir, "gone.pdf"))
	assert.NoError(t, err, "deleted source is abandoned silently")
	assert.Nil(t, version)
}

func TestWriter_UnwritableVersionDirFails(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, "report.pdf", "v1")

	writer := NewWriter(filepath.Join(dir, "does-not-exist"), nil)
	version, err := writer.Write(context.Background(), source)
	assert.Error(t, err)
	assert.Nil(t, version)
}

func TestWriter_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))
	source := writeSource(t, dir, "report.pdf", "v1")

	writer := NewWriter(versionDir, nil)
	for n := 0; n < 3; n++ {
		_, err := writer.Write(context.Background(), source)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(versionDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".tmp-"), "temp file left behind: %s", entry.Name())
	}
	assert.Len(t, entries, 3)
}

func TestWriter_RecordsInCatalog(t *testing.T) {
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "versions")
	require.NoError(t, os.Mkdir(versionDir, 0o755))
	source := writeSource(t, dir, "report.pdf", "v1")

	catalog := &fakeCatalog{}
	writer := NewWriter(versionDir, catalog)

	version, err := writer.Write(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, catalog.recorded, 1)
	assert.Equal(t, version.Token, catalog.recorded[0].Token)
	assert.Equal(t, source, catalog.recorded[0].Source)
}
