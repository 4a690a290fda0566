package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sjsage522/bestmuadata/pkg/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return strings.ToLower(out.String()), err
}

func tempDatabase(t *testing.T) (dbURL, exportDir string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CACHE_BACKEND", "none")
	t.Setenv("SESSION_REPORT_STREAM", "")
	return "sqlite:///" + filepath.Join(dir, "test.db"), filepath.Join(dir, "exports")
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	dbURL, exportDir := tempDatabase(t)

	out, err := execute(t, "--database-url", dbURL, "--export-dir", exportDir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "products with images")
	assert.NotContains(t, out, "recent crawl sessions")
}

func TestCleanupRejectsNonPositiveDays(t *testing.T) {
	dbURL, exportDir := tempDatabase(t)

	_, err := execute(t, "--database-url", dbURL, "--export-dir", exportDir, "cleanup", "--days", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--days")
}

func TestValidateFailsOnBrokenDump(t *testing.T) {
	dbURL, exportDir := tempDatabase(t)
	require.NoError(t, os.MkdirAll(exportDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(exportDir, "broken_products.sql"), []byte("INSERT INTO missing VALUES (1);"), 0o644))

	out, err := execute(t, "--database-url", dbURL, "--export-dir", exportDir, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 export files are invalid")
	assert.Contains(t, out, "broken_products.sql")
}

func TestExportEmptyDatabase(t *testing.T) {
	dbURL, exportDir := tempDatabase(t)

	out, err := execute(t, "--database-url", dbURL, "--export-dir", exportDir, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "files created")
	assert.FileExists(t, filepath.Join(exportDir, "schema.sql"))
	assert.FileExists(t, filepath.Join(exportDir, "export_summary.txt"))
}

func TestInvalidConfiguration(t *testing.T) {
	_, exportDir := tempDatabase(t)

	_, err := execute(t, "--database-url", "mysql://localhost/db", "--export-dir", exportDir, "stats")
	require.Error(t, err)
}

func TestCrawlCategoryRequiresSlug(t *testing.T) {
	dbURL, exportDir := tempDatabase(t)

	_, err := execute(t, "--database-url", dbURL, "--export-dir", exportDir, "crawl-category")
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown category", apperrors.NewNotFound("category", "missing"), 2},
		{"wrapped configuration", fmt.Errorf("category crawl failed: %w", apperrors.NewConfiguration("bad", nil)), 2},
		{"network", apperrors.NewNetwork("son-moi", "timeout", nil), 1},
		{"plain", errors.New("1 of 1 export files are invalid"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestCrawlCategoryUnknownSlugExitCode(t *testing.T) {
	dbURL, exportDir := tempDatabase(t)

	_, err := execute(t, "--database-url", dbURL, "--export-dir", exportDir, "crawl-category", "khong-ton-tai")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}
