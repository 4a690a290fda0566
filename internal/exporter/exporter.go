// Package exporter writes stored categories and products as replayable
// SQL dumps, one file per category, plus a schema file and a plain-text
// summary.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/store"
	"sjsage522/bestmuadata/logger"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

const (
	// SchemaFile is the schema-only dump name
	SchemaFile = "schema.sql"
	// SummaryFile is the summary name
	SummaryFile = "export_summary.txt"
)

// Store is the read side of the persistence layer used for exports
type Store interface {
	CategoryTree(ctx context.Context) (*model.CategoryTree, error)
	CategoryBySlug(ctx context.Context, slug string) (model.Category, error)
	ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]model.Product, error)
	ProductsByCategories(ctx context.Context, ids []int64) ([]model.Product, error)
	BrandsByIDs(ctx context.Context, ids []int64) ([]model.Brand, error)
	DatabaseStats(ctx context.Context) (model.DatabaseStats, error)
}

// Exporter writes dumps into a directory
type Exporter struct {
	store Store
	dir   string
	log   *logger.Logger
	now   func() time.Time
}

// New creates the export directory if needed
func New(s Store, dir string, log *logger.Logger) (*Exporter, error) {
	if log == nil {
		log = logger.ForExporter()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewExport("init", "failed to create export directory "+dir, err)
	}
	log.Debug().Str("dir", dir).Msg("exporter initialized")
	return &Exporter{
		store: s,
		dir:   dir,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Dir returns the export directory
func (e *Exporter) Dir() string {
	return e.dir
}

// FileName returns the dump name for a category slug
func FileName(slug string) string {
	return slug + "_products.sql"
}

// ExportAll walks the category tree from its roots and writes one dump per
// category with directly assigned products. A failing category is recorded
// in the stats and the walk continues.
func (e *Exporter) ExportAll(ctx context.Context) (model.ExportStats, error) {
	var stats model.ExportStats

	tree, err := e.store.CategoryTree(ctx)
	if err != nil {
		return stats, err
	}

	for _, root := range tree.Roots() {
		for _, cat := range tree.Descendants(root.ID) {
			stats.CategoriesProcessed++

			products, err := e.store.ProductsByCategory(ctx, cat.ID, 0)
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("error exporting category %s: %v", cat.Slug, err))
				continue
			}
			if len(products) == 0 {
				continue
			}

			file, err := e.writeDump(ctx, cat, tree.Ancestors(cat.ID), products)
			if err != nil {
				e.log.Error().Err(err).Str("category", cat.Slug).Msg("category export failed")
				stats.Errors = append(stats.Errors, fmt.Sprintf("error exporting category %s: %v", cat.Slug, err))
				continue
			}
			stats.FilesCreated++
			stats.ProductsExported += len(products)
			stats.Files = append(stats.Files, file)
		}
	}

	e.log.Info().
		Int("categories", stats.CategoriesProcessed).
		Int("files", stats.FilesCreated).
		Int("products", stats.ProductsExported).
		Int("errors", len(stats.Errors)).
		Msg("export completed")
	return stats, nil
}

// ExportCategory writes one dump holding the products of the category and
// of every category below it. The dump carries the ancestors and the whole
// subtree so foreign keys resolve on replay.
func (e *Exporter) ExportCategory(ctx context.Context, slug string) (model.ExportStats, error) {
	var stats model.ExportStats

	cat, err := e.store.CategoryBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return stats, apperrors.NewNotFound("export", "category '"+slug+"' not found")
	}
	if err != nil {
		return stats, err
	}

	tree, err := e.store.CategoryTree(ctx)
	if err != nil {
		return stats, err
	}
	subtree := tree.Descendants(cat.ID)
	stats.CategoriesProcessed = len(subtree)

	ids := make([]int64, 0, len(subtree))
	for _, c := range subtree {
		ids = append(ids, c.ID)
	}
	products, err := e.store.ProductsByCategories(ctx, ids)
	if err != nil {
		return stats, err
	}
	if len(products) == 0 {
		e.log.Warn().Str("category", slug).Msg("no products found for category")
		return stats, nil
	}

	// Ancestors end with cat itself; the rest of the subtree follows depth first
	cats := append(tree.Ancestors(cat.ID), subtree[1:]...)
	file, err := e.writeDump(ctx, cat, cats, products)
	if err != nil {
		return stats, err
	}

	stats.FilesCreated = 1
	stats.ProductsExported = len(products)
	stats.Files = []string{file}
	e.log.Info().Str("category", slug).Int("products", len(products)).Str("file", file).Msg("category exported")
	return stats, nil
}

func (e *Exporter) writeDump(ctx context.Context, cat model.Category, cats []model.Category, products []model.Product) (string, error) {
	brands, err := e.store.BrandsByIDs(ctx, brandIDs(products))
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, FileName(cat.Slug))
	dump := &dumpWriter{}
	dump.header(cat, len(products), e.now())
	dump.schema()
	dump.categories(cats)
	dump.brands(brands)
	dump.products(products)
	dump.footer()

	if err := os.WriteFile(path, dump.Bytes(), 0o644); err != nil {
		return "", apperrors.NewExport("dump", "failed to write "+path, err)
	}
	e.log.Debug().Str("file", path).Int("products", len(products)).Msg("dump written")
	return path, nil
}

func brandIDs(products []model.Product) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, p := range products {
		if p.BrandID != nil && !seen[*p.BrandID] {
			seen[*p.BrandID] = true
			ids = append(ids, *p.BrandID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ExportSchema writes the table and index definitions to schema.sql
func (e *Exporter) ExportSchema() (string, error) {
	path := filepath.Join(e.dir, SchemaFile)

	var b strings.Builder
	b.WriteString("-- bestmua.vn Database Schema\n")
	fmt.Fprintf(&b, "-- Generated at: %s\n\n", e.now().Format(time.RFC3339))
	writeStatements(&b, store.EntityTables(store.SQLite))
	b.WriteString("\n-- Create indexes for performance\n")
	writeStatements(&b, store.EntityIndexes())

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", apperrors.NewExport("schema", "failed to write "+path, err)
	}
	e.log.Info().Str("file", path).Msg("database schema exported")
	return path, nil
}

// WriteSummary writes entity counts and the list of dump files
func (e *Exporter) WriteSummary(ctx context.Context) (string, error) {
	stats, err := e.store.DatabaseStats(ctx)
	if err != nil {
		return "", err
	}
	files, err := e.sqlFiles()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("bestmua.vn Data Export Summary\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	fmt.Fprintf(&b, "Export Date: %s\n", e.now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Export Directory: %s\n\n", e.dir)

	b.WriteString("Database Statistics:\n")
	fmt.Fprintf(&b, "- Categories: %s\n", humanize.Comma(int64(stats.Categories)))
	fmt.Fprintf(&b, "- Brands: %s\n", humanize.Comma(int64(stats.Brands)))
	fmt.Fprintf(&b, "- Products: %s\n", humanize.Comma(int64(stats.Products)))
	fmt.Fprintf(&b, "- Products with images: %s\n", humanize.Comma(int64(stats.ProductsWithImages)))
	fmt.Fprintf(&b, "- Products with prices: %s\n", humanize.Comma(int64(stats.ProductsWithPrices)))
	fmt.Fprintf(&b, "- Products with ratings: %s\n\n", humanize.Comma(int64(stats.ProductsWithRatings)))

	b.WriteString("Export Files:\n")
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s bytes)\n", filepath.Base(f), humanize.Comma(info.Size()))
	}
	if len(files) == 0 {
		b.WriteString("- No export files found\n")
	}

	path := filepath.Join(e.dir, SummaryFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", apperrors.NewExport("summary", "failed to write "+path, err)
	}
	e.log.Info().Str("file", path).Msg("export summary created")
	return path, nil
}

// CleanupOldExports removes dump files last modified more than days ago
// and returns how many were removed.
func (e *Exporter) CleanupOldExports(days int) (int, error) {
	files, err := e.sqlFiles()
	if err != nil {
		return 0, err
	}

	cutoff := e.now().Add(-time.Duration(days) * 24 * time.Hour)
	removed := 0
	var errs []error
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(f); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
		e.log.Debug().Str("file", f).Msg("old export removed")
	}

	e.log.Info().Int("removed", removed).Int("days", days).Msg("old exports cleaned up")
	if len(errs) > 0 {
		return removed, apperrors.NewExport("cleanup", "failed to remove some exports", errors.Join(errs...))
	}
	return removed, nil
}

func (e *Exporter) sqlFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(e.dir, "*.sql"))
	if err != nil {
		return nil, apperrors.NewExport("list", "failed to list export files", err)
	}
	return files, nil
}
