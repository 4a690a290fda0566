package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"sjsage522/bestmuadata/internal/exporter"
	"sjsage522/bestmuadata/internal/model"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func renderCrawlStats(w io.Writer, title string, stats model.CrawlStats) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Categories found", count(stats.CategoriesFound)},
		{"Categories processed", count(stats.CategoriesProcessed)},
		{"Products found", count(stats.ProductsFound)},
		{"Products processed", count(stats.ProductsProcessed)},
		{"Products created", count(stats.ProductsCreated)},
		{"Products updated", count(stats.ProductsUpdated)},
		{"Errors", count(stats.Errors)},
		{"Duration", (time.Duration(stats.DurationSeconds * float64(time.Second))).Round(time.Millisecond).String()},
	})
	t.Render()

	if stats.Export != nil {
		renderExportStats(w, "Export", *stats.Export)
	}
}

func renderExportStats(w io.Writer, title string, stats model.ExportStats) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Categories processed", count(stats.CategoriesProcessed)},
		{"Files created", count(stats.FilesCreated)},
		{"Products exported", count(stats.ProductsExported)},
		{"Errors", count(len(stats.Errors))},
	})
	if stats.SchemaFile != "" {
		t.AppendRow(table.Row{"Schema file", stats.SchemaFile})
	}
	if stats.SummaryFile != "" {
		t.AppendRow(table.Row{"Summary file", stats.SummaryFile})
	}
	t.Render()

	for _, e := range stats.Errors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}

func renderValidation(w io.Writer, report exporter.ValidationReport) {
	t := newTable(w, "Export validation")
	t.AppendHeader(table.Row{"File", "Valid", "Records", "Errors", "Warnings"})
	for _, f := range report.Files {
		valid := "yes"
		if !f.Valid {
			valid = "NO"
		}
		t.AppendRow(table.Row{f.File, valid, count(f.RecordsCount), len(f.Errors), len(f.Warnings)})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d files", report.TotalFiles),
		fmt.Sprintf("%d valid", report.ValidFiles),
		count(report.TotalRecords),
		fmt.Sprintf("%d invalid", report.InvalidFiles),
		"",
	})
	t.Render()

	for _, f := range report.Files {
		for _, e := range f.Errors {
			fmt.Fprintf(w, "  ! %s: %s\n", f.File, e)
		}
	}
}

func renderDatabaseStats(w io.Writer, stats model.DatabaseStats) {
	t := newTable(w, "Database")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Categories", count(stats.Categories)},
		{"Brands", count(stats.Brands)},
		{"Products", count(stats.Products)},
		{"Crawl sessions", count(stats.CrawlSessions)},
		{"Products with images", count(stats.ProductsWithImages)},
		{"Products with prices", count(stats.ProductsWithPrices)},
		{"Products with ratings", count(stats.ProductsWithRatings)},
	})
	t.Render()
}

func renderSessions(w io.Writer, sessions []model.CrawlSession) {
	t := newTable(w, "Recent crawl sessions")
	t.AppendHeader(table.Row{"ID", "Run", "Started", "Status", "Categories", "Found", "Created", "Updated"})
	for _, s := range sessions {
		t.AppendRow(table.Row{
			s.ID,
			s.RunID,
			humanize.Time(s.StartedAt),
			s.Status,
			count(s.CategoriesFound),
			count(s.ProductsFound),
			count(s.ProductsCreated),
			count(s.ProductsUpdated),
		})
	}
	t.Render()
}

func renderFiles(w io.Writer, title string, files []string) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"File"})
	for _, f := range files {
		t.AppendRow(table.Row{filepath.Base(f)})
	}
	t.Render()
}
