package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"sjsage522/bestmuadata/internal/store"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

// FileValidation is the outcome of replaying one dump
type FileValidation struct {
	File         string   `json:"file"`
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	RecordsCount int      `json:"records_count"`
}

// ValidationReport aggregates the validation of every dump in the directory
type ValidationReport struct {
	TotalFiles   int              `json:"total_files"`
	ValidFiles   int              `json:"valid_files"`
	InvalidFiles int              `json:"invalid_files"`
	TotalRecords int              `json:"total_records"`
	Files        []FileValidation `json:"files"`
}

// ValidateFile replays path statement by statement into an empty in-memory
// SQLite database. Every failing statement is reported and replay goes on.
// A valid file reports the number of products it inserted.
func (e *Exporter) ValidateFile(ctx context.Context, path string) (FileValidation, error) {
	result := FileValidation{File: filepath.Base(path)}

	content, err := os.ReadFile(path)
	if err != nil {
		return result, apperrors.NewExport("validate", "failed to read "+path, err)
	}

	db, err := sqlx.Open("sqlite", store.SQLiteDSN(":memory:"))
	if err != nil {
		return result, apperrors.NewExport("validate", "failed to open replay database", err)
	}
	defer db.Close()
	// Every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	for i, stmt := range SplitStatements(string(content)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("statement %d: %v", i+1, err))
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Valid = len(result.Errors) == 0
	if result.Valid {
		if err := db.GetContext(ctx, &result.RecordsCount, `SELECT COUNT(*) FROM products`); err != nil {
			result.Warnings = append(result.Warnings, "could not count products: "+err.Error())
		}
	}

	e.log.Debug().
		Str("file", result.File).
		Bool("valid", result.Valid).
		Int("errors", len(result.Errors)).
		Int("records", result.RecordsCount).
		Msg("dump validated")
	return result, nil
}

// ValidateAll validates every dump in the export directory. schema.sql
// holds no data and is skipped.
func (e *Exporter) ValidateAll(ctx context.Context) (ValidationReport, error) {
	var report ValidationReport

	files, err := e.sqlFiles()
	if err != nil {
		return report, err
	}

	for _, f := range files {
		if filepath.Base(f) == SchemaFile {
			continue
		}
		result, err := e.ValidateFile(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
		}

		report.TotalFiles++
		if result.Valid {
			report.ValidFiles++
			report.TotalRecords += result.RecordsCount
		} else {
			report.InvalidFiles++
		}
		report.Files = append(report.Files, result)
	}

	e.log.Info().
		Int("files", report.TotalFiles).
		Int("valid", report.ValidFiles).
		Int("invalid", report.InvalidFiles).
		Int("records", report.TotalRecords).
		Msg("export validation completed")
	return report, nil
}

// SplitStatements splits a SQL script on semicolons outside string
// literals and drops "--" comments. Blank statements are omitted.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		quote   rune
		comment bool
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case comment:
			if r == '\n' {
				comment = false
				current.WriteRune(r)
			}
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				// A doubled quote is an escaped quote
				if i+1 < len(runes) && runes[i+1] == quote {
					current.WriteRune(runes[i+1])
					i++
					continue
				}
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			i++
		case r == ';':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return stmts
}
