// Package orchestrator drives crawl runs: category discovery, per-category
// product crawling on a bounded worker pool, persistence, export and the
// crawl session lifecycle.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/logger"
	apperrors "sjsage522/bestmuadata/pkg/errors"
	"sjsage522/bestmuadata/services/publisher"
	"sjsage522/bestmuadata/services/worker"
)

// Run modes recorded in session reports
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
	ModeCategory    = "category"
)

// DefaultErrorLimit caps the error lines kept for a session
const DefaultErrorLimit = 200

// Extractor fetches and parses site pages
type Extractor interface {
	DiscoverCategories(ctx context.Context) ([]model.RawRecord, error)
	ParseCategoryProducts(ctx context.Context, categoryURL string, maxPages int) ([]model.RawRecord, error)
	ParseProductDetail(ctx context.Context, productURL string) (model.RawRecord, error)
}

// Store persists crawl results and sessions
type Store interface {
	StartSession(ctx context.Context, runID string) (model.CrawlSession, error)
	FinishSession(ctx context.Context, id int64, status string, stats model.CrawlStats, errText string) error
	UpsertCategory(ctx context.Context, rec model.CategoryRecord) (model.Category, bool, error)
	UpsertProduct(ctx context.Context, rec model.ProductRecord) (model.Product, bool, error)
	CategoryBySlug(ctx context.Context, slug string) (model.Category, error)
	ProductsUpdatedSince(ctx context.Context, since time.Time) ([]model.Product, error)
	ProductExists(ctx context.Context, slug string) (bool, error)
}

// Exporter writes SQL dumps of stored data
type Exporter interface {
	ExportAll(ctx context.Context) (model.ExportStats, error)
	ExportCategory(ctx context.Context, slug string) (model.ExportStats, error)
	ExportSchema() (string, error)
	WriteSummary(ctx context.Context) (string, error)
}

// Config holds run options
type Config struct {
	Workers                int
	Delay                  time.Duration
	MaxCategories          int
	MaxProductsPerCategory int
	MaxPagesPerCategory    int
	SkipDetails            bool
	ErrorLimit             int
}

// Dependencies are the collaborators of a run. Publisher and ErrorLog are optional.
type Dependencies struct {
	Extractor Extractor
	Store     Store
	Exporter  Exporter
	Publisher publisher.Publisher
	ErrorLog  helpers.ErrorLogger
	Logger    *logger.Logger
}

// Orchestrator runs crawls
type Orchestrator struct {
	cfg       Config
	extractor Extractor
	store     Store
	exporter  Exporter
	publisher publisher.Publisher
	errorLog  helpers.ErrorLogger
	pool      *worker.Pool
	log       *logger.Logger
	now       func() time.Time
	newRunID  func() string
}

// New creates an orchestrator. Extractor, Store and Exporter are required.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Extractor == nil || deps.Store == nil || deps.Exporter == nil {
		return nil, apperrors.NewConfiguration("orchestrator needs an extractor, a store and an exporter", nil)
	}
	if cfg.ErrorLimit <= 0 {
		cfg.ErrorLimit = DefaultErrorLimit
	}
	log := deps.Logger
	if log == nil {
		log = logger.ForOrchestrator()
	}

	return &Orchestrator{
		cfg:       cfg,
		extractor: deps.Extractor,
		store:     deps.Store,
		exporter:  deps.Exporter,
		publisher: deps.Publisher,
		errorLog:  deps.ErrorLog,
		pool:      worker.NewPool(cfg.Workers, cfg.Delay),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newRunID:  uuid.NewString,
	}, nil
}

// ExportAllData writes every category dump, the schema file and the summary
func (o *Orchestrator) ExportAllData(ctx context.Context) (model.ExportStats, error) {
	stats, err := o.exporter.ExportAll(ctx)
	if err != nil {
		return stats, err
	}

	schema, err := o.exporter.ExportSchema()
	if err != nil {
		return stats, err
	}
	stats.SchemaFile = schema

	summary, err := o.exporter.WriteSummary(ctx)
	if err != nil {
		return stats, err
	}
	stats.SummaryFile = summary

	o.log.Info().
		Int("files", stats.FilesCreated).
		Int("products", stats.ProductsExported).
		Str("schema_file", schema).
		Str("summary_file", summary).
		Msg("data export completed")
	return stats, nil
}
