package orchestrator

import (
	"context"
	"errors"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
	"sjsage522/bestmuadata/internal/store"
	apperrors "sjsage522/bestmuadata/pkg/errors"
	"sjsage522/bestmuadata/services/worker"
)

// FullOptions bound a full crawl. Zero values fall back to the Config caps.
type FullOptions struct {
	MaxCategories          int
	MaxProductsPerCategory int
	SkipDetails            bool
}

// FullCrawl discovers and stores categories, crawls their products on the
// worker pool and exports everything.
func (o *Orchestrator) FullCrawl(ctx context.Context, opts FullOptions) (model.CrawlStats, error) {
	if opts.MaxCategories <= 0 {
		opts.MaxCategories = o.cfg.MaxCategories
	}
	if opts.MaxProductsPerCategory <= 0 {
		opts.MaxProductsPerCategory = o.cfg.MaxProductsPerCategory
	}
	opts.SkipDetails = opts.SkipDetails || o.cfg.SkipDetails

	return o.execute(ctx, ModeFull, func(ctx context.Context, r *run) error {
		r.log.Info().Msg("discovering categories")
		categories := r.discoverCategories(ctx)
		r.stats.CategoriesFound = len(categories)

		if opts.MaxCategories > 0 && len(categories) > opts.MaxCategories {
			categories = categories[:opts.MaxCategories]
		}

		r.log.Info().Int("categories", len(categories)).Msg("crawling categories")
		tasks := make([]worker.Task[model.CrawlStats], 0, len(categories))
		for _, cat := range categories {
			tasks = append(tasks, worker.Task[model.CrawlStats]{
				Name: cat.Slug,
				Run: func(ctx context.Context) (model.CrawlStats, error) {
					return r.crawlCategory(ctx, cat, opts.MaxProductsPerCategory, opts.SkipDetails), nil
				},
			})
		}
		if err := r.runTasks(ctx, tasks); err != nil {
			return err
		}

		r.log.Info().Msg("exporting data")
		exported, err := o.exporter.ExportAll(ctx)
		if err != nil {
			return err
		}
		r.stats.Export = &exported
		return nil
	})
}

// CrawlCategory crawls one stored category and exports it. An unknown slug
// fails the run.
func (o *Orchestrator) CrawlCategory(ctx context.Context, slug string, maxProducts int) (model.CrawlStats, error) {
	if maxProducts <= 0 {
		maxProducts = o.cfg.MaxProductsPerCategory
	}

	return o.execute(ctx, ModeCategory, func(ctx context.Context, r *run) error {
		cat, err := o.store.CategoryBySlug(ctx, slug)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFound("category", "category '"+slug+"' not found in database")
		}
		if err != nil {
			return err
		}
		r.stats.CategoriesFound = 1

		sub := r.crawlCategory(ctx, model.CategoryRecord{Name: cat.Name, Slug: cat.Slug, URL: cat.URL}, maxProducts, o.cfg.SkipDetails)
		r.stats.Add(sub)
		if err := ctx.Err(); err != nil {
			return err
		}

		exported, err := o.exporter.ExportCategory(ctx, cat.Slug)
		if err != nil {
			return err
		}
		r.stats.Export = &exported
		return nil
	})
}

// discoverCategories fetches the category tree and stores it parents
// first. Discovery failures are counted and whatever was found is kept.
func (r *run) discoverCategories(ctx context.Context) []model.CategoryRecord {
	raws, err := r.o.extractor.DiscoverCategories(ctx)
	if err != nil {
		r.record("discovery", err)
	}

	categories := make([]model.CategoryRecord, 0, len(raws))
	for _, raw := range raws {
		rec := normalizer.Category(raw)
		if _, _, err := r.o.store.UpsertCategory(ctx, rec); err != nil {
			r.record("category "+rec.Slug, err)
			continue
		}
		categories = append(categories, rec)
	}
	r.log.Info().Int("categories", len(categories)).Msg("categories discovered and saved")
	return categories
}

// runTasks runs tasks on the pool and folds each sub-result into the run
// as it completes.
func (r *run) runTasks(ctx context.Context, tasks []worker.Task[model.CrawlStats]) error {
	return worker.Run(ctx, r.o.pool, tasks, func(res worker.Result[model.CrawlStats]) {
		if res.Err != nil {
			r.record("category "+res.Name, res.Err)
			return
		}
		r.stats.Add(res.Value)
		r.log.Debug().
			Str("category", res.Name).
			Int("products_found", res.Value.ProductsFound).
			Int("products_processed", res.Value.ProductsProcessed).
			Dur("duration", res.Duration).
			Msg("category finished")
	})
}

// crawlCategory lists the products of cat, overlays detail pages unless
// skipDetails is set and upserts each product. Failures are counted in the
// returned stats.
func (r *run) crawlCategory(ctx context.Context, cat model.CategoryRecord, maxProducts int, skipDetails bool) model.CrawlStats {
	sub := model.CrawlStats{CategoriesProcessed: 1}
	log := r.log.WithField("category", cat.Slug)
	log.Info().Msg("crawling category")

	products, err := r.o.extractor.ParseCategoryProducts(ctx, cat.URL, r.o.cfg.MaxPagesPerCategory)
	if err != nil {
		sub.Errors++
		r.note("category "+cat.Slug, err)
	}
	if maxProducts > 0 && len(products) > maxProducts {
		products = products[:maxProducts]
	}
	sub.ProductsFound = len(products)

	for _, listed := range products {
		if ctx.Err() != nil {
			break
		}

		raw := listed
		if !skipDetails {
			detail, ok := r.fetchDetail(ctx, listed.String(model.KeyURL), &sub)
			if !ok {
				continue
			}
			if detail != nil {
				raw = listed.Merge(detail)
			}
		}
		raw[model.KeyCategorySlug] = cat.Slug
		raw.SetIfMissing(model.KeyCategoryName, cat.Name)

		r.saveProduct(ctx, raw, &sub)
	}

	log.Info().
		Int("products_found", sub.ProductsFound).
		Int("products_processed", sub.ProductsProcessed).
		Int("errors", sub.Errors).
		Msg("category crawled")
	return sub
}

// fetchDetail waits the courtesy delay and parses a product page. ok is
// false when the fetch failed; a page without a product yields nil, true.
func (r *run) fetchDetail(ctx context.Context, productURL string, sub *model.CrawlStats) (model.RawRecord, bool) {
	worker.Sleep(ctx, r.o.cfg.Delay)
	detail, err := r.o.extractor.ParseProductDetail(ctx, productURL)
	if err != nil {
		sub.Errors++
		r.note("product "+productURL, err)
		return nil, false
	}
	if detail == nil {
		r.log.Debug().Str("url", productURL).Msg("no product on detail page, keeping list data")
	}
	return detail, true
}

// saveProduct normalizes, validates and upserts one product
func (r *run) saveProduct(ctx context.Context, raw model.RawRecord, sub *model.CrawlStats) (created, ok bool) {
	rec := normalizer.Product(raw)
	result := normalizer.Validate(rec)
	if !result.Valid {
		r.log.Warn().Str("slug", rec.Slug).Strs("errors", result.Errors).Msg("product validation failed")
		return false, false
	}
	if len(result.Warnings) > 0 {
		r.log.Debug().Str("slug", rec.Slug).Strs("warnings", result.Warnings).Msg("product validation warnings")
	}

	_, created, err := r.o.store.UpsertProduct(ctx, rec)
	if err != nil {
		sub.Errors++
		r.note("product "+rec.Slug, err)
		return false, false
	}

	sub.ProductsProcessed++
	if created {
		sub.ProductsCreated++
	} else {
		sub.ProductsUpdated++
	}
	return created, true
}
