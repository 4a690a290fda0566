package orchestrator

import (
	"context"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
	"sjsage522/bestmuadata/services/worker"
)

// IncrementalCrawl refreshes products written in the last sinceDays days,
// then scans the first listing page of every category for products not yet
// stored. Refreshed products count as updated and new ones as created.
func (o *Orchestrator) IncrementalCrawl(ctx context.Context, sinceDays int) (model.CrawlStats, error) {
	if sinceDays <= 0 {
		sinceDays = 1
	}

	return o.execute(ctx, ModeIncremental, func(ctx context.Context, r *run) error {
		since := o.now().AddDate(0, 0, -sinceDays)
		existing, err := o.store.ProductsUpdatedSince(ctx, since)
		if err != nil {
			return err
		}
		r.log.Info().Int("products", len(existing)).Time("since", since).Msg("refreshing recently updated products")
		r.stats.ProductsFound = len(existing)
		r.stats.ProductsUpdated = r.refreshProducts(ctx, existing)
		if err := ctx.Err(); err != nil {
			return err
		}

		categories := r.discoverCategories(ctx)
		r.stats.CategoriesFound = len(categories)

		tasks := make([]worker.Task[model.CrawlStats], 0, len(categories))
		for _, cat := range categories {
			tasks = append(tasks, worker.Task[model.CrawlStats]{
				Name: cat.Slug,
				Run: func(ctx context.Context) (model.CrawlStats, error) {
					return r.scanNewProducts(ctx, cat), nil
				},
			})
		}
		if err := r.runTasks(ctx, tasks); err != nil {
			return err
		}

		r.stats.ProductsProcessed = r.stats.ProductsUpdated + r.stats.ProductsCreated
		return nil
	})
}

// refreshProducts re-parses each product page and upserts the result. It
// returns how many products were written.
func (r *run) refreshProducts(ctx context.Context, products []model.Product) int {
	updated := 0
	for _, p := range products {
		if ctx.Err() != nil {
			break
		}

		detail, ok := r.fetchDetail(ctx, p.URL, &r.stats)
		if !ok || detail == nil {
			continue
		}
		// Keep the stored category rather than one named on the page
		if p.CategoryID != nil {
			delete(detail, model.KeyCategoryName)
		}

		var scratch model.CrawlStats
		if _, saved := r.saveProduct(ctx, detail, &scratch); saved {
			updated++
			r.log.Debug().Str("slug", p.Slug).Msg("product refreshed")
		}
		r.stats.Errors += scratch.Errors
	}
	return updated
}

// scanNewProducts stores the products on the first listing page of cat
// that are not stored yet.
func (r *run) scanNewProducts(ctx context.Context, cat model.CategoryRecord) model.CrawlStats {
	sub := model.CrawlStats{CategoriesProcessed: 1}

	listed, err := r.o.extractor.ParseCategoryProducts(ctx, cat.URL, 1)
	if err != nil {
		sub.Errors++
		r.note("category "+cat.Slug, err)
	}

	for _, item := range listed {
		if ctx.Err() != nil {
			break
		}

		slug := normalizer.Product(item).Slug
		exists, err := r.o.store.ProductExists(ctx, slug)
		if err != nil {
			sub.Errors++
			r.note("product "+slug, err)
			continue
		}
		if exists {
			continue
		}
		sub.ProductsFound++

		raw := item
		detail, ok := r.fetchDetail(ctx, item.String(model.KeyURL), &sub)
		if !ok {
			continue
		}
		if detail != nil {
			raw = item.Merge(detail)
		}
		raw[model.KeyCategorySlug] = cat.Slug
		raw.SetIfMissing(model.KeyCategoryName, cat.Name)

		var scratch model.CrawlStats
		created, saved := r.saveProduct(ctx, raw, &scratch)
		sub.Errors += scratch.Errors
		if saved && created {
			sub.ProductsCreated++
		}
	}

	r.log.Debug().Str("category", cat.Slug).Int("new_products", sub.ProductsCreated).Msg("category scanned")
	return sub
}
