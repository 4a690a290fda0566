package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"sjsage522/bestmuadata/internal/model"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

const productColumns = `id, name, slug, url, description, price, original_price, discount_percentage,
	sku, availability, rating, review_count, image_url, images, ingredients, usage_instructions,
	category_id, brand_id, is_featured, is_bestseller, is_new, is_sale, created_at, updated_at`

// UpsertProduct creates or updates a product matched by slug or url.
// Category and brand references are resolved, and created on demand when
// given by name.
func (s *Store) UpsertProduct(ctx context.Context, rec model.ProductRecord) (p model.Product, created bool, err error) {
	err = s.WithTx(ctx, func(tx *Tx) error {
		p, created, err = tx.UpsertProduct(ctx, rec)
		return err
	})
	return p, created, err
}

// UpsertProduct is UpsertProduct inside the transaction
func (t *Tx) UpsertProduct(ctx context.Context, rec model.ProductRecord) (model.Product, bool, error) {
	return t.s.upsertProduct(ctx, t.tx, rec)
}

// BulkUpsertProducts upserts each record in its own transaction. A failing
// record is counted and logged without affecting the others.
func (s *Store) BulkUpsertProducts(ctx context.Context, recs []model.ProductRecord) model.BulkResult {
	result := model.BulkResult{Total: len(recs)}
	for _, rec := range recs {
		_, created, err := s.UpsertProduct(ctx, rec)
		switch {
		case err != nil:
			result.Errors++
			s.log.Warn().Err(err).Str("slug", rec.Slug).Msg("product upsert failed")
		case created:
			result.Created++
		default:
			result.Updated++
		}
	}
	s.log.Info().
		Int("total", result.Total).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Msg("bulk upsert finished")
	return result
}

func (s *Store) upsertProduct(ctx context.Context, q sqlx.ExtContext, rec model.ProductRecord) (model.Product, bool, error) {
	if rec.Slug == "" || rec.URL == "" || rec.Name == "" {
		return model.Product{}, false, apperrors.NewValidation("product", "name, slug and url are required")
	}

	categoryID, err := s.resolveCategory(ctx, q, rec)
	if err != nil {
		return model.Product{}, false, err
	}
	brandID, err := s.resolveBrand(ctx, q, rec)
	if err != nil {
		return model.Product{}, false, err
	}

	existing, err := productByKey(ctx, q, rec.Slug, rec.URL)
	switch {
	case err == nil:
		p, err := s.updateProduct(ctx, q, existing, rec, categoryID, brandID)
		return p, false, err
	case !errors.Is(err, ErrNotFound):
		return model.Product{}, false, err
	}

	availability := rec.Availability
	if availability == "" {
		availability = model.Unknown
	}

	now := s.now()
	var id int64
	err = q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO products (name, slug, url, description, price, original_price, discount_percentage,
			sku, availability, rating, review_count, image_url, images, ingredients, usage_instructions,
			category_id, brand_id, is_featured, is_bestseller, is_new, is_sale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`),
		rec.Name, rec.Slug, rec.URL, rec.Description, rec.Price, rec.OriginalPrice, rec.DiscountPercentage,
		rec.SKU, string(availability), rec.Rating, rec.ReviewCount, rec.ImageURL, rec.Images, rec.Ingredients, rec.UsageInstructions,
		categoryID, brandID, rec.IsFeatured, rec.IsBestseller, rec.IsNew, rec.IsSale, now, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := productByKey(ctx, q, rec.Slug, rec.URL)
		if err != nil {
			return model.Product{}, false, err
		}
		p, err := s.updateProduct(ctx, q, existing, rec, categoryID, brandID)
		return p, false, err
	}
	if err != nil {
		return model.Product{}, false, dbError("product", "failed to insert product "+rec.Slug, err)
	}

	p, err := productBy(ctx, q, "id", id)
	if err != nil {
		return model.Product{}, false, err
	}
	return p, true, nil
}

// updateProduct overwrites fields the record carries. Empty strings, nil
// numbers, an unknown availability and a zero review count keep the stored
// value. Flags are always written.
func (s *Store) updateProduct(ctx context.Context, q sqlx.ExtContext, p model.Product, rec model.ProductRecord, categoryID, brandID *int64) (model.Product, error) {
	setString(&p.Name, rec.Name)
	setString(&p.URL, rec.URL)
	setString(&p.Description, rec.Description)
	setString(&p.SKU, rec.SKU)
	setString(&p.ImageURL, rec.ImageURL)
	setString(&p.Images, rec.Images)
	setString(&p.Ingredients, rec.Ingredients)
	setString(&p.UsageInstructions, rec.UsageInstructions)
	setFloat(&p.Price, rec.Price)
	setFloat(&p.OriginalPrice, rec.OriginalPrice)
	setFloat(&p.DiscountPercentage, rec.DiscountPercentage)
	setFloat(&p.Rating, rec.Rating)
	if rec.Availability != "" && rec.Availability != model.Unknown {
		p.Availability = rec.Availability
	}
	if rec.ReviewCount > 0 {
		p.ReviewCount = rec.ReviewCount
	}
	if categoryID != nil {
		p.CategoryID = categoryID
	}
	if brandID != nil {
		p.BrandID = brandID
	}
	p.IsFeatured = rec.IsFeatured
	p.IsBestseller = rec.IsBestseller
	p.IsNew = rec.IsNew
	p.IsSale = rec.IsSale
	p.UpdatedAt = s.now()

	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE products SET
			name = ?, url = ?, description = ?, price = ?, original_price = ?, discount_percentage = ?,
			sku = ?, availability = ?, rating = ?, review_count = ?, image_url = ?, images = ?,
			ingredients = ?, usage_instructions = ?, category_id = ?, brand_id = ?,
			is_featured = ?, is_bestseller = ?, is_new = ?, is_sale = ?, updated_at = ?
		WHERE id = ?`),
		p.Name, p.URL, p.Description, p.Price, p.OriginalPrice, p.DiscountPercentage,
		p.SKU, string(p.Availability), p.Rating, p.ReviewCount, p.ImageURL, p.Images,
		p.Ingredients, p.UsageInstructions, p.CategoryID, p.BrandID,
		p.IsFeatured, p.IsBestseller, p.IsNew, p.IsSale, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return model.Product{}, dbError("product", "failed to update product "+p.Slug, err)
	}
	return p, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setFloat(dst **float64, v *float64) {
	if v != nil {
		*dst = v
	}
}

// resolveCategory prefers an existing category slug, then the display name
func (s *Store) resolveCategory(ctx context.Context, q sqlx.ExtContext, rec model.ProductRecord) (*int64, error) {
	if rec.CategorySlug != "" {
		cat, err := categoryBy(ctx, q, "slug", rec.CategorySlug)
		if err == nil {
			return &cat.ID, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if rec.CategoryName == "" {
		return nil, nil
	}
	cat, err := s.getOrCreateCategoryByName(ctx, q, rec.CategoryName)
	if err != nil {
		return nil, err
	}
	return &cat.ID, nil
}

func (s *Store) resolveBrand(ctx context.Context, q sqlx.ExtContext, rec model.ProductRecord) (*int64, error) {
	if rec.BrandName == "" {
		return nil, nil
	}
	brand, err := s.getOrCreateBrandByName(ctx, q, rec.BrandName)
	if err != nil {
		return nil, err
	}
	return &brand.ID, nil
}

func productByKey(ctx context.Context, q sqlx.ExtContext, slug, url string) (model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, q, &p,
		q.Rebind(`SELECT `+productColumns+` FROM products WHERE slug = ? OR url = ? ORDER BY id LIMIT 1`), slug, url)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, apperrors.NewPersistence("product", "failed to load product", err)
	}
	return p, nil
}

func productBy(ctx context.Context, q sqlx.ExtContext, column string, value any) (model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, q, &p,
		q.Rebind(`SELECT `+productColumns+` FROM products WHERE `+column+` = ? LIMIT 1`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, apperrors.NewPersistence("product", "failed to load product", err)
	}
	return p, nil
}

// ProductBySlug returns the product with slug or ErrNotFound
func (s *Store) ProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	return productBy(ctx, s.db, "slug", slug)
}

// ProductExists reports whether a product with slug is stored
func (s *Store) ProductExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, s.db, &n, s.db.Rebind(`SELECT COUNT(*) FROM products WHERE slug = ?`), slug)
	if err != nil {
		return false, apperrors.NewPersistence("product", "failed to check product", err)
	}
	return n > 0, nil
}

// ProductsByCategory returns the products assigned directly to categoryID
// ordered by id. A positive limit caps the result.
func (s *Store) ProductsByCategory(ctx context.Context, categoryID int64, limit int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE category_id = ? ORDER BY id`
	args := []any{categoryID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var products []model.Product
	if err := sqlx.SelectContext(ctx, s.db, &products, s.db.Rebind(query), args...); err != nil {
		return nil, apperrors.NewPersistence("product", "failed to list category products", err)
	}
	return products, nil
}

// ProductsByCategories returns the products assigned to any of ids ordered by id
func (s *Store) ProductsByCategories(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := inClause(`SELECT `+productColumns+` FROM products WHERE category_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, apperrors.NewPersistence("product", "failed to build product query", err)
	}
	var products []model.Product
	if err := sqlx.SelectContext(ctx, s.db, &products, s.db.Rebind(query), args...); err != nil {
		return nil, apperrors.NewPersistence("product", "failed to list products", err)
	}
	return products, nil
}

// ProductsUpdatedSince returns products whose last write is at or after since
func (s *Store) ProductsUpdatedSince(ctx context.Context, since time.Time) ([]model.Product, error) {
	var products []model.Product
	err := sqlx.SelectContext(ctx, s.db, &products,
		s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE updated_at >= ? ORDER BY id`), since.UTC())
	if err != nil {
		return nil, apperrors.NewPersistence("product", "failed to list updated products", err)
	}
	return products, nil
}

// CategoryProductCounts returns the number of directly assigned products per category id
func (s *Store) CategoryProductCounts(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		CategoryID int64 `db:"category_id"`
		Count      int   `db:"n"`
	}
	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT category_id, COUNT(*) AS n FROM products WHERE category_id IS NOT NULL GROUP BY category_id`)
	if err != nil {
		return nil, apperrors.NewPersistence("product", "failed to count products", err)
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}
