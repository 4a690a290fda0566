package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

const brandColumns = `id, name, slug, url, description, created_at, updated_at`

// UpsertBrand creates or updates a brand keyed by slug
func (s *Store) UpsertBrand(ctx context.Context, rec model.BrandRecord) (brand model.Brand, created bool, err error) {
	err = s.WithTx(ctx, func(tx *Tx) error {
		brand, created, err = tx.UpsertBrand(ctx, rec)
		return err
	})
	return brand, created, err
}

// UpsertBrand is UpsertBrand inside the transaction
func (t *Tx) UpsertBrand(ctx context.Context, rec model.BrandRecord) (model.Brand, bool, error) {
	return t.s.upsertBrand(ctx, t.tx, rec)
}

// GetOrCreateBrandByName returns the brand with exactly this name, creating
// it under the derived slug when none exists.
func (s *Store) GetOrCreateBrandByName(ctx context.Context, name string) (brand model.Brand, err error) {
	err = s.WithTx(ctx, func(tx *Tx) error {
		brand, err = tx.GetOrCreateBrandByName(ctx, name)
		return err
	})
	return brand, err
}

// GetOrCreateBrandByName is GetOrCreateBrandByName inside the transaction
func (t *Tx) GetOrCreateBrandByName(ctx context.Context, name string) (model.Brand, error) {
	return t.s.getOrCreateBrandByName(ctx, t.tx, name)
}

func (s *Store) upsertBrand(ctx context.Context, q sqlx.ExtContext, rec model.BrandRecord) (model.Brand, bool, error) {
	if rec.Slug == "" || rec.Name == "" {
		return model.Brand{}, false, apperrors.NewValidation("brand", "name and slug are required")
	}

	existing, err := brandBy(ctx, q, "slug", rec.Slug)
	switch {
	case err == nil:
		brand, err := s.updateBrand(ctx, q, existing, rec)
		return brand, false, err
	case !errors.Is(err, ErrNotFound):
		return model.Brand{}, false, err
	}

	now := s.now()
	var id int64
	err = q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO brands (name, slug, url, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`),
		rec.Name, rec.Slug, rec.URL, rec.Description, now, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// The slug was taken concurrently or another slug already owns the name
		existing, err := brandBy(ctx, q, "slug", rec.Slug)
		if errors.Is(err, ErrNotFound) {
			existing, err = brandBy(ctx, q, "name", rec.Name)
		}
		if err != nil {
			return model.Brand{}, false, err
		}
		brand, err := s.updateBrand(ctx, q, existing, rec)
		return brand, false, err
	}
	if err != nil {
		return model.Brand{}, false, dbError("brand", "failed to insert brand "+rec.Slug, err)
	}

	brand, err := brandBy(ctx, q, "id", id)
	if err != nil {
		return model.Brand{}, false, err
	}
	s.log.Debug().Str("slug", brand.Slug).Int64("id", brand.ID).Msg("brand created")
	return brand, true, nil
}

func (s *Store) updateBrand(ctx context.Context, q sqlx.ExtContext, brand model.Brand, rec model.BrandRecord) (model.Brand, error) {
	if rec.Name != "" {
		brand.Name = rec.Name
	}
	if rec.URL != "" {
		brand.URL = rec.URL
	}
	if rec.Description != "" {
		brand.Description = rec.Description
	}
	brand.UpdatedAt = s.now()

	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE brands SET name = ?, url = ?, description = ?, updated_at = ? WHERE id = ?`),
		brand.Name, brand.URL, brand.Description, brand.UpdatedAt, brand.ID,
	)
	if err != nil {
		return model.Brand{}, dbError("brand", "failed to update brand "+brand.Slug, err)
	}
	return brand, nil
}

func (s *Store) getOrCreateBrandByName(ctx context.Context, q sqlx.ExtContext, name string) (model.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Brand{}, apperrors.NewValidation("brand", "name is required")
	}

	brand, err := brandBy(ctx, q, "name", name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return brand, err
	}

	slug := normalizer.Slug(name)
	brand, _, err = s.upsertBrand(ctx, q, model.BrandRecord{Name: name, Slug: slug})
	return brand, err
}

func brandBy(ctx context.Context, q sqlx.ExtContext, column string, value any) (model.Brand, error) {
	var brand model.Brand
	err := sqlx.GetContext(ctx, q, &brand,
		q.Rebind(`SELECT `+brandColumns+` FROM brands WHERE `+column+` = ? ORDER BY id LIMIT 1`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Brand{}, ErrNotFound
	}
	if err != nil {
		return model.Brand{}, apperrors.NewPersistence("brand", "failed to load brand", err)
	}
	return brand, nil
}

// BrandBySlug returns the brand with slug or ErrNotFound
func (s *Store) BrandBySlug(ctx context.Context, slug string) (model.Brand, error) {
	return brandBy(ctx, s.db, "slug", slug)
}

// BrandsByIDs returns the brands with the given ids ordered by id
func (s *Store) BrandsByIDs(ctx context.Context, ids []int64) ([]model.Brand, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := inClause(`SELECT `+brandColumns+` FROM brands WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, apperrors.NewPersistence("brand", "failed to build brand query", err)
	}
	var brands []model.Brand
	if err := sqlx.SelectContext(ctx, s.db, &brands, s.db.Rebind(query), args...); err != nil {
		return nil, apperrors.NewPersistence("brand", "failed to list brands", err)
	}
	return brands, nil
}
