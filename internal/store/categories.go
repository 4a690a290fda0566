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

const categoryColumns = `id, name, slug, url, parent_id, description, created_at, updated_at`

// UpsertCategory creates or updates a category keyed by slug. A non-empty
// ParentSlug links the category to that parent when the parent exists.
func (s *Store) UpsertCategory(ctx context.Context, rec model.CategoryRecord) (cat model.Category, created bool, err error) {
	err = s.WithTx(ctx, func(tx *Tx) error {
		cat, created, err = tx.UpsertCategory(ctx, rec)
		return err
	})
	return cat, created, err
}

// UpsertCategory is UpsertCategory inside the transaction
func (t *Tx) UpsertCategory(ctx context.Context, rec model.CategoryRecord) (model.Category, bool, error) {
	return t.s.upsertCategory(ctx, t.tx, rec)
}

// GetOrCreateCategoryByName returns the category with exactly this name,
// creating a stub under the derived slug when none exists.
func (s *Store) GetOrCreateCategoryByName(ctx context.Context, name string) (cat model.Category, err error) {
	err = s.WithTx(ctx, func(tx *Tx) error {
		cat, err = tx.GetOrCreateCategoryByName(ctx, name)
		return err
	})
	return cat, err
}

// GetOrCreateCategoryByName is GetOrCreateCategoryByName inside the transaction
func (t *Tx) GetOrCreateCategoryByName(ctx context.Context, name string) (model.Category, error) {
	return t.s.getOrCreateCategoryByName(ctx, t.tx, name)
}

func (s *Store) upsertCategory(ctx context.Context, q sqlx.ExtContext, rec model.CategoryRecord) (model.Category, bool, error) {
	if rec.Slug == "" || rec.Name == "" {
		return model.Category{}, false, apperrors.NewValidation("category", "name and slug are required")
	}

	existing, err := categoryBy(ctx, q, "slug", rec.Slug)
	switch {
	case err == nil:
		cat, err := s.updateCategory(ctx, q, existing, rec)
		return cat, false, err
	case !errors.Is(err, ErrNotFound):
		return model.Category{}, false, err
	}

	parentID, err := s.parentID(ctx, q, rec.ParentSlug, 0)
	if err != nil {
		return model.Category{}, false, err
	}

	now := s.now()
	var id int64
	err = q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO categories (name, slug, url, parent_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`),
		rec.Name, rec.Slug, rec.URL, parentID, rec.Description, now, now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race with a concurrent insert of the same slug
		existing, err := categoryBy(ctx, q, "slug", rec.Slug)
		if err != nil {
			return model.Category{}, false, err
		}
		cat, err := s.updateCategory(ctx, q, existing, rec)
		return cat, false, err
	}
	if err != nil {
		return model.Category{}, false, dbError("category", "failed to insert category "+rec.Slug, err)
	}

	cat, err := categoryBy(ctx, q, "id", id)
	if err != nil {
		return model.Category{}, false, err
	}
	s.log.Debug().Str("slug", cat.Slug).Int64("id", cat.ID).Msg("category created")
	return cat, true, nil
}

func (s *Store) updateCategory(ctx context.Context, q sqlx.ExtContext, cat model.Category, rec model.CategoryRecord) (model.Category, error) {
	if rec.Name != "" {
		cat.Name = rec.Name
	}
	if rec.URL != "" {
		cat.URL = rec.URL
	}
	if rec.Description != "" {
		cat.Description = rec.Description
	}
	if rec.ParentSlug != "" {
		parentID, err := s.parentID(ctx, q, rec.ParentSlug, cat.ID)
		if err != nil {
			return model.Category{}, err
		}
		if parentID != nil {
			cat.ParentID = parentID
		}
	}
	cat.UpdatedAt = s.now()

	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE categories
		SET name = ?, url = ?, parent_id = ?, description = ?, updated_at = ?
		WHERE id = ?`),
		cat.Name, cat.URL, cat.ParentID, cat.Description, cat.UpdatedAt, cat.ID,
	)
	if err != nil {
		return model.Category{}, dbError("category", "failed to update category "+cat.Slug, err)
	}
	return cat, nil
}

// parentID resolves a parent slug. An unknown parent, or one equal to self,
// yields nil.
func (s *Store) parentID(ctx context.Context, q sqlx.ExtContext, slug string, self int64) (*int64, error) {
	if slug == "" {
		return nil, nil
	}
	parent, err := categoryBy(ctx, q, "slug", slug)
	if errors.Is(err, ErrNotFound) {
		s.log.Debug().Str("parent_slug", slug).Msg("parent category not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if parent.ID == self {
		return nil, nil
	}
	return &parent.ID, nil
}

func (s *Store) getOrCreateCategoryByName(ctx context.Context, q sqlx.ExtContext, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, apperrors.NewValidation("category", "name is required")
	}

	cat, err := categoryBy(ctx, q, "name", name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return cat, err
	}

	slug := normalizer.Slug(name)
	cat, _, err = s.upsertCategory(ctx, q, model.CategoryRecord{Name: name, Slug: slug})
	return cat, err
}

// categoryBy selects one category by a trusted column name
func categoryBy(ctx context.Context, q sqlx.ExtContext, column string, value any) (model.Category, error) {
	var cat model.Category
	err := sqlx.GetContext(ctx, q, &cat,
		q.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE `+column+` = ? ORDER BY id LIMIT 1`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, apperrors.NewPersistence("category", "failed to load category", err)
	}
	return cat, nil
}

// CategoryBySlug returns the category with slug or ErrNotFound
func (s *Store) CategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	return categoryBy(ctx, s.db, "slug", slug)
}

// CategoryByID returns the category with id or ErrNotFound
func (s *Store) CategoryByID(ctx context.Context, id int64) (model.Category, error) {
	return categoryBy(ctx, s.db, "id", id)
}

// Categories returns every category ordered by id
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := sqlx.SelectContext(ctx, s.db, &cats, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewPersistence("category", "failed to list categories", err)
	}
	return cats, nil
}

// CategoryTree returns every category indexed as a tree
func (s *Store) CategoryTree(ctx context.Context) (*model.CategoryTree, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewCategoryTree(cats), nil
}

// CategoriesByParent returns the children of parentID, or the top-level
// categories when parentID is nil.
func (s *Store) CategoriesByParent(ctx context.Context, parentID *int64) ([]model.Category, error) {
	var (
		cats []model.Category
		err  error
	)
	if parentID == nil {
		err = sqlx.SelectContext(ctx, s.db, &cats,
			`SELECT `+categoryColumns+` FROM categories WHERE parent_id IS NULL ORDER BY id`)
	} else {
		err = sqlx.SelectContext(ctx, s.db, &cats,
			s.db.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE parent_id = ? ORDER BY id`), *parentID)
	}
	if err != nil {
		return nil, apperrors.NewPersistence("category", "failed to list child categories", err)
	}
	return cats, nil
}
