package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/bestmuadata/internal/model"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

func TestUpsertCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root, created, err := s.UpsertCategory(ctx, model.CategoryRecord{
		Name: "Trang điểm", Slug: "trang-diem", URL: "https://bestmua.vn/danh-muc/trang-diem",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, root.ID)
	assert.Nil(t, root.ParentID)
	assert.True(t, root.CreatedAt.Equal(testClock))

	child, created, err := s.UpsertCategory(ctx, model.CategoryRecord{
		Name: "Son môi", Slug: "son-moi", ParentSlug: "trang-diem",
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	// Empty fields keep stored values; the parent link survives
	updated, created, err := s.UpsertCategory(ctx, model.CategoryRecord{
		Name: "Son môi cao cấp", Slug: "son-moi", Description: "Các loại son",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, child.ID, updated.ID)

	got, err := s.CategoryBySlug(ctx, "son-moi")
	require.NoError(t, err)
	assert.Equal(t, "Son môi cao cấp", got.Name)
	assert.Equal(t, "Các loại son", got.Description)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, root.ID, *got.ParentID)

	byID, err := s.CategoryByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://bestmua.vn/danh-muc/trang-diem", byID.URL)
}

func TestUpsertCategoryParentEdgeCases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orphan, _, err := s.UpsertCategory(ctx, model.CategoryRecord{Name: "Mascara", Slug: "mascara", ParentSlug: "missing"})
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentID)

	self, _, err := s.UpsertCategory(ctx, model.CategoryRecord{Name: "Mascara", Slug: "mascara", ParentSlug: "mascara"})
	require.NoError(t, err)
	assert.Nil(t, self.ParentID)

	_, _, err = s.UpsertCategory(ctx, model.CategoryRecord{Name: "No slug"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}

func TestGetOrCreateCategoryByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateCategoryByName(ctx, "  Son môi ")
	require.NoError(t, err)
	assert.Equal(t, "Son môi", first.Name)
	assert.Equal(t, "son-moi", first.Slug)

	second, err := s.GetOrCreateCategoryByName(ctx, "Son môi")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different spelling with the same slug reuses the stored row
	third, err := s.GetOrCreateCategoryByName(ctx, "Son Môi")
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	_, err = s.GetOrCreateCategoryByName(ctx, "   ")
	assert.Error(t, err)
}

func TestCategoryQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []model.CategoryRecord{
		{Name: "Trang điểm", Slug: "trang-diem"},
		{Name: "Chăm sóc da", Slug: "cham-soc-da"},
		{Name: "Son môi", Slug: "son-moi", ParentSlug: "trang-diem"},
		{Name: "Son kem", Slug: "son-kem", ParentSlug: "son-moi"},
	} {
		_, _, err := s.UpsertCategory(ctx, rec)
		require.NoError(t, err)
	}

	roots, err := s.CategoriesByParent(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"trang-diem", "cham-soc-da"}, categorySlugs(roots))

	makeup, err := s.CategoryBySlug(ctx, "trang-diem")
	require.NoError(t, err)
	children, err := s.CategoriesByParent(ctx, &makeup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"son-moi"}, categorySlugs(children))

	tree, err := s.CategoryTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, []string{"trang-diem", "son-moi", "son-kem"}, categorySlugs(tree.Descendants(makeup.ID)))

	_, err = s.CategoryBySlug(ctx, "nuoc-hoa")
	assert.ErrorIs(t, err, ErrNotFound)
}

func categorySlugs(cats []model.Category) []string {
	slugs := make([]string, 0, len(cats))
	for _, c := range cats {
		slugs = append(slugs, c.Slug)
	}
	return slugs
}
