package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/bestmuadata/internal/model"
	apperrors "sjsage522/bestmuadata/pkg/errors"
	"sjsage522/bestmuadata/services/publisher"
)

// makeupSite is trang-diem > son-moi plus kem-nen, three products in total
func makeupSite() *mockExtractor {
	ext := newMockExtractor()
	ext.categories = []model.RawRecord{
		category("Trang điểm", "trang-diem", ""),
		category("Son môi", "son-moi", "trang-diem"),
		category("Kem nền", "kem-nen", ""),
	}
	ext.listings[categoryURL("son-moi")] = []model.RawRecord{
		listed("Son kem lì Maybelline", "son-kem-maybelline", 299000),
		listed("Son dưỡng Dior", "son-duong-dior", 950000),
	}
	ext.listings[categoryURL("kem-nen")] = []model.RawRecord{
		listed("Kem nền L'Oréal True Match", "kem-nen-loreal", 450000),
	}
	ext.details[productURL("son-kem-maybelline")] = model.RawRecord{
		model.KeyName:          "Son Kem Lì Maybelline Super Stay Matte Ink",
		model.KeyURL:           productURL("son-kem-maybelline"),
		model.KeyDescription:   "Lâu trôi đến 16 giờ",
		model.KeyOriginalPrice: 399000.0,
		model.KeyBrandName:     "Maybelline",
		model.KeyAvailability:  "Còn hàng",
	}
	ext.details[productURL("kem-nen-loreal")] = model.RawRecord{
		model.KeyName:      "Kem Nền L'Oréal True Match",
		model.KeyURL:       productURL("kem-nen-loreal"),
		model.KeyBrandName: "L'Oréal",
		model.KeyRating:    4.2,
	}
	return ext
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{}, Dependencies{Extractor: newMockExtractor()})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
}

func TestFullCrawl(t *testing.T) {
	pub := &mockPublisher{}
	h := newHarness(t, Config{Workers: 2}, makeupSite(), Dependencies{Publisher: pub})
	ctx := context.Background()

	stats, err := h.orch.FullCrawl(ctx, FullOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CategoriesFound)
	assert.Equal(t, 3, stats.CategoriesProcessed)
	assert.Equal(t, 3, stats.ProductsFound)
	assert.Equal(t, 3, stats.ProductsProcessed)
	assert.Equal(t, 3, stats.ProductsCreated)
	assert.Zero(t, stats.ProductsUpdated)
	assert.Zero(t, stats.Errors)
	require.NotNil(t, stats.Export)
	assert.Equal(t, 2, stats.Export.FilesCreated)
	assert.Equal(t, 3, stats.Export.ProductsExported)

	p, err := h.store.ProductBySlug(ctx, "son-kem-maybelline")
	require.NoError(t, err)
	assert.Equal(t, "Son Kem Lì Maybelline Super Stay Matte Ink", p.Name)
	assert.Equal(t, "Lâu trôi đến 16 giờ", p.Description)
	assert.Equal(t, model.InStock, p.Availability)
	require.NotNil(t, p.DiscountPercentage)
	assert.InDelta(t, 25.06, *p.DiscountPercentage, 0.001)
	require.NotNil(t, p.BrandID)

	son, err := h.store.CategoryBySlug(ctx, "son-moi")
	require.NoError(t, err)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, son.ID, *p.CategoryID)
	parent, err := h.store.CategoryBySlug(ctx, "trang-diem")
	require.NoError(t, err)
	require.NotNil(t, son.ParentID)
	assert.Equal(t, parent.ID, *son.ParentID)

	// A detail page without a product keeps the list data
	p, err = h.store.ProductBySlug(ctx, "son-duong-dior")
	require.NoError(t, err)
	assert.Equal(t, "Son dưỡng Dior", p.Name)

	session := h.lastSession(t)
	assert.Equal(t, "run-1", session.RunID)
	assert.Equal(t, model.SessionCompleted, session.Status)
	require.NotNil(t, session.FinishedAt)
	assert.Equal(t, 3, session.CategoriesFound)
	assert.Equal(t, 3, session.ProductsCreated)
	assert.Empty(t, session.Errors)

	require.Len(t, pub.messages["session"], 1)
	var report SessionReport
	require.NoError(t, json.Unmarshal(pub.messages["session"][0], &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, session.ID, report.SessionID)
	assert.Equal(t, ModeFull, report.Mode)
	assert.Equal(t, model.SessionCompleted, report.Status)
	assert.Equal(t, 3, report.Stats.ProductsCreated)
	assert.Equal(t, 1, pub.trims)

	// A second run updates instead of creating
	stats, err = h.orch.FullCrawl(ctx, FullOptions{})
	require.NoError(t, err)
	assert.Zero(t, stats.ProductsCreated)
	assert.Equal(t, 3, stats.ProductsUpdated)
	assert.Equal(t, "run-2", h.lastSession(t).RunID)
}

func TestFullCrawlOptions(t *testing.T) {
	ext := makeupSite()
	h := newHarness(t, Config{Workers: 1}, ext, Dependencies{})

	stats, err := h.orch.FullCrawl(context.Background(), FullOptions{
		MaxCategories:          2,
		MaxProductsPerCategory: 1,
		SkipDetails:            true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CategoriesFound)
	assert.Equal(t, 2, stats.CategoriesProcessed)
	assert.Equal(t, 1, stats.ProductsFound)
	assert.Equal(t, 1, stats.ProductsCreated)
	assert.Empty(t, ext.DetailCalls())
}

func TestFullCrawlCountsFailures(t *testing.T) {
	ext := makeupSite()
	ext.listErrs[categoryURL("kem-nen")] = errUpstream
	ext.detailErrs[productURL("son-duong-dior")] = errUpstream
	ext.listings[categoryURL("son-moi")] = append(ext.listings[categoryURL("son-moi")],
		model.RawRecord{model.KeyURL: productURL("khong-ten")})
	h := newHarness(t, Config{Workers: 2}, ext, Dependencies{})
	ctx := context.Background()

	stats, err := h.orch.FullCrawl(ctx, FullOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Errors)
	// maybelline plus the loreal card the failing listing still returned
	assert.Equal(t, 2, stats.ProductsCreated)

	exists, err := h.store.ProductExists(ctx, "son-duong-dior")
	require.NoError(t, err)
	assert.False(t, exists)

	session := h.lastSession(t)
	assert.Equal(t, model.SessionCompleted, session.Status)
	require.NotNil(t, session.FinishedAt)
	assert.Contains(t, session.Errors, "category kem-nen")
	assert.Contains(t, session.Errors, "product "+productURL("son-duong-dior"))
}

func TestListingErrorKeepsEarlierPages(t *testing.T) {
	tests := []struct {
		name    string
		listing []model.RawRecord
		created int
		loreal  bool
	}{
		{
			name:    "partial listing",
			listing: []model.RawRecord{listed("Kem nền L'Oréal True Match", "kem-nen-loreal", 450000)},
			created: 3,
			loreal:  true,
		},
		{
			name:    "nothing listed",
			listing: nil,
			created: 2,
			loreal:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := makeupSite()
			ext.listings[categoryURL("kem-nen")] = tt.listing
			ext.listErrs[categoryURL("kem-nen")] = errUpstream
			h := newHarness(t, Config{Workers: 2}, ext, Dependencies{})
			ctx := context.Background()

			stats, err := h.orch.FullCrawl(ctx, FullOptions{})
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Errors)
			assert.Equal(t, 3, stats.CategoriesProcessed)
			assert.Equal(t, tt.created, stats.ProductsCreated)

			exists, err := h.store.ProductExists(ctx, "kem-nen-loreal")
			require.NoError(t, err)
			assert.Equal(t, tt.loreal, exists)

			session := h.lastSession(t)
			assert.Equal(t, model.SessionCompleted, session.Status)
			assert.Contains(t, session.Errors, "category kem-nen")
		})
	}
}

func TestFullCrawlWhenSiteIsDown(t *testing.T) {
	ext := newMockExtractor()
	ext.discoverErr = errUpstream
	h := newHarness(t, Config{}, ext, Dependencies{})

	stats, err := h.orch.FullCrawl(context.Background(), FullOptions{})
	require.NoError(t, err)
	assert.Zero(t, stats.CategoriesFound)
	assert.Equal(t, 1, stats.Errors)

	session := h.lastSession(t)
	assert.Equal(t, model.SessionCompleted, session.Status)
	require.NotNil(t, session.FinishedAt)
	assert.Contains(t, session.Errors, "discovery")
}

func TestPanicFinalizesSession(t *testing.T) {
	ext := makeupSite()
	ext.panicOn = "discover"
	pub := &mockPublisher{}
	h := newHarness(t, Config{}, ext, Dependencies{Publisher: pub})

	assert.PanicsWithValue(t, "navigation markup changed", func() {
		_, _ = h.orch.FullCrawl(context.Background(), FullOptions{})
	})

	session := h.lastSession(t)
	assert.Equal(t, model.SessionFailed, session.Status)
	require.NotNil(t, session.FinishedAt)
	assert.Contains(t, session.Errors, "panic: navigation markup changed")
	require.Len(t, pub.messages["session"], 1)
}

func TestTaskPanicIsCounted(t *testing.T) {
	ext := makeupSite()
	ext.panicOn = categoryURL("kem-nen")
	h := newHarness(t, Config{Workers: 2}, ext, Dependencies{})

	stats, err := h.orch.FullCrawl(context.Background(), FullOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 2, stats.ProductsCreated)
	assert.Contains(t, h.lastSession(t).Errors, "panicked")
}

func TestCanceledCrawlIsFinalized(t *testing.T) {
	h := newHarness(t, Config{Workers: 1}, makeupSite(), Dependencies{})
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel as soon as the first product page is requested
	h.orch.extractor = cancelingExtractor{Extractor: h.orch.extractor, cancel: cancel}

	_, err := h.orch.FullCrawl(ctx, FullOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	session := h.lastSession(t)
	assert.Equal(t, model.SessionFailed, session.Status)
	require.NotNil(t, session.FinishedAt)
}

type cancelingExtractor struct {
	Extractor
	cancel context.CancelFunc
}

func (c cancelingExtractor) ParseProductDetail(ctx context.Context, productURL string) (model.RawRecord, error) {
	c.cancel()
	return c.Extractor.ParseProductDetail(ctx, productURL)
}

func TestCrawlCategory(t *testing.T) {
	h := newHarness(t, Config{SkipDetails: true}, makeupSite(), Dependencies{})
	ctx := context.Background()

	_, _, err := h.store.UpsertCategory(ctx, model.CategoryRecord{
		Name: "Son môi", Slug: "son-moi", URL: categoryURL("son-moi"),
	})
	require.NoError(t, err)

	stats, err := h.orch.CrawlCategory(ctx, "son-moi", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CategoriesFound)
	assert.Equal(t, 2, stats.ProductsCreated)
	assert.Empty(t, h.extractor.DetailCalls())
	require.NotNil(t, stats.Export)
	require.Len(t, stats.Export.Files, 1)
	assert.Equal(t, "son-moi_products.sql", filepath.Base(stats.Export.Files[0]))

	session := h.lastSession(t)
	assert.Equal(t, model.SessionCompleted, session.Status)
}

func TestCrawlCategoryUnknownSlug(t *testing.T) {
	pub := &mockPublisher{}
	h := newHarness(t, Config{}, makeupSite(), Dependencies{Publisher: pub})

	_, err := h.orch.CrawlCategory(context.Background(), "khong-ton-tai", 0)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))

	session := h.lastSession(t)
	assert.Equal(t, model.SessionFailed, session.Status)
	require.NotNil(t, session.FinishedAt)
	assert.Contains(t, session.Errors, "khong-ton-tai")

	var report SessionReport
	require.NoError(t, json.Unmarshal(pub.messages["session"][0], &report))
	assert.Equal(t, ModeCategory, report.Mode)
	assert.Equal(t, model.SessionFailed, report.Status)
	assert.Contains(t, report.Error, "not found")
}

func TestIncrementalCrawl(t *testing.T) {
	ext := makeupSite()
	h := newHarness(t, Config{Workers: 2}, ext, Dependencies{})
	ctx := context.Background()

	_, err := h.orch.FullCrawl(ctx, FullOptions{})
	require.NoError(t, err)

	// One new product appears on the first page, and a refreshed page names another category
	ext.listings[categoryURL("kem-nen")] = append(ext.listings[categoryURL("kem-nen")],
		listed("Kem nền Estée Lauder Double Wear", "kem-nen-estee-lauder", 1350000))
	ext.details[productURL("son-kem-maybelline")][model.KeyCategoryName] = "Khuyến mãi"
	ext.details[productURL("son-kem-maybelline")][model.KeyPrice] = 279000.0

	stats, err := h.orch.IncrementalCrawl(ctx, 1)
	require.NoError(t, err)
	// son-duong-dior has no detail page to refresh from
	assert.Equal(t, 2, stats.ProductsUpdated)
	assert.Equal(t, 1, stats.ProductsCreated)
	assert.Equal(t, 3, stats.ProductsProcessed)
	assert.Equal(t, 3, stats.CategoriesFound)
	assert.Zero(t, stats.Errors)

	p, err := h.store.ProductBySlug(ctx, "son-kem-maybelline")
	require.NoError(t, err)
	require.NotNil(t, p.Price)
	assert.Equal(t, 279000.0, *p.Price)
	son, err := h.store.CategoryBySlug(ctx, "son-moi")
	require.NoError(t, err)
	assert.Equal(t, son.ID, *p.CategoryID)
	_, err = h.store.CategoryBySlug(ctx, "khuyen-mai")
	assert.Error(t, err)

	created, err := h.store.ProductBySlug(ctx, "kem-nen-estee-lauder")
	require.NoError(t, err)
	kem, err := h.store.CategoryBySlug(ctx, "kem-nen")
	require.NoError(t, err)
	assert.Equal(t, kem.ID, *created.CategoryID)

	session := h.lastSession(t)
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.Equal(t, 1, session.ProductsCreated)
	assert.Equal(t, 2, session.ProductsUpdated)
}

func TestIncrementalCrawlWithNothingRecent(t *testing.T) {
	h := newHarness(t, Config{}, makeupSite(), Dependencies{})

	stats, err := h.orch.IncrementalCrawl(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, stats.ProductsUpdated)
	assert.Equal(t, 3, stats.ProductsCreated)
}

func TestSessionReportOnRedisStream(t *testing.T) {
	mr := miniredis.RunT(t)
	pub := publisher.NewRedisPublisher(context.Background(), mr.Addr(), 0, "bestmua:sessions", 10)
	t.Cleanup(func() { pub.Close() })

	h := newHarness(t, Config{}, makeupSite(), Dependencies{Publisher: pub})
	_, err := h.orch.FullCrawl(context.Background(), FullOptions{SkipDetails: true})
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	entries, err := client.XRange(context.Background(), "bestmua:sessions", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var report SessionReport
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["session"].(string)), &report))
	assert.Equal(t, model.SessionCompleted, report.Status)
	assert.Equal(t, 3, report.Stats.ProductsCreated)
}

func TestPublishFailureDoesNotFailRun(t *testing.T) {
	pub := &mockPublisher{err: errors.New("connection refused")}
	h := newHarness(t, Config{}, makeupSite(), Dependencies{Publisher: pub})

	_, err := h.orch.FullCrawl(context.Background(), FullOptions{SkipDetails: true})
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, h.lastSession(t).Status)
	assert.Zero(t, pub.trims)
}

func TestExportAllData(t *testing.T) {
	h := newHarness(t, Config{}, makeupSite(), Dependencies{})
	ctx := context.Background()

	_, err := h.orch.FullCrawl(ctx, FullOptions{SkipDetails: true})
	require.NoError(t, err)

	stats, err := h.orch.ExportAllData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesCreated)
	assert.Equal(t, filepath.Join(h.exporter.Dir(), "schema.sql"), stats.SchemaFile)
	assert.Equal(t, filepath.Join(h.exporter.Dir(), "export_summary.txt"), stats.SummaryFile)

	report, err := h.exporter.ValidateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.ValidFiles)
	assert.Equal(t, 3, report.TotalRecords)
}
