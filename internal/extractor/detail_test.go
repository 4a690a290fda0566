package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
)

const detailURL = testBaseURL + "/san-pham/son-moi-maybelline-super-stay"

var galleryImages = []string{
	"https://bestmua.vn/images/maybelline-lipstick-main.jpg",
	"https://bestmua.vn/images/maybelline-lipstick-2.jpg",
	"https://bestmua.vn/images/maybelline-lipstick-3.jpg",
}

func TestDetailFromHTML(t *testing.T) {
	e := newTestExtractor(t, newMockFetcher(nil), nil)
	rec := e.detailFromHTML(mustDoc(t, fixture(t, "detail.html")))

	assert.Equal(t, "Son môi Maybelline Super Stay Matte Ink Liquid Lipstick", rec[model.KeyName])
	// Headings and scripts are not part of content blocks
	assert.Equal(t,
		"Son môi lâu trôi với công nghệ SuperStay độc quyền, giữ màu đến 16 giờ. Kết cấu mịn màng, không gây khô môi.",
		rec[model.KeyDescription])
	assert.Equal(t, 299000.0, rec[model.KeyPrice])
	assert.Equal(t, 399000.0, rec[model.KeyOriginalPrice])
	assert.InDelta(t, 25.06, rec[model.KeyDiscount], 0.001)
	assert.Equal(t, galleryImages, rec[model.KeyImages])
	assert.Equal(t, galleryImages[0], rec[model.KeyImageURL])
	assert.Equal(t, "MLB-SS-001", rec[model.KeySKU])
	assert.Equal(t, "Maybelline", rec[model.KeyBrandName])
	assert.Equal(t, "Còn hàng", rec[model.KeyAvailability])
	assert.Equal(t, 4.5, rec[model.KeyRating])
	assert.Equal(t, 1234, rec[model.KeyReviewCount])
	assert.Equal(t, "Dimethicone, Trimethylsiloxysilicate, Polybutene, Petrolatum...", rec[model.KeyIngredients])
	assert.Equal(t, "Thoa đều lên môi từ trong ra ngoài. Chờ khô hoàn toàn trước khi ăn uống.", rec[model.KeyUsage])
	assert.Equal(t, true, rec[model.KeyIsBestseller])
}

func TestParseProductDetailOverlaysStructuredData(t *testing.T) {
	fetcher := newMockFetcher(map[string]string{detailURL: fixture(t, "detail.html")})
	e := newTestExtractor(t, fetcher, nil)

	rec, err := e.ParseProductDetail(context.Background(), detailURL)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, detailURL, rec[model.KeyURL])
	assert.Equal(t, "son-moi-maybelline-super-stay", rec[model.KeySlug])
	assert.Equal(t, "Son môi lâu trôi với công nghệ SuperStay độc quyền", rec[model.KeyDescription])
	assert.Equal(t, "299000", rec[model.KeyPrice])
	assert.Equal(t, 399000.0, rec[model.KeyOriginalPrice])
	assert.Equal(t, "instock", rec[model.KeyAvailability])
	assert.Equal(t, "4.5", rec[model.KeyRating])
	assert.Equal(t, "123", rec[model.KeyReviewCount])
	assert.Equal(t, "Son môi", rec[model.KeyCategoryName])
	assert.Equal(t, galleryImages, rec[model.KeyImages])

	// The merged record normalizes cleanly
	p := normalizer.Product(rec)
	require.NotNil(t, p.Price)
	assert.Equal(t, 299000.0, *p.Price)
	require.NotNil(t, p.DiscountPercentage)
	assert.Equal(t, 25.06, *p.DiscountPercentage)
	assert.Equal(t, model.InStock, p.Availability)
	assert.Equal(t, 123, p.ReviewCount)
	assert.Equal(t, "MLB-SS-001", p.SKU)
	assert.Equal(t, "Maybelline", p.BrandName)
	assert.True(t, p.IsBestseller)
	assert.Equal(t, `["https://bestmua.vn/images/maybelline-lipstick-main.jpg","https://bestmua.vn/images/maybelline-lipstick-2.jpg","https://bestmua.vn/images/maybelline-lipstick-3.jpg"]`, p.Images)
}

func TestExtractProductDetailInfoTable(t *testing.T) {
	e := newTestExtractor(t, newMockFetcher(nil), nil)
	html := `<html><body>
		<h1>Nước hoa hồng Klairs Supple Preparation</h1>
		<div class="additional-info"><table>
			<tr><th>Thương hiệu:</th><td><a href="/thuong-hieu/klairs">Klairs</a></td></tr>
			<tr><th>Mã hàng</th><td>KLS-180</td></tr>
			<tr><th>Thành phần</th><td>Water, Butylene Glycol</td></tr>
			<tr><th>Cách dùng</th><td>Dùng sau bước rửa mặt</td></tr>
			<tr><td>only one cell</td></tr>
		</table></div>
		<div class="stars"><i class="star filled"></i><i class="star filled"></i><i class="star filled"></i><i class="star"></i></div>
		<button class="add-to-cart">Thêm vào giỏ</button>
	</body></html>`

	rec := e.ExtractProductDetail(mustDoc(t, html), testBaseURL+"/san-pham/klairs-toner/")
	require.NotNil(t, rec)
	assert.Equal(t, "Nước hoa hồng Klairs Supple Preparation", rec[model.KeyName])
	assert.Equal(t, "klairs-toner", rec[model.KeySlug])
	assert.Equal(t, "Klairs", rec[model.KeyBrandName])
	assert.Equal(t, "KLS-180", rec[model.KeySKU])
	assert.Equal(t, "Water, Butylene Glycol", rec[model.KeyIngredients])
	assert.Equal(t, "Dùng sau bước rửa mặt", rec[model.KeyUsage])
	assert.Equal(t, "in_stock", rec[model.KeyAvailability])
	assert.Equal(t, 3.0, rec[model.KeyRating])
}

func TestExtractProductDetailRequiresName(t *testing.T) {
	e := newTestExtractor(t, newMockFetcher(nil), nil)

	// A heading too short to be a product name is ignored
	html := `<html><body><h1>Home</h1><span class="price">120.000đ</span></body></html>`
	assert.Nil(t, e.ExtractProductDetail(mustDoc(t, html), detailURL))
}

func TestParseHelpers(t *testing.T) {
	t.Run("label value", func(t *testing.T) {
		assert.Equal(t, "MLB-SS-001", labelValue("Mã sản phẩm: MLB-SS-001"))
		assert.Equal(t, "Maybelline", labelValue("Maybelline"))
		assert.Equal(t, "Brand:", labelValue("Brand:"))
	})

	t.Run("rating", func(t *testing.T) {
		tests := []struct {
			html string
			want float64
			ok   bool
		}{
			{`<div data-score="4.8"></div>`, 4.8, true},
			{`<div><span data-stars="3">★★★</span></div>`, 3, true},
			{`<div>Đánh giá 4,7/5</div>`, 4.7, true},
			{`<div><i class="fa-star"></i><i class="fa-star"></i></div>`, 2, true},
			{`<div>chưa có</div>`, 0, false},
		}
		for _, tt := range tests {
			el := mustDoc(t, "<html><body>"+tt.html+"</body></html>").Find("body > div")
			got, ok := ratingOf(el, DefaultSelectors().FilledStars)
			assert.Equal(t, tt.ok, ok, tt.html)
			assert.Equal(t, tt.want, got, tt.html)
		}
	})

	t.Run("review count", func(t *testing.T) {
		tests := []struct {
			html string
			want int
			ok   bool
		}{
			{`<span data-count="56">reviews</span>`, 56, true},
			{`<span>(1.234 đánh giá)</span>`, 1234, true},
			{`<span>2,001 reviews</span>`, 2001, true},
			{`<span>none yet</span>`, 0, false},
		}
		for _, tt := range tests {
			el := mustDoc(t, "<html><body>"+tt.html+"</body></html>").Find("body > span")
			got, ok := reviewCountOf(el)
			assert.Equal(t, tt.ok, ok, tt.html)
			assert.Equal(t, tt.want, got, tt.html)
		}
	})
}
