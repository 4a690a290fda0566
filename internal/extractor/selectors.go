package extractor

// Selectors holds the ordered CSS selector fallbacks for each page role.
// Within a list the first selector that matches anything wins.
type Selectors struct {
	// Category discovery
	Navigation           []string
	CategoryLinkPatterns []string
	SkipPatterns         []string
	Subcategories        []string

	// Listing pages
	ProductCards        []string
	ProductLinkPatterns []string
	CardName            []string
	CardPrice           []string
	CardOriginalPrice   []string
	CardImage           []string
	ImageAttrs          []string
	CardRating          []string
	CardReviewCount     []string
	SKU                 []string
	Availability        []string
	InStockMarkers      string
	OutOfStockMarkers   string
	Badges              []string
	FilledStars         string
	NextPage            []string

	// Detail pages
	DetailName          []string
	DetailDescription   []string
	DetailPrice         []string
	DetailOriginalPrice []string
	DetailMainImage     []string
	DetailGallery       []string
	DetailSKU           []string
	DetailBrand         []string
	DetailAvailability  []string
	AddToCart           string
	DetailRating        []string
	DetailReviewCount   []string
	Ingredients         []string
	Usage               []string
	InfoRows            string
}

// DefaultSelectors returns the selector tables tuned for bestmua.vn and the
// common storefront themes it has used.
func DefaultSelectors() Selectors {
	return Selectors{
		Navigation: []string{
			"nav .menu a",
			".main-menu a",
			".navigation a",
			".navbar a",
			".category-menu a",
			"header nav a",
			".header-menu a",
		},
		CategoryLinkPatterns: []string{"/danh-muc/", "/category/", "/categories/", "/c/", "/san-pham/", "/products/"},
		SkipPatterns:         []string{"javascript:", "mailto:", "tel:", "#", "/search", "/contact", "/about", "/blog", "/news"},
		Subcategories: []string{
			".subcategory-menu a",
			".sub-categories a",
			".category-sidebar a",
			".filter-categories a",
			".sub-nav a",
		},

		ProductCards: []string{
			".product-item",
			".product",
			".product-card",
			".item-product",
			".product-list-item",
			".grid-item",
			".product-grid-item",
			"[data-product-id]",
			".woocommerce-product-list .product",
		},
		ProductLinkPatterns: []string{"/san-pham/", "/products/", "/product/", "/p/"},
		CardName: []string{
			".product-title a",
			"a.product-title",
			".product-name a",
			"h3 a",
			"h2 a",
			".title a",
			"a[title]",
		},
		// Specific selectors first: ".product-price" usually wraps both prices
		CardPrice:         []string{".price-current", ".current-price", ".sale-price", ".price", ".product-price"},
		CardOriginalPrice: []string{".price-original", ".original-price", ".old-price", ".regular-price", ".price-old"},
		CardImage:         []string{".product-image img", ".product-img img", ".thumb img", "img.product-image", "img"},
		ImageAttrs:        []string{"data-src", "src", "data-original"},
		CardRating:        []string{".stars", ".rating", ".star-rating", ".product-rating"},
		CardReviewCount:   []string{".review-count", ".reviews", ".num-reviews", ".review-num"},
		SKU:               []string{"[data-sku]", ".sku", ".product-sku", ".product-code"},
		Availability:      []string{".availability", ".stock-status", ".in-stock", ".out-of-stock"},
		InStockMarkers:    ".in-stock, .available",
		OutOfStockMarkers: ".out-of-stock, .unavailable",
		Badges:            []string{".badge", ".label", ".flag", ".tag"},
		FilledStars:       ".star.filled, .star-filled, .fa-star, .glyphicon-star",
		NextPage:          []string{".next", ".pagination-next", `a[rel="next"]`, ".page-next"},

		DetailName: []string{"h1.product-title", "h1.product-name", ".product-title h1", ".product-name h1", "h1"},
		DetailDescription: []string{
			".product-description",
			".description",
			".product-detail",
			".product-content",
			".product-info .description",
			`[id*="description"]`,
			".tab-content .description",
		},
		DetailPrice:         []string{".price-box .price-current", ".price-current", ".current-price", ".sale-price", ".special-price", ".price"},
		DetailOriginalPrice: []string{".price-box .price-original", ".price-original", ".original-price", ".old-price", ".regular-price"},
		DetailMainImage:     []string{"img.main-image", ".main-image img", ".product-image img", ".product-gallery img", "#main-image"},
		DetailGallery:       []string{".product-gallery img", ".product-images img", ".thumbnails img", ".gallery img"},
		DetailSKU:           []string{"[data-sku]", ".sku", ".product-sku", ".product-code"},
		DetailBrand:         []string{".brand", ".product-brand", ".brand-name", `[itemprop="brand"]`},
		DetailAvailability:  []string{".availability", ".stock-status", ".in-stock", ".out-of-stock", ".product-availability"},
		AddToCart:           `.add-to-cart, .btn-cart, button[name="add-to-cart"], .add_to_cart_button`,
		DetailRating:        []string{".rating", ".stars", ".star-rating", ".product-rating"},
		DetailReviewCount:   []string{".review-count", ".reviews-count", ".num-reviews", ".total-reviews"},
		Ingredients:         []string{".ingredients", ".product-ingredients", ".composition"},
		Usage:               []string{".usage", ".usage-instructions", ".instructions", ".how-to-use"},
		InfoRows:            ".product-info table tr, .additional-info tr, .product-attributes tr, .specifications tr",
	}
}
