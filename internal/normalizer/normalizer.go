// Package normalizer turns raw scraped field maps into typed records.
// Every function fails closed: input it cannot make sense of yields the
// zero value or nil instead of an error.
package normalizer

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"sjsage522/bestmuadata/internal/model"
)

// Category normalizes a raw category. A missing slug is derived from the name.
func Category(raw model.RawRecord) model.CategoryRecord {
	rec := model.CategoryRecord{
		Name:        Text(raw[model.KeyName]),
		URL:         URL(raw[model.KeyURL]),
		Description: Text(raw[model.KeyDescription]),
	}
	rec.Slug = slugOrFallback(raw, rec.Name)
	if raw.Has(model.KeyParentSlug) {
		rec.ParentSlug = Slug(raw[model.KeyParentSlug])
	}
	return rec
}

// Brand normalizes a raw brand. A missing slug is derived from the name.
func Brand(raw model.RawRecord) model.BrandRecord {
	rec := model.BrandRecord{
		Name:        Text(raw[model.KeyName]),
		URL:         URL(raw[model.KeyURL]),
		Description: Text(raw[model.KeyDescription]),
	}
	rec.Slug = slugOrFallback(raw, rec.Name)
	return rec
}

// Product normalizes a raw product. A missing slug falls back to the last
// path segment of the URL, then to the name.
func Product(raw model.RawRecord) model.ProductRecord {
	rec := model.ProductRecord{
		Name:              Text(raw[model.KeyName]),
		URL:               URL(raw[model.KeyURL]),
		Description:       Text(raw[model.KeyDescription]),
		Price:             Price(raw[model.KeyPrice]),
		OriginalPrice:     Price(raw[model.KeyOriginalPrice]),
		SKU:               SKU(raw[model.KeySKU]),
		Availability:      AvailabilityOf(raw[model.KeyAvailability]),
		Rating:            Rating(raw[model.KeyRating]),
		ReviewCount:       Integer(raw[model.KeyReviewCount]),
		ImageURL:          URL(raw[model.KeyImageURL]),
		Images:            Images(raw[model.KeyImages]),
		Ingredients:       Text(raw[model.KeyIngredients]),
		UsageInstructions: Text(raw[model.KeyUsage]),
		CategoryName:      Text(raw[model.KeyCategoryName]),
		BrandName:         Text(raw[model.KeyBrandName]),
		IsFeatured:        Boolean(raw[model.KeyIsFeatured]),
		IsBestseller:      Boolean(raw[model.KeyIsBestseller]),
		IsNew:             Boolean(raw[model.KeyIsNew]),
		IsSale:            Boolean(raw[model.KeyIsSale]),
	}

	switch {
	case raw.Has(model.KeySlug):
		rec.Slug = Slug(raw[model.KeySlug])
	case rec.URL != "":
		rec.Slug = Slug(lastSegment(rec.URL))
	default:
		rec.Slug = Slug(rec.Name)
	}

	if raw.Has(model.KeyCategorySlug) {
		rec.CategorySlug = Slug(raw[model.KeyCategorySlug])
	}

	rec.DiscountPercentage = Percentage(raw[model.KeyDiscount])
	if rec.DiscountPercentage == nil {
		rec.DiscountPercentage = Discount(rec.Price, rec.OriginalPrice)
	}

	if rec.ImageURL == "" && rec.Images != "" {
		rec.ImageURL = firstImage(rec.Images)
	}
	return rec
}

func slugOrFallback(raw model.RawRecord, name string) string {
	if raw.Has(model.KeySlug) {
		return Slug(raw[model.KeySlug])
	}
	return Slug(name)
}

func lastSegment(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return path.Base(strings.TrimRight(p, "/"))
}

func firstImage(images string) string {
	var urls []string
	if err := json.Unmarshal([]byte(images), &urls); err != nil || len(urls) == 0 {
		return ""
	}
	return urls[0]
}
