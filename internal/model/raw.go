package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Raw record keys produced by the extractor.
const (
	KeyName          = "name"
	KeySlug          = "slug"
	KeyURL           = "url"
	KeyFullURL       = "full_url"
	KeyDescription   = "description"
	KeyParentSlug    = "parent_slug"
	KeyPrice         = "price"
	KeyOriginalPrice = "original_price"
	KeyDiscount      = "discount_percentage"
	KeySKU           = "sku"
	KeyAvailability  = "availability"
	KeyRating        = "rating"
	KeyReviewCount   = "review_count"
	KeyImageURL      = "image_url"
	KeyImages        = "images"
	KeyIngredients   = "ingredients"
	KeyUsage         = "usage_instructions"
	KeyCategoryName  = "category_name"
	KeyCategorySlug  = "category_slug"
	KeyBrandName     = "brand_name"
	KeyIsFeatured    = "is_featured"
	KeyIsBestseller  = "is_bestseller"
	KeyIsNew         = "is_new"
	KeyIsSale        = "is_sale"
)

// RawRecord is an unvalidated field map scraped from a page. Values are
// strings, float64, int, bool or []string depending on where they came from.
type RawRecord map[string]any

// Has reports whether key is present with a non-empty value.
func (r RawRecord) Has(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	if l, ok := v.([]string); ok {
		return len(l) > 0
	}
	return true
}

// String returns the value under key rendered as a string.
func (r RawRecord) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the value under key as a bool when it was stored as one.
func (r RawRecord) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Merge copies every non-empty value of other over r and returns r.
func (r RawRecord) Merge(other RawRecord) RawRecord {
	for k, v := range other {
		if other.Has(k) {
			r[k] = v
		}
	}
	return r
}

// SetIfMissing sets key only when r does not already carry a value for it.
func (r RawRecord) SetIfMissing(key string, value any) {
	if !r.Has(key) {
		r[key] = value
	}
}
