package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
)

var (
	numberPattern  = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	integerPattern = regexp.MustCompile(`\d+`)
)

var ratingAttrs = []string{"data-rating", "data-score", "data-stars"}

var reviewAttrs = []string{"data-count", "data-reviews", "data-review-count"}

type badgeFlag struct {
	key   string
	words []string
}

// Only the first matching group applies to a badge
var badgeFlags = []badgeFlag{
	{model.KeyIsNew, []string{"new", "mới"}},
	{model.KeyIsSale, []string{"sale", "giảm", "khuyến mãi"}},
	{model.KeyIsBestseller, []string{"bestseller", "bán chạy", "hot"}},
	{model.KeyIsFeatured, []string{"featured", "nổi bật"}},
}

// firstMatch returns the first element of the first selector with a match
// under s, or nil.
func firstMatch(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		found := s.Find(selector)
		if found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// firstText returns the text of the first selector match with non-empty text
func firstText(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		var text string
		s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text = cleanText(el)
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

func cleanText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// blockText returns the text of a content block without scripts, styles or
// the block's own headings.
func blockText(s *goquery.Selection) string {
	clone := s.Clone()
	clone.Find("script, style, h1, h2, h3, h4, h5, h6").Remove()
	return cleanText(clone)
}

// labelValue returns what follows the label in "Label: value" text
func labelValue(text string) string {
	if i := strings.Index(text, ":"); i >= 0 && i < len(text)-1 {
		return strings.TrimSpace(text[i+1:])
	}
	return strings.TrimSpace(text)
}

// priceOf parses the first selector match holding a usable price
func priceOf(s *goquery.Selection, selectors []string) (float64, bool) {
	for _, selector := range selectors {
		el := s.Find(selector)
		if el.Length() == 0 {
			continue
		}
		if price, ok := normalizer.ParsePrice(cleanText(el.First())); ok && price > 0 {
			return price, true
		}
	}
	return 0, false
}

// ratingOf reads a rating from data attributes on el or below it, then the
// first number in its text, then the number of filled star markers.
func ratingOf(el *goquery.Selection, filledStars string) (float64, bool) {
	for _, attr := range ratingAttrs {
		if v, ok := numberAttr(el, attr); ok {
			return v, true
		}
	}
	if inner := el.Find("[data-rating], [data-score], [data-stars]").First(); inner.Length() > 0 {
		for _, attr := range ratingAttrs {
			if v, ok := numberAttr(inner, attr); ok {
				return v, true
			}
		}
	}
	if v, ok := firstNumber(el.Text()); ok {
		return v, true
	}
	if filledStars != "" {
		if n := el.Find(filledStars).Length(); n > 0 {
			return float64(n), true
		}
	}
	return 0, false
}

// reviewCountOf reads a review count from data attributes, then from the
// first integer in the text. Thousands separators are ignored.
func reviewCountOf(el *goquery.Selection) (int, bool) {
	for _, attr := range reviewAttrs {
		if v, ok := el.Attr(attr); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				return n, true
			}
		}
	}
	text := strings.NewReplacer(".", "", ",", "").Replace(el.Text())
	if m := integerPattern.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n, true
		}
	}
	return 0, false
}

func numberAttr(el *goquery.Selection, attr string) (float64, bool) {
	v, ok := el.Attr(attr)
	if !ok {
		return 0, false
	}
	return firstNumber(v)
}

func firstNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// imageSrc returns the first usable image attribute of img
func imageSrc(img *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		v, ok := img.Attr(attr)
		v = strings.TrimSpace(v)
		if ok && v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

// applyBadges sets a flag for every badge under s whose text names one.
// Flags are only ever set to true so that merging records never clears one.
func applyBadges(s *goquery.Selection, selectors []string, rec model.RawRecord) {
	for _, selector := range selectors {
		s.Find(selector).Each(func(_ int, badge *goquery.Selection) {
			text := strings.ToLower(cleanText(badge))
			for _, flag := range badgeFlags {
				if containsAny(text, flag.words) {
					rec[flag.key] = true
					break
				}
			}
		})
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
