package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"sjsage522/bestmuadata/internal/model"
)

var (
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
	priceChars       = regexp.MustCompile(`[^\d.,]`)
	thousandsDots    = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	skuChars         = regexp.MustCompile(`[^A-Z0-9_-]`)
	quoteReplacer    = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
	booleanTrueWords = map[string]bool{"true": true, "1": true, "yes": true, "on": true, "active": true}
)

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// Text strips markup, decodes entities, straightens curly quotes and
// collapses whitespace.
func Text(v any) string {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = quoteReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// URL keeps absolute http(s) URLs and root-relative paths, and roots
// anything else.
func URL(v any) string {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}

// ParsePrice reads a price string such as "299,000đ" or "450.000 VND".
// Commas are grouping separators; dots are grouping separators too when
// they split the number into groups of three digits.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, false
	}
	s = priceChars.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	if thousandsDots.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

// Price returns nil for missing, unparseable or negative prices.
func Price(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return nonNegative(t)
	case int:
		return nonNegative(float64(t))
	case string:
		if f, ok := ParsePrice(t); ok {
			return &f
		}
	}
	return nil
}

func nonNegative(f float64) *float64 {
	if f < 0 || !finite(f) {
		return nil
	}
	return &f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// inRange parses v as a number and returns it only when lo <= v <= hi.
func inRange(v any, lo, hi float64, trim string) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, trim, ""))
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if !finite(f) || f < lo || f > hi {
		return nil
	}
	return &f
}

// Percentage returns values in [0,100]; anything else is absent.
func Percentage(v any) *float64 {
	return inRange(v, 0, 100, "%")
}

// Rating returns values in [0,5]; anything else is absent.
func Rating(v any) *float64 {
	return inRange(v, 0, 5, "")
}

// Integer truncates numeric input and floors it at zero.
func Integer(v any) int {
	var f float64
	switch t := v.(type) {
	case int:
		return max(0, t)
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if !finite(f) {
		return 0
	}
	return max(0, int(f))
}

// Boolean accepts bools, non-zero numbers and the words true/1/yes/on/active.
func Boolean(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return booleanTrueWords[strings.ToLower(strings.TrimSpace(t))]
	case int:
		return t != 0
	case float64:
		return t != 0
	}
	return false
}

// SKU uppercases and keeps letters, digits, hyphens and underscores.
func SKU(v any) string {
	s := strings.ToUpper(strings.TrimSpace(asString(v)))
	return skuChars.ReplaceAllString(s, "")
}

type availabilityTerm struct {
	term  string
	value model.Availability
}

// Negative terms come first so "unavailable" never matches "available".
var availabilityTerms = []availabilityTerm{
	{"out_of_stock", model.OutOfStock},
	{"outofstock", model.OutOfStock},
	{"out of stock", model.OutOfStock},
	{"unavailable", model.OutOfStock},
	{"hết hàng", model.OutOfStock},
	{"ngừng bán", model.OutOfStock},
	{"pre_order", model.PreOrder},
	{"preorder", model.PreOrder},
	{"pre-order", model.PreOrder},
	{"đặt trước", model.PreOrder},
	{"in_stock", model.InStock},
	{"instock", model.InStock},
	{"in stock", model.InStock},
	{"available", model.InStock},
	{"có sẵn", model.InStock},
	{"còn hàng", model.InStock},
}

// AvailabilityOf maps free text onto the availability enum: exact match
// first, then the first term contained in the text.
func AvailabilityOf(v any) model.Availability {
	s := strings.ToLower(strings.TrimSpace(asString(v)))
	if s == "" {
		return model.Unknown
	}
	for _, t := range availabilityTerms {
		if s == t.term {
			return t.value
		}
	}
	for _, t := range availabilityTerms {
		if strings.Contains(s, t.term) {
			return t.value
		}
	}
	return model.Unknown
}

// Images renders an image list as a JSON array of normalized URLs. Input
// may be a JSON array string, a single URL, or a slice. No URLs yields "".
func Images(v any) string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, asString(item))
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			switch d := decoded.(type) {
			case []any:
				return Images(d)
			case string:
				raw = []string{d}
			default:
				raw = []string{s}
			}
		} else {
			raw = []string{s}
		}
	default:
		raw = []string{asString(t)}
	}

	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if n := URL(u); n != "" {
			urls = append(urls, n)
		}
	}
	if len(urls) == 0 {
		return ""
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(urls); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

// Discount derives (original-price)/original*100 rounded to two decimals.
// It is absent unless both prices are known and the result is in [0,100].
func Discount(price, original *float64) *float64 {
	if price == nil || original == nil || *original <= 0 {
		return nil
	}
	d := math.Round((*original-*price) / *original * 100 * 100) / 100
	return Percentage(d)
}
