package normalizer

import (
	"fmt"
	"net/url"
	"strings"

	"sjsage522/bestmuadata/internal/model"
)

// ValidationResult separates hard errors, which reject a record, from
// warnings, which are reported but accepted.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate checks a normalized product before it is persisted.
func Validate(p model.ProductRecord) ValidationResult {
	res := ValidationResult{Valid: true}

	required := []struct {
		field string
		value string
	}{
		{"name", p.Name},
		{"slug", p.Slug},
		{"url", p.URL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("missing required field: %s", r.field))
		}
	}

	if p.URL != "" && !ValidURL(p.URL) {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid url: %s", p.URL))
	}

	if p.Price != nil && *p.Price < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("invalid price: %v", *p.Price))
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("invalid rating: %v", *p.Rating))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// ValidURL accepts absolute http(s) URLs with a host and root-relative paths.
func ValidURL(raw string) bool {
	if strings.HasPrefix(raw, "/") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
