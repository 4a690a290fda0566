package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const unknownSlug = "unknown"

var (
	nonWordChars = regexp.MustCompile(`[^\w\s-]`)
	separators   = regexp.MustCompile(`[-\s]+`)

	diacritics = func() *strings.Replacer {
		table := map[string]string{
			"a": "áàảãạăắằẳẵặâấầẩẫậ",
			"e": "éèẻẽẹêếềểễệ",
			"i": "íìỉĩị",
			"o": "óòỏõọôốồổỗộơớờởỡợ",
			"u": "úùủũụưứừửữự",
			"y": "ýỳỷỹỵ",
			"d": "đ",
		}
		var pairs []string
		for base, variants := range table {
			for _, r := range variants {
				pairs = append(pairs, string(r), base)
			}
		}
		pairs = append(pairs, "ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "ł", "l")
		return strings.NewReplacer(pairs...)
	}()
)

// foldMarks removes combining marks left after canonical decomposition,
// covering accented Latin letters outside the explicit table.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug turns a display name or path fragment into a lowercase ASCII,
// hyphen-separated identifier. Empty results become "unknown".
func Slug(v any) string {
	s := strings.ToLower(strings.TrimSpace(asString(v)))
	s = strings.Trim(s, "/ ")
	s = diacritics.Replace(s)
	s = foldMarks(s)
	s = nonWordChars.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return unknownSlug
	}
	return s
}
