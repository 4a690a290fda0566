package extractor

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
)

var cardFeatureClasses = []string{"featured", "bestseller", "hot"}

// ParseCategoryProducts walks the paginated listing at categoryURL. It stops
// at the first page without products, after maxPages pages when maxPages is
// positive, or when a page offers no next page. On a failed page the
// products of the earlier pages are returned with the error.
func (e *Extractor) ParseCategoryProducts(ctx context.Context, categoryURL string, maxPages int) ([]model.RawRecord, error) {
	var products []model.RawRecord
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		if page > 1 {
			e.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			return products, err
		}

		pageURL := PageURL(categoryURL, page)
		items, hasNext, err := e.ParseListPage(ctx, pageURL)
		if err != nil {
			e.log.Warn().Err(err).Str("url", pageURL).Int("page", page).Msg("failed to parse listing page")
			return products, err
		}
		if len(items) == 0 {
			e.log.Debug().Str("url", pageURL).Msg("empty listing page")
			break
		}

		products = append(products, items...)
		e.log.Debug().Str("url", pageURL).Int("page", page).Int("products", len(items)).Msg("listing page parsed")
		if !hasNext {
			break
		}
	}
	return products, nil
}

// PageURL returns the URL of page n of a listing; page 1 is the listing itself
func PageURL(listURL string, n int) string {
	if n <= 1 {
		return listURL
	}
	return helpers.WithQueryParam(listURL, "page", strconv.Itoa(n))
}

// ParseListPage fetches one listing page and reports whether it links a
// next page.
func (e *Extractor) ParseListPage(ctx context.Context, pageURL string) ([]model.RawRecord, bool, error) {
	doc, err := e.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, false, err
	}
	return e.ExtractListProducts(doc), e.HasNextPage(doc), nil
}

// ExtractListProducts reads the product cards of a listing page. Without
// cards it falls back to product-looking links, then to JSON-LD.
func (e *Extractor) ExtractListProducts(doc *goquery.Document) []model.RawRecord {
	for _, selector := range e.sel.ProductCards {
		cards := doc.Find(selector)
		if cards.Length() == 0 {
			continue
		}
		var out []model.RawRecord
		cards.Each(func(_ int, card *goquery.Selection) {
			if rec := e.productFromCard(card); rec != nil {
				out = append(out, rec)
			}
		})
		if len(out) > 0 {
			return out
		}
		break
	}

	if out := e.productsFromLinks(doc); len(out) > 0 {
		return out
	}
	return e.structuredProducts(doc)
}

// HasNextPage reports whether the page shows an enabled next-page control
func (e *Extractor) HasNextPage(doc *goquery.Document) bool {
	for _, selector := range e.sel.NextPage {
		found := false
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = !s.HasClass("disabled")
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

func (e *Extractor) productFromCard(card *goquery.Selection) model.RawRecord {
	nameEl := firstMatch(card, e.sel.CardName)
	if nameEl == nil {
		card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if cleanText(a) != "" {
				nameEl = a
				return false
			}
			return true
		})
	}
	if nameEl == nil {
		return nil
	}

	name := cleanText(nameEl)
	if name == "" {
		name = strings.TrimSpace(nameEl.AttrOr("title", ""))
	}
	href := strings.TrimSpace(nameEl.AttrOr("href", ""))
	if name == "" || href == "" {
		return nil
	}

	rec := model.RawRecord{
		model.KeyName: name,
		model.KeyURL:  e.Resolve(href),
		model.KeySlug: helpers.LastPathSegment(href),
	}

	price, hasPrice := priceOf(card, e.sel.CardPrice)
	if hasPrice {
		rec[model.KeyPrice] = price
	}
	if original, ok := priceOf(card, e.sel.CardOriginalPrice); ok {
		rec[model.KeyOriginalPrice] = original
		if hasPrice {
			if d := normalizer.Discount(&price, &original); d != nil {
				rec[model.KeyDiscount] = *d
			}
		}
	}

	if img := firstMatch(card, e.sel.CardImage); img != nil {
		if src := imageSrc(img, e.sel.ImageAttrs); src != "" {
			rec[model.KeyImageURL] = e.Resolve(src)
		}
	}

	if el := firstMatch(card, e.sel.CardRating); el != nil {
		if rating, ok := ratingOf(el, e.sel.FilledStars); ok {
			rec[model.KeyRating] = rating
		}
	}
	if el := firstMatch(card, e.sel.CardReviewCount); el != nil {
		if count, ok := reviewCountOf(el); ok {
			rec[model.KeyReviewCount] = count
		}
	}

	if sku := e.skuOf(card, e.sel.SKU); sku != "" {
		rec[model.KeySKU] = sku
	}
	if avail := e.availabilityOf(card, e.sel.Availability); avail != "" {
		rec[model.KeyAvailability] = avail
	}

	applyBadges(card, e.sel.Badges, rec)
	if containsAny(card.AttrOr("class", ""), cardFeatureClasses) {
		rec[model.KeyIsFeatured] = true
	}
	return rec
}

// productsFromLinks builds minimal records from links shaped like product URLs
func (e *Extractor) productsFromLinks(doc *goquery.Document) []model.RawRecord {
	seen := make(map[string]bool)
	var out []model.RawRecord
	for _, link := range linksOf(doc.Find("a[href]")) {
		if !containsAny(strings.ToLower(link.href), e.sel.ProductLinkPatterns) || !helpers.SameHost(e.base, link.href) {
			continue
		}
		full := e.Resolve(link.href)
		if link.text == "" || seen[full] {
			continue
		}
		seen[full] = true
		out = append(out, model.RawRecord{
			model.KeyName: link.text,
			model.KeyURL:  full,
			model.KeySlug: helpers.LastPathSegment(link.href),
		})
	}
	return out
}

func (e *Extractor) skuOf(s *goquery.Selection, selectors []string) string {
	el := firstMatch(s, selectors)
	if el == nil {
		return ""
	}
	if sku := strings.TrimSpace(el.AttrOr("data-sku", "")); sku != "" {
		return sku
	}
	return labelValue(cleanText(el))
}

// availabilityOf returns the stock text of the first availability element,
// or a status derived from stock marker classes.
func (e *Extractor) availabilityOf(s *goquery.Selection, selectors []string) string {
	if el := firstMatch(s, selectors); el != nil {
		if text := labelValue(cleanText(el)); text != "" {
			return text
		}
	}
	switch {
	case e.sel.InStockMarkers != "" && s.Find(e.sel.InStockMarkers).Length() > 0:
		return string(model.InStock)
	case e.sel.OutOfStockMarkers != "" && s.Find(e.sel.OutOfStockMarkers).Length() > 0:
		return string(model.OutOfStock)
	}
	return ""
}
