package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
)

const (
	minNameLength        = 6
	minDescriptionLength = 11
)

var (
	skuLabels         = []string{"mã sản phẩm", "sku", "mã hàng"}
	brandLabels       = []string{"thương hiệu", "brand", "nhãn hiệu"}
	ingredientLabels  = []string{"thành phần", "ingredients"}
	usageLabels       = []string{"hướng dẫn sử dụng", "cách dùng", "usage"}
	availabilityLabel = []string{"tình trạng", "availability"}
)

// ParseProductDetail fetches and parses a product page. A page without a
// recognizable product name yields a nil record and no error.
func (e *Extractor) ParseProductDetail(ctx context.Context, productURL string) (model.RawRecord, error) {
	doc, err := e.fetchDocument(ctx, productURL)
	if err != nil {
		return nil, err
	}
	rec := e.ExtractProductDetail(doc, productURL)
	if rec == nil {
		e.log.Debug().Str("url", productURL).Msg("no product name on detail page")
	}
	return rec, nil
}

// ExtractProductDetail reads a product page from its markup and overlays
// the non-empty fields of its JSON-LD Product. url and slug always come
// from productURL.
func (e *Extractor) ExtractProductDetail(doc *goquery.Document, productURL string) model.RawRecord {
	rec := e.detailFromHTML(doc)
	if structured := e.structuredDetail(doc); structured != nil {
		delete(structured, model.KeyURL)
		delete(structured, model.KeySlug)
		rec.Merge(structured)
	}
	if !rec.Has(model.KeyName) {
		return nil
	}

	rec[model.KeyURL] = e.Resolve(productURL)
	rec[model.KeySlug] = helpers.LastPathSegment(productURL)
	return rec
}

func (e *Extractor) detailFromHTML(doc *goquery.Document) model.RawRecord {
	root := doc.Selection
	rec := model.RawRecord{}
	info := e.readInfoTable(root)

	for _, selector := range e.sel.DetailName {
		if name := firstText(root, []string{selector}); utf8.RuneCountInString(name) >= minNameLength {
			rec[model.KeyName] = name
			break
		}
	}

	for _, selector := range e.sel.DetailDescription {
		found := root.Find(selector)
		if found.Length() == 0 {
			continue
		}
		if desc := blockText(found.First()); utf8.RuneCountInString(desc) >= minDescriptionLength {
			rec[model.KeyDescription] = desc
			break
		}
	}

	price, hasPrice := priceOf(root, e.sel.DetailPrice)
	if hasPrice {
		rec[model.KeyPrice] = price
	}
	if original, ok := priceOf(root, e.sel.DetailOriginalPrice); ok {
		rec[model.KeyOriginalPrice] = original
		if hasPrice {
			if d := normalizer.Discount(&price, &original); d != nil {
				rec[model.KeyDiscount] = *d
			}
		}
	}

	if images := e.detailImages(root); len(images) > 0 {
		rec[model.KeyImageURL] = images[0]
		rec[model.KeyImages] = images
	}

	if sku := e.skuOf(root, e.sel.DetailSKU); sku != "" {
		rec[model.KeySKU] = sku
	} else if sku := info.value(skuLabels); sku != "" {
		rec[model.KeySKU] = sku
	}

	if brand := e.brandOf(root); brand != "" {
		rec[model.KeyBrandName] = brand
	} else if brand := info.value(brandLabels); brand != "" {
		rec[model.KeyBrandName] = brand
	}

	avail := e.availabilityOf(root, e.sel.DetailAvailability)
	if avail == "" {
		avail = info.value(availabilityLabel)
	}
	if avail == "" && e.sel.AddToCart != "" && root.Find(e.sel.AddToCart).Length() > 0 {
		avail = string(model.InStock)
	}
	if avail != "" {
		rec[model.KeyAvailability] = avail
	}

	if el := firstMatch(root, e.sel.DetailRating); el != nil {
		if rating, ok := ratingOf(el, e.sel.FilledStars); ok {
			rec[model.KeyRating] = rating
		}
	}
	if el := firstMatch(root, e.sel.DetailReviewCount); el != nil {
		if count, ok := reviewCountOf(el); ok {
			rec[model.KeyReviewCount] = count
		}
	}

	if text := firstBlock(root, e.sel.Ingredients); text != "" {
		rec[model.KeyIngredients] = text
	} else if text := info.value(ingredientLabels); text != "" {
		rec[model.KeyIngredients] = text
	}
	if text := firstBlock(root, e.sel.Usage); text != "" {
		rec[model.KeyUsage] = text
	} else if text := info.value(usageLabels); text != "" {
		rec[model.KeyUsage] = text
	}

	applyBadges(root, e.sel.Badges, rec)
	return rec
}

// detailImages returns the main image followed by the gallery, de-duplicated
func (e *Extractor) detailImages(root *goquery.Selection) []string {
	seen := make(map[string]bool)
	var images []string
	add := func(img *goquery.Selection) {
		src := imageSrc(img, e.sel.ImageAttrs)
		if src == "" {
			return
		}
		full := e.Resolve(src)
		if !seen[full] {
			seen[full] = true
			images = append(images, full)
		}
	}

	if main := firstMatch(root, e.sel.DetailMainImage); main != nil {
		add(main)
	}
	for _, selector := range e.sel.DetailGallery {
		root.Find(selector).Each(func(_ int, img *goquery.Selection) {
			add(img)
		})
	}
	return images
}

func (e *Extractor) brandOf(root *goquery.Selection) string {
	el := firstMatch(root, e.sel.DetailBrand)
	if el == nil {
		return ""
	}
	if link := el.Find("a").First(); link.Length() > 0 {
		if text := cleanText(link); text != "" {
			return text
		}
	}
	return labelValue(cleanText(el))
}

func firstBlock(root *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		found := root.Find(selector)
		if found.Length() == 0 {
			continue
		}
		if text := blockText(found.First()); text != "" {
			return text
		}
	}
	return ""
}

type infoRow struct {
	label string
	value string
}

type infoTable []infoRow

// readInfoTable collects the label/value rows of the additional-information table
func (e *Extractor) readInfoTable(root *goquery.Selection) infoTable {
	var rows infoTable
	if e.sel.InfoRows == "" {
		return rows
	}
	root.Find(e.sel.InfoRows).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSuffix(cleanText(cells.First()), ":"))
		value := cleanText(cells.Eq(1))
		if label != "" && value != "" {
			rows = append(rows, infoRow{label: label, value: value})
		}
	})
	return rows
}

// value returns the first row whose label contains one of labels
func (t infoTable) value(labels []string) string {
	for _, row := range t {
		if containsAny(row.label, labels) {
			return row.value
		}
	}
	return ""
}
