package extractor

import (
	"encoding/json"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
)

type jsonNode = map[string]any

// jsonLDNodes returns every JSON-LD object on the page. Top-level arrays
// and @graph containers are flattened; blocks that fail to decode are skipped.
func jsonLDNodes(doc *goquery.Document) []jsonNode {
	var nodes []jsonNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return
		}
		nodes = appendNodes(nodes, data)
	})
	return nodes
}

func appendNodes(nodes []jsonNode, data any) []jsonNode {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			nodes = appendNodes(nodes, item)
		}
	case jsonNode:
		if graph, ok := v["@graph"]; ok {
			return appendNodes(nodes, graph)
		}
		nodes = append(nodes, v)
	}
	return nodes
}

func hasType(node jsonNode, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// stringValue flattens a JSON-LD value to text. Objects yield their name.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case jsonNode:
		return stringValue(t["name"])
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	}
	return ""
}

// scalar keeps numbers as float64 and strings as trimmed text
func scalar(v any) any {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	}
	return nil
}

func firstObject(v any) jsonNode {
	switch t := v.(type) {
	case jsonNode:
		return t
	case []any:
		for _, item := range t {
			if obj, ok := item.(jsonNode); ok {
				return obj
			}
		}
	}
	return nil
}

// images collects image URLs from a string, a list of strings or
// ImageObjects.
func (e *Extractor) images(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, e.Resolve(s))
		}
	}
	switch t := v.(type) {
	case string:
		add(t)
	case jsonNode:
		add(stringValue(t["url"]))
	case []any:
		for _, item := range t {
			switch img := item.(type) {
			case string:
				add(img)
			case jsonNode:
				add(stringValue(img["url"]))
			}
		}
	}
	return out
}

// structuredProduct maps a schema.org Product onto a raw record
func (e *Extractor) structuredProduct(node jsonNode) model.RawRecord {
	rec := model.RawRecord{}
	setString := func(key string, v any) {
		if s := stringValue(v); s != "" {
			rec[key] = s
		}
	}

	setString(model.KeyName, node["name"])
	setString(model.KeyDescription, node["description"])
	setString(model.KeySKU, node["sku"])
	setString(model.KeyBrandName, node["brand"])
	setString(model.KeyCategoryName, node["category"])

	if u := stringValue(node["url"]); u != "" {
		rec[model.KeyURL] = e.Resolve(u)
		rec[model.KeySlug] = helpers.LastPathSegment(u)
	}

	if imgs := e.images(node["image"]); len(imgs) > 0 {
		rec[model.KeyImages] = imgs
		rec[model.KeyImageURL] = imgs[0]
	}

	if offer := firstObject(node["offers"]); offer != nil {
		price := offer["price"]
		if price == nil {
			price = offer["lowPrice"]
		}
		if p := scalar(price); p != nil {
			rec[model.KeyPrice] = p
		}
		if a := stringValue(offer["availability"]); a != "" {
			rec[model.KeyAvailability] = strings.ToLower(path.Base(a))
		}
	}

	if rating := firstObject(node["aggregateRating"]); rating != nil {
		if v := scalar(rating["ratingValue"]); v != nil {
			rec[model.KeyRating] = v
		}
		count := rating["reviewCount"]
		if count == nil {
			count = rating["ratingCount"]
		}
		if v := scalar(count); v != nil {
			rec[model.KeyReviewCount] = v
		}
	}
	return rec
}

// structuredProducts reads products from Product nodes and ItemList entries
func (e *Extractor) structuredProducts(doc *goquery.Document) []model.RawRecord {
	var out []model.RawRecord
	for _, node := range jsonLDNodes(doc) {
		switch {
		case hasType(node, "Product"):
			if rec := e.structuredProduct(node); rec.Has(model.KeyName) {
				out = append(out, rec)
			}
		case hasType(node, "ItemList") || node["itemListElement"] != nil:
			items, _ := node["itemListElement"].([]any)
			for _, item := range items {
				entry, ok := item.(jsonNode)
				if !ok {
					continue
				}
				if inner := firstObject(entry["item"]); inner != nil {
					entry = inner
				}
				if rec := e.structuredProduct(entry); rec.Has(model.KeyName) {
					out = append(out, rec)
				}
			}
		}
	}
	return out
}

// structuredDetail returns the first Product node on a detail page
func (e *Extractor) structuredDetail(doc *goquery.Document) model.RawRecord {
	for _, node := range jsonLDNodes(doc) {
		if hasType(node, "Product") {
			return e.structuredProduct(node)
		}
	}
	return nil
}

// structuredCategories reads navigation entries from ItemList and
// SiteNavigationElement nodes.
func (e *Extractor) structuredCategories(doc *goquery.Document) []navLink {
	var out []navLink
	for _, node := range jsonLDNodes(doc) {
		switch {
		case hasType(node, "SiteNavigationElement"):
			out = append(out, navLinksFrom(node)...)
		case hasType(node, "ItemList"):
			items, _ := node["itemListElement"].([]any)
			for _, item := range items {
				entry, ok := item.(jsonNode)
				if !ok {
					continue
				}
				if inner := firstObject(entry["item"]); inner != nil {
					if _, named := entry["name"]; !named {
						entry = inner
					} else if entry["url"] == nil {
						entry["url"] = inner["@id"]
					}
				}
				out = append(out, navLinksFrom(entry)...)
			}
		}
	}
	return out
}

// navLinksFrom handles both one entry per node and parallel name/url arrays
func navLinksFrom(node jsonNode) []navLink {
	names, namesOK := node["name"].([]any)
	urls, urlsOK := node["url"].([]any)
	if namesOK && urlsOK {
		var out []navLink
		for i := 0; i < len(names) && i < len(urls); i++ {
			out = append(out, navLink{text: stringValue(names[i]), href: stringValue(urls[i])})
		}
		return out
	}
	href := stringValue(node["url"])
	if href == "" {
		href = stringValue(node["@id"])
	}
	return []navLink{{text: stringValue(node["name"]), href: href}}
}
