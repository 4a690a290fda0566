package extractor

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/normalizer"
)

const maxLinkText = 200

type navLink struct {
	text string
	href string
}

func linksOf(sel *goquery.Selection) []navLink {
	links := make([]navLink, 0, sel.Length())
	sel.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, navLink{text: cleanText(a), href: strings.TrimSpace(href)})
	})
	return links
}

// DiscoverCategories reads the main categories from the home page, then the
// subcategories of each main category page. A failed category page is
// skipped; its error is joined into the returned error next to the
// categories found elsewhere.
func (e *Extractor) DiscoverCategories(ctx context.Context) ([]model.RawRecord, error) {
	home, err := e.fetchDocument(ctx, e.BaseURL())
	if err != nil {
		e.log.Error().Err(err).Str("url", e.BaseURL()).Msg("failed to fetch home page")
		return nil, err
	}

	mains := e.MainCategories(home)
	e.log.Info().Int("count", len(mains)).Msg("main categories discovered")

	seen := make(map[string]bool, len(mains))
	all := make([]model.RawRecord, 0, len(mains))
	for _, rec := range mains {
		seen[rec.String(model.KeySlug)] = true
		all = append(all, rec)
	}

	var errs []error
	for _, main := range mains {
		e.pause(ctx)
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		pageURL := main.String(model.KeyFullURL)
		doc, err := e.fetchDocument(ctx, pageURL)
		if err != nil {
			e.log.Warn().Err(err).Str("url", pageURL).Msg("failed to fetch category page")
			errs = append(errs, err)
			continue
		}

		subs := e.Subcategories(doc, main.String(model.KeySlug))
		for _, rec := range subs {
			slug := rec.String(model.KeySlug)
			if seen[slug] {
				continue
			}
			seen[slug] = true
			all = append(all, rec)
		}
		e.log.Debug().Str("category", main.String(model.KeySlug)).Int("subcategories", len(subs)).Msg("subcategories discovered")
	}

	return all, errors.Join(errs...)
}

// MainCategories reads the navigation of a page. The first navigation
// selector with matches wins; otherwise links whose href looks like a
// category are used, and finally JSON-LD navigation data.
func (e *Extractor) MainCategories(doc *goquery.Document) []model.RawRecord {
	for _, selector := range e.sel.Navigation {
		links := doc.Find(selector)
		if links.Length() == 0 {
			continue
		}
		if recs := e.categoriesFromLinks(linksOf(links), ""); len(recs) > 0 {
			return recs
		}
		break
	}

	var patterned []navLink
	for _, link := range linksOf(doc.Find("a[href]")) {
		if containsAny(strings.ToLower(link.href), e.sel.CategoryLinkPatterns) {
			patterned = append(patterned, link)
		}
	}
	if recs := e.categoriesFromLinks(patterned, ""); len(recs) > 0 {
		return recs
	}

	return e.categoriesFromLinks(e.structuredCategories(doc), "")
}

// Subcategories reads the subcategory menu of a category page
func (e *Extractor) Subcategories(doc *goquery.Document, parentSlug string) []model.RawRecord {
	for _, selector := range e.sel.Subcategories {
		links := doc.Find(selector)
		if links.Length() > 0 {
			return e.categoriesFromLinks(linksOf(links), parentSlug)
		}
	}
	return nil
}

// categoriesFromLinks turns links into category records keyed by the slug
// of their text. Off-site, utility and oversized links are dropped.
func (e *Extractor) categoriesFromLinks(links []navLink, parentSlug string) []model.RawRecord {
	seen := make(map[string]bool)
	var out []model.RawRecord
	for _, link := range links {
		if link.href == "" || link.text == "" || utf8.RuneCountInString(link.text) > maxLinkText {
			continue
		}
		if containsAny(strings.ToLower(link.href), e.sel.SkipPatterns) || !helpers.SameHost(e.base, link.href) {
			continue
		}

		slug := normalizer.Slug(link.text)
		if slug == "unknown" || slug == parentSlug || seen[slug] {
			continue
		}
		seen[slug] = true

		full := e.Resolve(link.href)
		rec := model.RawRecord{
			model.KeyName:    link.text,
			model.KeySlug:    slug,
			model.KeyURL:     full,
			model.KeyFullURL: full,
		}
		if parentSlug != "" {
			rec[model.KeyParentSlug] = parentSlug
		}
		out = append(out, rec)
	}
	return out
}
