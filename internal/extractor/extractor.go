// Package extractor turns bestmua.vn pages into raw field maps. It knows
// three page roles (category navigation, product listing and product
// detail) and never validates what it finds: missing fields are simply
// absent from the returned records.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/logger"
	apperrors "sjsage522/bestmuadata/pkg/errors"
	"sjsage522/bestmuadata/services/cache"
	"sjsage522/bestmuadata/services/worker"
)

// Fetcher retrieves a page body. helpers.HTTPFetcher is the production one.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Role selects how a page is read
type Role string

const (
	RoleCategoryNav   Role = "category-nav"
	RoleProductList   Role = "product-list"
	RoleProductDetail Role = "product-detail"
)

// Config configures an Extractor
type Config struct {
	BaseURL string
	// Delay separates consecutive requests issued by one call
	Delay time.Duration
	// CacheTTL is how long page bodies stay in the cache
	CacheTTL time.Duration
	// Selectors overrides DefaultSelectors when non-nil
	Selectors *Selectors
}

// Extractor fetches and parses pages of one site
type Extractor struct {
	base     *url.URL
	fetcher  Fetcher
	cacheSvc cache.CacheService
	cacheTTL time.Duration
	delay    time.Duration
	sel      Selectors
	log      *logger.Logger
}

// New creates an extractor. cacheSvc and log may be nil.
func New(cfg Config, fetcher Fetcher, cacheSvc cache.CacheService, log *logger.Logger) (*Extractor, error) {
	if fetcher == nil {
		return nil, apperrors.NewConfiguration("extractor needs a fetcher", nil)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, apperrors.NewConfiguration("invalid base URL: "+cfg.BaseURL, err)
	}
	if log == nil {
		log = logger.Nop()
	}

	sel := DefaultSelectors()
	if cfg.Selectors != nil {
		sel = *cfg.Selectors
	}

	return &Extractor{
		base:     base,
		fetcher:  fetcher,
		cacheSvc: cacheSvc,
		cacheTTL: cfg.CacheTTL,
		delay:    cfg.Delay,
		sel:      sel,
		log:      log,
	}, nil
}

// BaseURL returns the site root
func (e *Extractor) BaseURL() string {
	return e.base.String()
}

// Resolve turns href into an absolute URL on the site
func (e *Extractor) Resolve(href string) string {
	return helpers.ResolveURL(e.base, href)
}

// Extract parses an already fetched body in the given role
func (e *Extractor) Extract(role Role, body []byte, pageURL string) ([]model.RawRecord, error) {
	doc, err := parseDocument(body, pageURL)
	if err != nil {
		return nil, err
	}

	switch role {
	case RoleCategoryNav:
		return e.MainCategories(doc), nil
	case RoleProductList:
		return e.ExtractListProducts(doc), nil
	case RoleProductDetail:
		rec := e.ExtractProductDetail(doc, pageURL)
		if rec == nil {
			return nil, nil
		}
		return []model.RawRecord{rec}, nil
	default:
		return nil, apperrors.NewValidation(pageURL, "unknown page role: "+string(role))
	}
}

// fetchDocument returns the parsed page, serving the body from the page
// cache when possible. Cache failures fall back to a live fetch.
func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := e.fetchBody(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parseDocument(body, pageURL)
}

func (e *Extractor) fetchBody(ctx context.Context, pageURL string) ([]byte, error) {
	key := cache.PageKey(pageURL)
	if e.cacheSvc != nil && e.cacheTTL > 0 {
		body, err := e.cacheSvc.Get(key)
		switch {
		case err == nil:
			e.log.Debug().Str("url", pageURL).Msg("page served from cache")
			return body, nil
		case !errors.Is(err, cache.ErrMiss):
			e.log.Warn().Err(err).Str("url", pageURL).Msg("page cache lookup failed")
		}
	}

	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if e.cacheSvc != nil && e.cacheTTL > 0 {
		if err := e.cacheSvc.Set(key, body, e.cacheTTL); err != nil {
			e.log.Warn().Err(err).Str("url", pageURL).Msg("page cache store failed")
		}
	}
	return body, nil
}

// pause waits the courtesy delay between two requests of one call
func (e *Extractor) pause(ctx context.Context) {
	worker.Sleep(ctx, e.delay)
}

func parseDocument(body []byte, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewParsing(pageURL, "HTML parse error", err)
	}
	return doc, nil
}
