package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sjsage522/bestmuadata/internal/exporter"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/store"
	"sjsage522/bestmuadata/logger"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

var _ Extractor = (*mockExtractor)(nil)

// mockExtractor serves canned records keyed by page URL
type mockExtractor struct {
	mu          sync.Mutex
	categories  []model.RawRecord
	discoverErr error
	listings    map[string][]model.RawRecord
	listErrs    map[string]error
	details     map[string]model.RawRecord
	detailErrs  map[string]error
	panicOn     string
	detailCalls []string
}

func newMockExtractor() *mockExtractor {
	return &mockExtractor{
		listings:   map[string][]model.RawRecord{},
		listErrs:   map[string]error{},
		details:    map[string]model.RawRecord{},
		detailErrs: map[string]error{},
	}
}

func (m *mockExtractor) DiscoverCategories(ctx context.Context) ([]model.RawRecord, error) {
	if m.panicOn == "discover" {
		panic("navigation markup changed")
	}
	return copyRecords(m.categories), m.discoverErr
}

func (m *mockExtractor) ParseCategoryProducts(ctx context.Context, categoryURL string, maxPages int) ([]model.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn == categoryURL {
		panic("listing markup changed")
	}
	return copyRecords(m.listings[categoryURL]), m.listErrs[categoryURL]
}

func (m *mockExtractor) ParseProductDetail(ctx context.Context, productURL string) (model.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls = append(m.detailCalls, productURL)
	if err, ok := m.detailErrs[productURL]; ok {
		return nil, err
	}
	detail, ok := m.details[productURL]
	if !ok {
		return nil, nil
	}
	return copyRecord(detail), nil
}

func (m *mockExtractor) DetailCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.detailCalls...)
}

func copyRecord(r model.RawRecord) model.RawRecord {
	out := make(model.RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func copyRecords(recs []model.RawRecord) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, copyRecord(r))
	}
	return out
}

// mockPublisher records published reports
type mockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
	trims    int
}

func (p *mockPublisher) Publish(key string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = map[string][][]byte{}
	}
	p.messages[key] = append(p.messages[key], message)
	return nil
}

func (p *mockPublisher) TrimStreams() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trims++
	return nil
}

func (p *mockPublisher) Close() error { return nil }

// harness wires an orchestrator to an in-memory store and a temp export dir
type harness struct {
	orch      *Orchestrator
	store     *store.Store
	exporter  *exporter.Exporter
	extractor *mockExtractor
}

func newHarness(t *testing.T, cfg Config, ext *mockExtractor, deps Dependencies) *harness {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, "sqlite:///:memory:", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exp, err := exporter.New(s, t.TempDir(), logger.Nop())
	require.NoError(t, err)

	deps.Extractor = ext
	deps.Store = s
	deps.Exporter = exp
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	o, err := New(cfg, deps)
	require.NoError(t, err)

	runs := 0
	o.newRunID = func() string {
		runs++
		return fmt.Sprintf("run-%d", runs)
	}
	return &harness{orch: o, store: s, exporter: exp, extractor: ext}
}

// lastSession returns the most recent crawl session
func (h *harness) lastSession(t *testing.T) model.CrawlSession {
	t.Helper()
	sessions, err := h.store.RecentSessions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	return sessions[0]
}

func category(name, slug, parent string) model.RawRecord {
	rec := model.RawRecord{
		model.KeyName: name,
		model.KeySlug: slug,
		model.KeyURL:  "https://bestmua.vn/danh-muc/" + slug,
	}
	if parent != "" {
		rec[model.KeyParentSlug] = parent
	}
	return rec
}

func listed(name, slug string, price float64) model.RawRecord {
	return model.RawRecord{
		model.KeyName:  name,
		model.KeySlug:  slug,
		model.KeyURL:   "https://bestmua.vn/san-pham/" + slug,
		model.KeyPrice: price,
	}
}

func productURL(slug string) string {
	return "https://bestmua.vn/san-pham/" + slug
}

func categoryURL(slug string) string {
	return "https://bestmua.vn/danh-muc/" + slug
}

var errUpstream = apperrors.NewNetwork("bestmua.vn", "unexpected status code: 503", nil)
