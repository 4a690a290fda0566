package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "sjsage522/bestmuadata/pkg/errors"
	"sjsage522/bestmuadata/services/cache"
)

const testBaseURL = "https://bestmua.vn"

var _ Fetcher = (*mockFetcher)(nil)
var _ cache.CacheService = (*MockCacheService)(nil)

// mockFetcher serves canned pages and records every requested URL
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func newMockFetcher(pages map[string]string) *mockFetcher {
	return &mockFetcher{pages: pages, errs: map[string]error{}}
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	body, ok := m.pages[url]
	if !ok {
		return nil, apperrors.NewNetwork(url, "unexpected status code: 404", nil)
	}
	return []byte(body), nil
}

func (m *mockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu     sync.Mutex
	cache  map[string][]byte
	getErr error
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{cache: make(map[string][]byte)}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

var errBackendDown = errors.New("connection refused")

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func newTestExtractor(t *testing.T, fetcher Fetcher, cacheSvc cache.CacheService) *Extractor {
	t.Helper()
	e, err := New(Config{BaseURL: testBaseURL, CacheTTL: time.Minute}, fetcher, cacheSvc, nil)
	require.NoError(t, err)
	return e
}
