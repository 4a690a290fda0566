package helpers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastPathSegment(t *testing.T) {
	assert.Equal(t, "son-moi-maybelline", LastPathSegment("https://bestmua.vn/san-pham/son-moi-maybelline/"))
	assert.Equal(t, "kem-nen", LastPathSegment("/danh-muc/kem-nen?page=2"))
	assert.Equal(t, "", LastPathSegment("https://bestmua.vn/"))
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://bestmua.vn/danh-muc/son-moi")

	assert.Equal(t, "https://bestmua.vn/san-pham/x", ResolveURL(base, "/san-pham/x"))
	assert.Equal(t, "https://bestmua.vn/danh-muc/son-li", ResolveURL(base, "son-li"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", ResolveURL(base, "https://cdn.example.com/a.jpg"))
	assert.Equal(t, "", ResolveURL(base, "  "))
}

func TestWithQueryParam(t *testing.T) {
	assert.Equal(t, "https://bestmua.vn/danh-muc/son-moi?page=2", WithQueryParam("https://bestmua.vn/danh-muc/son-moi", "page", "2"))
	assert.Equal(t, "https://bestmua.vn/c?page=3&sort=new", WithQueryParam("https://bestmua.vn/c?sort=new&page=1", "page", "3"))
}

func TestSameHost(t *testing.T) {
	base, _ := url.Parse("https://bestmua.vn")

	assert.True(t, SameHost(base, "/danh-muc/x"))
	assert.True(t, SameHost(base, "https://www.bestmua.vn/x"))
	assert.False(t, SameHost(base, "https://facebook.com/bestmua"))
}
