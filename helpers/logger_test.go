package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileErrorLogger(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "crawl_errors.log")

	logger := NewFileErrorLogger(tmpFile)
	logger.LogError("category:son-moi", errors.New("test error"))
	logger.LogError("product:x", errors.New("second"))

	data, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[category:son-moi] test error")
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

type recordingLogger struct {
	scopes []string
}

func (r *recordingLogger) LogError(scope string, err error) {
	r.scopes = append(r.scopes, scope)
}

func TestErrorCollector(t *testing.T) {
	next := &recordingLogger{}
	c := NewErrorCollector(2, next)

	for i := range 3 {
		c.LogError(fmt.Sprintf("scope-%d", i), fmt.Errorf("failure %d", i))
	}
	c.LogError("ignored", nil)

	assert.Equal(t, 3, c.Total())
	assert.Equal(t, "(1 earlier errors omitted)\nscope-1: failure 1\nscope-2: failure 2", c.String())
	assert.Equal(t, []string{"scope-0", "scope-1", "scope-2"}, next.scopes)
}

func TestErrorCollectorEmpty(t *testing.T) {
	c := NewErrorCollector(0, nil)
	assert.Equal(t, "", c.String())
	assert.Equal(t, 0, c.Total())
}
