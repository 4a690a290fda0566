package helpers

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrorLogger records crawl failures scoped to a category, product or run
type ErrorLogger interface {
	LogError(scope string, err error)
}

// FileErrorLogger appends timestamped errors to a file
type FileErrorLogger struct {
	mu        sync.Mutex
	errorFile string
}

// NewFileErrorLogger creates a logger writing to errorFile
func NewFileErrorLogger(errorFile string) *FileErrorLogger {
	return &FileErrorLogger{
		errorFile: errorFile,
	}
}

// LogError logs an error to a file with its scope and timestamp
func (l *FileErrorLogger) LogError(scope string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		fmt.Fprintf(os.Stderr, "error log open failed: %v\n", fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, scope, err.Error())
}

// ErrorCollector keeps the most recent errors in memory and forwards each to
// an optional ErrorLogger.
type ErrorCollector struct {
	mu      sync.Mutex
	limit   int
	total   int
	entries []string
	next    ErrorLogger
}

// NewErrorCollector keeps at most limit messages. next may be nil.
func NewErrorCollector(limit int, next ErrorLogger) *ErrorCollector {
	return &ErrorCollector{limit: limit, next: next}
}

// LogError records err under scope
func (c *ErrorCollector) LogError(scope string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.total++
	c.entries = append(c.entries, fmt.Sprintf("%s: %v", scope, err))
	if c.limit > 0 && len(c.entries) > c.limit {
		c.entries = c.entries[len(c.entries)-c.limit:]
	}
	c.mu.Unlock()

	if c.next != nil {
		c.next.LogError(scope, err)
	}
}

// Total returns how many errors were recorded, including dropped ones
func (c *ErrorCollector) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// String joins the retained messages one per line
func (c *ErrorCollector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	if dropped := c.total - len(c.entries); dropped > 0 {
		fmt.Fprintf(&b, "(%d earlier errors omitted)\n", dropped)
	}
	b.WriteString(strings.Join(c.entries, "\n"))
	return b.String()
}
