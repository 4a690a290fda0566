package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting responses from the site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML or structured data parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeValidation represents rejected records
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePersistence represents database errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeNotFound represents references to entities that do not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeExport represents dump writing or replay errors
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type    ErrorType
	Scope   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	scope := e.Scope
	if scope == "" {
		scope = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, scope, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, scope, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must abort the whole run
func (e *CrawlerError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeNotFound, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, scope, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Scope:   scope,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, scope, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(scope, retryAfter string) *CrawlerError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, scope, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, scope, message, err)
}

// NewValidation creates a new validation error
func NewValidation(scope, message string) *CrawlerError {
	return New(ErrorTypeValidation, scope, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(scope, message string, err error) *CrawlerError {
	return New(ErrorTypePersistence, scope, message, err)
}

// NewNotFound creates a new not-found error
func NewNotFound(scope, message string) *CrawlerError {
	return New(ErrorTypeNotFound, scope, message, nil)
}

// NewExport creates a new export error
func NewExport(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeExport, scope, message, err)
}

// NewCache creates a new cache error
func NewCache(scope, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, scope, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(scope, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, scope, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// TypeOf returns the ErrorType of the first CrawlerError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// Is reports whether err's chain contains a CrawlerError of the given type.
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
