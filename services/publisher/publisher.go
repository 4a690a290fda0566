package publisher

// Publisher represents a service for publishing crawl session reports
type Publisher interface {
	// Publish appends a message to the report stream under the given field
	Publish(key string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
