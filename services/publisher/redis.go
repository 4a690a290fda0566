package publisher

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher on a redis stream
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	stream          string
	streamMaxLength int64
}

// NewRedisPublisher creates a publisher appending to stream on the server at addr
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, streamMaxLength int64) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return NewRedisPublisherFromClient(ctx, client, stream, streamMaxLength)
}

// NewRedisPublisherFromClient wraps an existing client
func NewRedisPublisherFromClient(ctx context.Context, client *redis.Client, stream string, streamMaxLength int64) *RedisPublisher {
	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		stream:          stream,
		streamMaxLength: streamMaxLength,
	}
}

// Publish adds one entry to the stream holding message under key and the
// publish time under "published_at".
func (p *RedisPublisher) Publish(key string, message []byte) error {
	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key:            string(message),
			"published_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
}

// TrimStreams trims the stream to the configured maximum length.
// A non-positive length disables trimming.
func (p *RedisPublisher) TrimStreams() error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	return p.client.XTrimMaxLen(p.ctx, p.stream, p.streamMaxLength).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
