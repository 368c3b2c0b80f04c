package publisher

import (
	"context"
	"encoding/base64"
	"strconv"

	"math/rand/v2"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher on Redis streams. Events are
// spread over streamCount shards under a common prefix so consumers
// can scale horizontally.
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Publish publishes an event to one of the briefing streams.
// The payload is base64 encoded before publishing.
func (p *RedisPublisher) Publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	// random stream name by streamCount
	// if streamCount is 10, stream name will be briefings:0 ~ briefings:9
	stream := p.streamPrefix + ":" + strconv.Itoa(rand.IntN(p.streamCount))

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return err
	}

	for _, stream := range streams {
		err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err()
		if err != nil {
			return err
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
