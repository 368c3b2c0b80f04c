package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Publisher = (*RedisPublisher)(nil)

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	pub := NewRedisPublisher(ctx, "localhost:6379", 0, "test_briefings", 1, 100)
	defer pub.Close()

	// Create a subscriber to verify the event was published
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	// Test if Redis is available
	_, err := client.Ping(ctx).Result()
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	err = client.XGroupCreateMkStream(ctx, "test_briefings:0", "test_group", "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		panic(err)
	}

	messages := make(chan string, 1)

	go func() {
		message, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Streams:  []string{"test_briefings:0", ">"},
			Group:    "test_group",
			Consumer: "test_consumer",
			Block:    0,
		}).Result()
		assert.NoError(t, err)
		messages <- message[0].Messages[0].Values["테스트"].(string)
	}()

	time.Sleep(100 * time.Millisecond)

	event := CaptureEvent{
		Keyword:     "테스트",
		ChannelName: "삼프로TV",
		VideoID:     "live111",
		URL:         "https://www.youtube.com/watch?v=live111",
		IsLive:      true,
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = pub.Publish("테스트", payload)
	assert.NoError(t, err)

	select {
	case msg := <-messages:
		// The payload should be base64 encoded
		decoded, err := base64.StdEncoding.DecodeString(msg)
		require.NoError(t, err)

		var got CaptureEvent
		require.NoError(t, json.Unmarshal(decoded, &got))
		assert.Equal(t, event, got)
	case <-time.After(1 * time.Second):
		t.Error("Timed out waiting for event")
	}
}
