package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStreamNotifier 把报警以 JSON 追加到 Redis Stream（XADD）
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	now    func() time.Time
}

// NewRedisStreamNotifier 创建 Redis Stream 通知器
func NewRedisStreamNotifier(client *redis.Client, stream string) *RedisStreamNotifier {
	return &RedisStreamNotifier{client: client, stream: stream, now: time.Now}
}

// NotifyAlert 发布报警到 Stream
func (n *RedisStreamNotifier) NotifyAlert(ctx context.Context, event *AlertEvent) error {
	_, err := PublishJSONToStream(ctx, n.client, n.stream, event, n.now())
	if err != nil {
		return fmt.Errorf("failed to publish alert to stream %s: %w", n.stream, err)
	}
	return nil
}

// PublishJSONToStream 发布 JSON 消息到 Redis Streams，返回消息 ID
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data interface{}, at time.Time) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": fmt.Sprintf("%d", at.Unix()),
		},
	}).Result()
}
