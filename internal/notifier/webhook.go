package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier 以 HTTP POST 推送报警（网络错误和 5xx 自动重试）
type WebhookNotifier struct {
	url        string
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 Webhook 通知器
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryOnServerError).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{url: url, httpClient: client, logger: logger}
}

// WithRetry 调整重试次数和退避区间
func (n *WebhookNotifier) WithRetry(count int, wait, maxWait time.Duration) *WebhookNotifier {
	n.httpClient.
		SetRetryCount(count).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait)
	return n
}

// retryOnServerError 4xx 是请求本身的问题，不重试
func retryOnServerError(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return r != nil && r.StatusCode() >= http.StatusInternalServerError
}

// NotifyAlert POST 报警 JSON
func (n *WebhookNotifier) NotifyAlert(ctx context.Context, event *AlertEvent) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to post alert webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode())
	}

	n.logger.Debug("Alert webhook delivered",
		zap.String("alert_id", event.Alert.AlertID),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
