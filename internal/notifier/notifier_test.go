package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crowdguard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEvent() *AlertEvent {
	return &AlertEvent{
		Alert: models.Alert{
			AlertID:  "a-1",
			ZoneID:   "Z01",
			Severity: models.SeverityHigh,
			Time:     time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
			Status:   models.AlertActive,
		},
		Zone:        models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300},
		PeopleCount: 310,
	}
}

// ============================================
// Redis Stream
// ============================================

func TestRedisStreamNotifier_XAdd(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	n := NewRedisStreamNotifier(client, "crowdguard:alerts")
	require.NoError(t, n.NotifyAlert(context.Background(), testEvent()))

	msgs, err := client.XRange(context.Background(), "crowdguard:alerts", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var decoded AlertEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &decoded))
	assert.Equal(t, "a-1", decoded.Alert.AlertID)
	assert.Equal(t, 310, decoded.PeopleCount)
	assert.NotEmpty(t, msgs[0].Values["timestamp"])
}

// ============================================
// MQTT
// ============================================

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestMQTTNotifier_PublishesToZoneTopic(t *testing.T) {
	pub := &fakePublisher{}
	n := NewMQTTNotifier(pub, "crowdguard/alerts", 1)

	require.NoError(t, n.NotifyAlert(context.Background(), testEvent()))

	require.Len(t, pub.topics, 1)
	assert.Equal(t, "crowdguard/alerts/Z01", pub.topics[0])

	var decoded AlertEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, models.SeverityHigh, decoded.Alert.Severity)
}

// ============================================
// Webhook
// ============================================

func TestWebhookNotifier_Success(t *testing.T) {
	var received AlertEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, zap.NewNop())
	require.NoError(t, n.NotifyAlert(context.Background(), testEvent()))
	assert.Equal(t, "a-1", received.Alert.AlertID)
	assert.Equal(t, "Main Gate", received.Zone.LocationName)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantHits int32
	}{
		{"client error is not retried", http.StatusBadRequest, 1},
		{"server error is retried", http.StatusInternalServerError, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			n := NewWebhookNotifier(srv.URL, zap.NewNop()).WithRetry(3, time.Millisecond, 5*time.Millisecond)
			err := n.NotifyAlert(context.Background(), testEvent())
			require.Error(t, err)
			assert.Contains(t, err.Error(), strconv.Itoa(tt.status))
			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
		})
	}
}

func TestWebhookNotifier_RecoversAfterServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, zap.NewNop()).WithRetry(3, time.Millisecond, 5*time.Millisecond)
	require.NoError(t, n.NotifyAlert(context.Background(), testEvent()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

// ============================================
// Multi
// ============================================

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	failing := NewMQTTNotifier(&fakePublisher{err: errors.New("broker down")}, "p", 0)
	ok := &fakePublisher{}
	m := NewMulti(zap.NewNop(), failing, nil, NewMQTTNotifier(ok, "p", 0))

	assert.Equal(t, 2, m.Len())
	err := m.NotifyAlert(context.Background(), testEvent())
	assert.Error(t, err)
	assert.Len(t, ok.topics, 1)
}

func TestMulti_Empty(t *testing.T) {
	m := NewMulti(zap.NewNop())
	assert.NoError(t, m.NotifyAlert(context.Background(), testEvent()))
}
