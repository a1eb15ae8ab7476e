package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"crowdguard/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher MQTT 发布接口（便于测试替换）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTClient paho 客户端封装
type MQTTClient struct {
	client mqtt.Client
}

// NewMQTTClient 创建并连接 MQTT 客户端
func NewMQTTClient(cfg *config.MQTTConfig) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTClient{client: client}, nil
}

// Publish 发布消息
func (c *MQTTClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect 断开连接
func (c *MQTTClient) Disconnect() {
	c.client.Disconnect(250) // 250ms等待时间
}

// MQTTNotifier 报警发布到 <topicPrefix>/<zone_id>
type MQTTNotifier struct {
	publisher   Publisher
	topicPrefix string
	qos         byte
}

// NewMQTTNotifier 创建 MQTT 通知器
func NewMQTTNotifier(publisher Publisher, topicPrefix string, qos byte) *MQTTNotifier {
	return &MQTTNotifier{publisher: publisher, topicPrefix: topicPrefix, qos: qos}
}

// Topic 区域对应的主题
func (n *MQTTNotifier) Topic(zoneID string) string {
	return n.topicPrefix + "/" + zoneID
}

// NotifyAlert 发布报警
func (n *MQTTNotifier) NotifyAlert(_ context.Context, event *AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}
	return n.publisher.Publish(n.Topic(event.Alert.ZoneID), n.qos, false, payload)
}
