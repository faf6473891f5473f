// Package kafka 提供了向 Kafka 发布领域事件的生产者。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"smart-pdf-chatbot/internal/config"
	"smart-pdf-chatbot/pkg/events"
	"smart-pdf-chatbot/pkg/log"

	"github.com/segmentio/kafka-go"
)

// Producer 发布领域事件。
type Producer interface {
	Publish(ctx context.Context, event events.Event) error
	Close() error
}

// messageWriter 是 *kafka.Writer 中用到的方法。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaProducer struct {
	writer messageWriter
}

// NewProducer 按配置创建生产者；kafka.enabled 为 false 时返回 NopProducer。
// brokers 以逗号分隔。
func NewProducer(cfg config.KafkaConfig) Producer {
	if !cfg.Enabled || strings.TrimSpace(cfg.Brokers) == "" {
		log.Info("Kafka 未启用，事件不会发送")
		return NopProducer{}
	}
	var addrs []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(addrs...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &kafkaProducer{writer: w}
}

// Publish 以会话 ID 为 key 同步写入一条消息。
func (p *kafkaProducer) Publish(ctx context.Context, event events.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// NopProducer 丢弃所有事件。
type NopProducer struct{}

// Publish 实现 Producer。
func (NopProducer) Publish(context.Context, events.Event) error { return nil }

// Close 实现 Producer。
func (NopProducer) Close() error { return nil }
