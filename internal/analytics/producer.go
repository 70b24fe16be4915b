package analytics

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventMovePlayed   = "move_played"
	EventGameFinished = "game_finished"
)

// Producer publishes game events to Kafka fire-and-forget. A nil producer
// is a no-op so the server runs without a broker.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, event string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	body := map[string]any{
		"event":     event,
		"payload":   payload,
		"timestamp": time.Now().UTC(),
	}
	data, _ := json.Marshal(body)
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		log.Printf("kafka publish failed: %v", err)
	}
}

func (p *Producer) Close() {
	if p == nil || p.writer == nil {
		return
	}
	_ = p.writer.Close()
}
