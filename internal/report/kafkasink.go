// internal/report/kafkasink.go
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietvo371/Binane-test/pkg/kafka"
)

// KafkaSink публикует события в топик Kafka в формате JSON.
// Ключ сообщения — символ, чтобы события одного символа попадали
// в одну партицию.
type KafkaSink struct {
	producer kafka.Producer
	topic    string
}

// NewKafkaSink создаёт синк поверх готового продьюсера.
func NewKafkaSink(p kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

// Emit сериализует событие и публикует его.
func (s *KafkaSink) Emit(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("kafkasink: marshal event: %w", err)
	}
	var key []byte
	if evt.Symbol != "" {
		key = []byte(evt.Symbol)
	}
	if err := s.producer.Publish(ctx, s.topic, key, payload); err != nil {
		return fmt.Errorf("kafkasink: publish: %w", err)
	}
	return nil
}
