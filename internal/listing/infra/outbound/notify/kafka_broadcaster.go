package notify

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// KafkaBroadcaster retransmite el payload de notificación a un topic
// de Kafka para consumidores externos, particionado por matrícula.
type KafkaBroadcaster struct {
	writer *kafka.Writer
	log    *zap.Logger
}

var _ domain.Broadcaster = (*KafkaBroadcaster)(nil)

func NewKafkaBroadcaster(writer *kafka.Writer, log *zap.Logger) *KafkaBroadcaster {
	return &KafkaBroadcaster{writer: writer, log: log}
}

func (b *KafkaBroadcaster) Broadcast(ctx context.Context, evt domain.PricedListingEvent) error {
	data, err := NewNotification(evt).JSON()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.PartitionKey()),
		Value: data,
	}

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		b.log.Error("Error publishing to Kafka", zap.Error(err))
		return err
	}

	b.log.Debug("Event published successfully", zap.String("registration", evt.Registration))
	return nil
}

// MultiBroadcaster compone varios transportes de difusión. El fallo de
// uno se registra y no impide la entrega por los demás.
type MultiBroadcaster struct {
	targets []domain.Broadcaster
	log     *zap.Logger
}

var _ domain.Broadcaster = (*MultiBroadcaster)(nil)

func NewMultiBroadcaster(log *zap.Logger, targets ...domain.Broadcaster) *MultiBroadcaster {
	return &MultiBroadcaster{targets: targets, log: log}
}

func (m *MultiBroadcaster) Broadcast(ctx context.Context, evt domain.PricedListingEvent) error {
	for _, target := range m.targets {
		if err := target.Broadcast(ctx, evt); err != nil {
			m.log.Warn("⚠️ Fallo en un transporte de difusión",
				zap.String("registration", evt.Registration), zap.Error(err))
		}
	}
	return nil
}
