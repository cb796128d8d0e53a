package events

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// RabbitConsumerAdapter escucha la cola de anuncios en RabbitMQ, el
// transporte de suscripción clásico de este sistema. Usa ack manual:
// un mensaje malformado se descarta sin reencolar y un mensaje que no
// pudo entrar al pipeline se reencola para otra entrega.
type RabbitConsumerAdapter struct {
	conn      *amqp.Connection
	queue     string
	submitter Submitter
	log       *zap.Logger
}

func NewRabbitConsumerAdapter(conn *amqp.Connection, queue string, submitter Submitter, log *zap.Logger) *RabbitConsumerAdapter {
	return &RabbitConsumerAdapter{
		conn:      conn,
		queue:     queue,
		submitter: submitter,
		log:       log,
	}
}

// Start declara la cola e inicia el bucle de consumo en una goroutine.
func (a *RabbitConsumerAdapter) Start(ctx context.Context) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(a.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return err
	}

	// Un mensaje en vuelo por worker del pipeline es suficiente.
	if err := ch.Qos(8, 0, false); err != nil {
		ch.Close()
		return err
	}

	deliveries, err := ch.Consume(a.queue, "carstream-relay", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return err
	}

	a.log.Info("🎧 Iniciando consumidor de RabbitMQ...", zap.String("queue", a.queue))

	go func() {
		defer ch.Close()

		for {
			select {
			case <-ctx.Done():
				a.log.Info("Consumidor de RabbitMQ detenido.", zap.String("queue", a.queue))
				return
			case delivery, ok := <-deliveries:
				if !ok {
					a.log.Warn("Canal de RabbitMQ cerrado por el broker")
					return
				}
				a.handleDelivery(ctx, delivery)
			}
		}
	}()

	return nil
}

func (a *RabbitConsumerAdapter) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	evt, err := domain.DecodeListingEvent(delivery.Body)
	if err != nil {
		a.log.Warn("Mensaje de anuncio malformado, descartado sin reencolar", zap.Error(err))
		_ = delivery.Nack(false, false)
		return
	}

	if err := a.submitter.Submit(ctx, evt); err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			_ = delivery.Nack(false, false)
			return
		}
		// Pipeline cerrado o contexto cancelado: otra instancia podrá
		// procesar la reentrega.
		a.log.Info("No se pudo encolar el mensaje, reencolado",
			zap.String("registration", evt.Registration), zap.Error(err))
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}
