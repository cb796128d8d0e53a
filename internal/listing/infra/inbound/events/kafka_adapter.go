package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler define la interfaz que debe cumplir cualquier consumidor de eventos.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// KafkaConsumerAdapter es el "oído" que escucha el topic de anuncios.
// Lleva cuenta de lo recibido y de los errores de lectura para que el
// log permita dimensionar el flujo de entrada.
type KafkaConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger

	received atomic.Int64
	readErrs atomic.Int64
}

func NewKafkaConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *KafkaConsumerAdapter {
	return &KafkaConsumerAdapter{
		reader:  reader,
		handler: handler,
		log:     log,
	}
}

// Start inicia el bucle de consumo de mensajes en una goroutine.
func (c *KafkaConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("🎧 Iniciando consumidor de Kafka...",
		zap.String("topic", c.reader.Config().Topic),
		zap.Strings("brokers", c.reader.Config().Brokers),
	)

	go func() {
		for {
			// ReadMessage es una llamada bloqueante.
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.",
						zap.String("topic", c.reader.Config().Topic),
						zap.Int64("received", c.received.Load()),
						zap.Int64("read_errors", c.readErrs.Load()),
					)
					return
				}
				c.log.Error("Error al leer mensaje de anuncio",
					zap.Int64("read_errors", c.readErrs.Add(1)), zap.Error(err))
				// Un broker caído devuelve errores en bucle; respiramos
				// antes de reintentar la lectura.
				time.Sleep(time.Second)
				continue
			}

			c.received.Add(1)
			c.log.Debug("Mensaje de anuncio recibido",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int64("received", c.received.Load()),
			)

			c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
		}
	}()
}
