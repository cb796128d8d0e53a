package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
	sharedEvents "github.com/davicafu/carstream/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/carstream/internal/shared/infra/utils"
)

// Submitter es el puerto de entrada al pipeline (lo implementa el
// RelayCoordinator).
type Submitter interface {
	Submit(ctx context.Context, evt domain.ListingEvent) error
}

// ListingConsumer es el "cerebro" que procesa los mensajes de anuncio
// llegados por cualquier transporte de suscripción. El registro de
// eventos decide qué tipos del sobre de integración acepta.
type ListingConsumer struct {
	submitter Submitter
	registry  map[string]sharedEvents.EventMetadata
	log       *zap.Logger
}

func NewListingConsumer(submitter Submitter, log *zap.Logger) *ListingConsumer {
	return &ListingConsumer{
		submitter: submitter,
		registry:  domain.NewEventRegistry(),
		log:       log,
	}
}

// HandleMessage decodifica el payload y lo entrega al pipeline. Acepta
// tanto el sobre de integración {type, timestamp, data} como el
// envelope del anuncio a pelo. Un payload malformado se registra y se
// descarta: nunca entró al pipeline, no hay dead-letter.
func (c *ListingConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err == nil && base.Type != "" {
		meta, known := c.registry[base.Type]
		if !known {
			c.log.Warn("Unknown event type", zap.String("type", base.Type))
			return
		}
		if base.Type != domain.ListingCreated || meta.Type != reflect.TypeOf(domain.ListingEvent{}) {
			c.log.Debug("Tipo de evento ignorado por este consumidor",
				zap.String("type", base.Type), zap.String("topic", meta.Topic))
			return
		}

		sharedUtils.UnmarshalAndHandle(c.log, base.Data, func(evt domain.ListingEvent) {
			c.submit(ctx, evt)
		})
		return
	}

	evt, err := domain.DecodeListingEvent(payload)
	if err != nil {
		c.log.Warn("Mensaje de anuncio malformado, descartado",
			zap.String("key", key), zap.Error(err))
		return
	}

	c.submit(ctx, evt)
}

func (c *ListingConsumer) submit(ctx context.Context, evt domain.ListingEvent) {
	if err := c.submitter.Submit(ctx, evt); err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedEvent):
			c.log.Warn("Mensaje de anuncio malformado, descartado",
				zap.String("registration", evt.Registration), zap.Error(err))
		case errors.Is(err, domain.ErrPipelineClosed):
			c.log.Info("Pipeline cerrado, mensaje descartado",
				zap.String("registration", evt.Registration))
		default:
			c.log.Warn("Failed to submit listing event",
				zap.String("registration", evt.Registration), zap.Error(err))
		}
	}
}
