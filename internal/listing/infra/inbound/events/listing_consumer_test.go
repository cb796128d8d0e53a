package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// fakeSubmitter captura lo que llega al pipeline.
type fakeSubmitter struct {
	mu     sync.Mutex
	events []domain.ListingEvent
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, evt domain.ListingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeSubmitter) all() []domain.ListingEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ListingEvent(nil), f.events...)
}

func TestHandleMessage_RawEnvelope(t *testing.T) {
	submitter := &fakeSubmitter{}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	payload := []byte(`{"registration":"OUTATIME","manufacturer":"DMC","modelCode":"dmc-delorean","year":1985,"listedAtUtc":"2024-01-01T00:00:00Z"}`)
	consumer.HandleMessage(context.Background(), "OUTATIME", payload)

	events := submitter.all()
	assert.Len(t, events, 1)
	assert.Equal(t, "OUTATIME", events[0].Registration)
}

func TestHandleMessage_IntegrationEnvelope(t *testing.T) {
	submitter := &fakeSubmitter{}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	payload := []byte(`{
		"type": "listing.created",
		"timestamp": "2024-01-01T00:00:01Z",
		"data": {"registration":"OUTATIME","year":1985,"listedAtUtc":"2024-01-01T00:00:00Z"}
	}`)
	consumer.HandleMessage(context.Background(), "", payload)

	events := submitter.all()
	assert.Len(t, events, 1)
	assert.Equal(t, "OUTATIME", events[0].Registration)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), events[0].ListedAtUtc)
}

func TestHandleMessage_UnknownTypeIgnored(t *testing.T) {
	submitter := &fakeSubmitter{}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	consumer.HandleMessage(context.Background(), "", []byte(`{"type":"user.created","data":{}}`))
	assert.Empty(t, submitter.all())
}

func TestHandleMessage_MalformedDiscarded(t *testing.T) {
	submitter := &fakeSubmitter{}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	consumer.HandleMessage(context.Background(), "", []byte(`{"color":"Red"}`))
	consumer.HandleMessage(context.Background(), "", []byte(`not even json`))

	assert.Empty(t, submitter.all(), "un mensaje malformado nunca entra al pipeline")
}

func TestHandleMessage_PipelineClosedIsQuiet(t *testing.T) {
	submitter := &fakeSubmitter{err: domain.ErrPipelineClosed}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	payload := []byte(`{"registration":"OUTATIME","year":1985,"listedAtUtc":"2024-01-01T00:00:00Z"}`)
	assert.NotPanics(t, func() {
		consumer.HandleMessage(context.Background(), "", payload)
	})
}

func TestHandleMessage_KnownButForeignTypeIgnored(t *testing.T) {
	submitter := &fakeSubmitter{}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	// listing.priced está en el registro pero no es un evento que este
	// consumidor entregue al pipeline.
	payload := []byte(`{
		"type": "listing.priced",
		"data": {"registration":"OUTATIME","year":1985,"listedAtUtc":"2024-01-01T00:00:00Z","price":50000}
	}`)
	consumer.HandleMessage(context.Background(), "", payload)

	assert.Empty(t, submitter.all())
}

func TestHandleMessage_EnvelopeWithMalformedData(t *testing.T) {
	submitter := &fakeSubmitter{err: domain.ErrMalformedEvent}
	consumer := NewListingConsumer(submitter, zap.NewNop())

	payload := []byte(`{"type":"listing.created","data":{"color":"Red"}}`)
	assert.NotPanics(t, func() {
		consumer.HandleMessage(context.Background(), "", payload)
	})
	assert.Empty(t, submitter.all())
}
