package relayer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
	"github.com/davicafu/carstream/tests/mocks"
)

type fakeSink struct {
	batches [][]domain.PricedListingEvent
	err     error
}

func (s *fakeSink) LogBatch(ctx context.Context, events []domain.PricedListingEvent) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, events)
	return nil
}

func pricedEvent(registration string) domain.PricedListingEvent {
	return domain.PricedListingEvent{
		ListingEvent: domain.ListingEvent{
			Registration: registration,
			ListedAtUtc:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Price:        50000,
		CurrencyCode: "USD",
	}
}

func TestProcessBatch_ShipsNewRecords(t *testing.T) {
	audit := mocks.NewFakeAuditStore()
	require.NoError(t, audit.Append(context.Background(), pricedEvent("AAA")))
	require.NoError(t, audit.Append(context.Background(), pricedEvent("BBB")))

	sink := &fakeSink{}
	worker := NewReportWorker(auditLister{audit}, sink, time.Second, 10, zap.NewNop())

	worker.ProcessBatch(context.Background())

	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], 2)
}

func TestProcessBatch_DoesNotReshipSameRecords(t *testing.T) {
	audit := mocks.NewFakeAuditStore()
	require.NoError(t, audit.Append(context.Background(), pricedEvent("AAA")))

	sink := &fakeSink{}
	worker := NewReportWorker(auditLister{audit}, sink, time.Second, 10, zap.NewNop())

	worker.ProcessBatch(context.Background())
	worker.ProcessBatch(context.Background())

	assert.Len(t, sink.batches, 1, "el segundo ciclo no reenvía nada")
}

func TestProcessBatch_SinkFailureRetriesNextCycle(t *testing.T) {
	audit := mocks.NewFakeAuditStore()
	require.NoError(t, audit.Append(context.Background(), pricedEvent("AAA")))

	sink := &fakeSink{err: errors.New("clickhouse is down")}
	worker := NewReportWorker(auditLister{audit}, sink, time.Second, 10, zap.NewNop())

	worker.ProcessBatch(context.Background())
	assert.Empty(t, sink.batches)

	// El sink se recupera: el siguiente ciclo vuelve a intentarlo.
	sink.err = nil
	worker.ProcessBatch(context.Background())
	assert.Len(t, sink.batches, 1)
}

// auditLister adapta el fake de auditoría a la interfaz de lectura.
type auditLister struct {
	store *mocks.FakeAuditStore
}

func (l auditLister) List(ctx context.Context, limit int) ([]domain.PricedListingEvent, error) {
	records := l.store.All()
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records, nil
}
