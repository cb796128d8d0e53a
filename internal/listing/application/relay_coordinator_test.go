package application

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
	"github.com/davicafu/carstream/internal/shared/infra/guard"
	"github.com/davicafu/carstream/tests/mocks"
)

// harness agrupa el coordinador y sus colaboradores falsos.
type harness struct {
	coordinator *RelayCoordinator
	validator   *mocks.FakeValidator
	pricer      *mocks.FakePricer
	audit       *mocks.FakeAuditStore
	broadcast   *mocks.FakeBroadcaster
	deadLetters *mocks.FakeDeadLetterStore
	remover     *mocks.FakeRemover
	guard       *guard.InMemoryGuard
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		validator:   mocks.NewFakeValidator(),
		pricer:      mocks.NewFakePricer(50000, "USD"),
		audit:       mocks.NewFakeAuditStore(),
		broadcast:   &mocks.FakeBroadcaster{},
		deadLetters: &mocks.FakeDeadLetterStore{},
		remover:     &mocks.FakeRemover{},
		guard:       guard.NewInMemoryGuard(time.Minute, time.Minute),
	}
	t.Cleanup(h.guard.Stop)

	h.coordinator = NewRelayCoordinator(
		h.validator, h.pricer, h.audit, h.broadcast, h.deadLetters, h.guard, h.remover,
		Config{
			Workers:     2,
			QueueSize:   16,
			RetryBase:   time.Millisecond, // backoff corto para los tests
			RetryMax:    3,
			CallTimeout: time.Second,
		},
		zap.NewNop(),
	)
	h.coordinator.Start()
	return h
}

func (h *harness) close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.coordinator.Close(ctx))
}

func delorean() domain.ListingEvent {
	return domain.ListingEvent{
		Registration: "OUTATIME",
		Manufacturer: "DMC",
		ModelCode:    "dmc-delorean",
		ModelName:    "DeLorean",
		Color:        "Silver",
		Year:         1985,
		ListedAtUtc:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSubmit_EndToEnd(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.coordinator.Submit(context.Background(), delorean()))
	h.close(t)

	records := h.audit.All()
	require.Len(t, records, 1)
	assert.Equal(t, "OUTATIME", records[0].Registration)
	assert.Equal(t, "DMC", records[0].Manufacturer)
	assert.Equal(t, "dmc-delorean", records[0].ModelCode)
	assert.Equal(t, "Silver", records[0].Color)
	assert.Equal(t, 1985, records[0].Year)
	assert.Equal(t, 50000, records[0].Price)
	assert.Equal(t, "USD", records[0].CurrencyCode)
	assert.False(t, records[0].WrittenOff)

	broadcasts := h.broadcast.All()
	require.Len(t, broadcasts, 1)
	assert.Equal(t, "OUTATIME", broadcasts[0].Registration)
	assert.Equal(t, 50000, broadcasts[0].Price)
	assert.Equal(t, "USD", broadcasts[0].CurrencyCode)
}

func TestSubmit_Malformed_SynchronousRejection(t *testing.T) {
	h := newHarness(t)

	err := h.coordinator.Submit(context.Background(), domain.ListingEvent{Color: "Red"})
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	h.close(t)

	// Sin efectos colaterales de ningún tipo.
	assert.Empty(t, h.audit.All())
	assert.Empty(t, h.broadcast.All())
	assert.Empty(t, h.deadLetters.Letters)
	assert.Empty(t, h.validator.Calls)
}

func TestSubmit_DuplicateProducesOneResult(t *testing.T) {
	h := newHarness(t)

	evt := delorean()
	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	h.close(t)

	assert.Len(t, h.audit.All(), 1, "un solo registro de auditoría por (registration, listedAtUtc)")
	assert.Len(t, h.broadcast.All(), 1, "una sola notificación por (registration, listedAtUtc)")
}

func TestSubmit_Stolen_DiscardedAndDeleted(t *testing.T) {
	h := newHarness(t)

	evt := delorean()
	evt.Registration = "STOLEN1"
	h.validator.Statuses["STOLEN1"] = domain.StatusStolen

	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	h.close(t)

	assert.Empty(t, h.audit.All())
	assert.Empty(t, h.broadcast.All())
	assert.Equal(t, []string{"STOLEN1"}, h.remover.All())
	assert.Zero(t, h.pricer.Calls, "un vehículo robado nunca llega a la tasación")
}

func TestSubmit_StolenDuplicate_DeletesOnce(t *testing.T) {
	h := newHarness(t)

	evt := delorean()
	evt.Registration = "STOLEN1"
	h.validator.Statuses["STOLEN1"] = domain.StatusStolen

	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	h.close(t)

	assert.Equal(t, []string{"STOLEN1"}, h.remover.All(), "el borrado se invoca exactamente una vez")
}

func TestSubmit_WrittenOff_AlternatePricing(t *testing.T) {
	h := newHarness(t)

	evt := delorean()
	h.validator.Statuses["OUTATIME"] = domain.StatusWrittenOff

	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	h.close(t)

	records := h.audit.All()
	require.Len(t, records, 1)
	assert.True(t, records[0].WrittenOff)
	assert.Equal(t, domain.WriteOffPrice(50000), records[0].Price)
}

func TestSubmit_Invalid_DeadLettered(t *testing.T) {
	h := newHarness(t)

	evt := delorean()
	h.validator.Statuses["OUTATIME"] = domain.StatusInvalid

	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	h.close(t)

	assert.Empty(t, h.audit.All())
	assert.Empty(t, h.broadcast.All())
	require.Len(t, h.deadLetters.Letters, 1)
	assert.Equal(t, domain.ErrVehicleInvalid.Error(), h.deadLetters.Letters[0].Reason)
	assert.Len(t, h.validator.Calls, 1, "INVALID es terminal, no se reintenta")
}

func TestSubmit_PricingRetriesThenSucceeds(t *testing.T) {
	h := newHarness(t)
	h.pricer.FailTimes = 2 // falla dos veces, la tercera responde

	require.NoError(t, h.coordinator.Submit(context.Background(), delorean()))
	h.close(t)

	assert.Len(t, h.audit.All(), 1, "exactamente un evento tasado")
	assert.Len(t, h.broadcast.All(), 1)
	assert.Equal(t, 3, h.pricer.Calls)
}

func TestSubmit_PricingExhausted_DeadLettered(t *testing.T) {
	h := newHarness(t)
	h.pricer.FailTimes = 10 // más fallos que intentos

	require.NoError(t, h.coordinator.Submit(context.Background(), delorean()))
	h.close(t)

	assert.Empty(t, h.audit.All())
	assert.Empty(t, h.broadcast.All())
	require.Len(t, h.deadLetters.Letters, 1)
	assert.Equal(t, domain.ErrPricingUnavailable.Error(), h.deadLetters.Letters[0].Reason)
	assert.Equal(t, 3, h.pricer.Calls, "se respeta el máximo de intentos configurado")
}

func TestSubmit_ValidatorExhausted_DeadLettered(t *testing.T) {
	h := newHarness(t)
	h.validator.FailTimes = 10

	require.NoError(t, h.coordinator.Submit(context.Background(), delorean()))
	h.close(t)

	// Un validador inalcanzable nunca se trata como OK.
	assert.Empty(t, h.audit.All())
	require.Len(t, h.deadLetters.Letters, 1)
	assert.Equal(t, domain.ErrValidationUnavailable.Error(), h.deadLetters.Letters[0].Reason)
	assert.Zero(t, h.pricer.Calls)
}

func TestSubmit_AuditFailureDoesNotBlockBroadcast(t *testing.T) {
	h := newHarness(t)
	h.audit.Fail = true

	require.NoError(t, h.coordinator.Submit(context.Background(), delorean()))
	h.close(t)

	assert.Empty(t, h.audit.All())
	require.Len(t, h.broadcast.All(), 1, "la notificación sale aunque la auditoría falle")
	assert.Equal(t, 50000, h.broadcast.All()[0].Price)
}

func TestSubmit_ValidationDisabled(t *testing.T) {
	h := newHarness(t)
	// Reconstruimos el coordinador sin validador; el de serie se para
	// primero para no dejar workers colgando.
	h.close(t)
	h.coordinator = NewRelayCoordinator(
		nil, h.pricer, h.audit, h.broadcast, h.deadLetters, h.guard, h.remover,
		Config{Workers: 1, QueueSize: 4, RetryBase: time.Millisecond, RetryMax: 3, CallTimeout: time.Second},
		zap.NewNop(),
	)
	h.coordinator.Start()

	require.NoError(t, h.coordinator.Submit(context.Background(), delorean()))
	h.close(t)

	assert.Len(t, h.audit.All(), 1)
	assert.Empty(t, h.validator.Calls)
}

func TestSubmit_AfterClose_Rejected(t *testing.T) {
	h := newHarness(t)
	h.close(t)

	err := h.coordinator.Submit(context.Background(), delorean())
	assert.ErrorIs(t, err, domain.ErrPipelineClosed)
}

func TestClose_DrainsQueuedEvents(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 10; i++ {
		evt := delorean()
		evt.ListedAtUtc = evt.ListedAtUtc.Add(time.Duration(i) * time.Hour)
		require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	}
	h.close(t)

	assert.Len(t, h.audit.All(), 10, "el cierre drena todo lo encolado")
}

func TestSubmit_ParallelRegistrations(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 20; i++ {
		evt := delorean()
		evt.Registration = "REG-" + string(rune('A'+i))
		require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	}
	h.close(t)

	assert.Len(t, h.audit.All(), 20)
	assert.Len(t, h.broadcast.All(), 20)
}

func TestSubmit_StolenRemoverFails_RedeliveryRetries(t *testing.T) {
	h := newHarness(t)

	evt := delorean()
	evt.Registration = "STOLEN1"
	h.validator.Statuses["STOLEN1"] = domain.StatusStolen
	h.remover.FailTimes = 1

	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	// Reentrega del mismo evento: la clave quedó liberada tras el fallo
	// del borrado, así que no puede deduplicarse.
	require.NoError(t, h.coordinator.Submit(context.Background(), evt))
	h.close(t)

	assert.Equal(t, []string{"STOLEN1"}, h.remover.All(), "la reentrega completa el borrado pendiente")
	assert.Equal(t, 2, h.remover.Calls)
	assert.Empty(t, h.audit.All())
}

func TestClose_ConcurrentSubmit_NoAcceptedEventLost(t *testing.T) {
	// Submits en paralelo con el cierre: todo Submit que devuelve nil
	// tiene que terminar en exactamente un registro de auditoría.
	for iter := 0; iter < 50; iter++ {
		h := newHarness(t)

		var accepted int64
		var wg sync.WaitGroup
		for s := 0; s < 4; s++ {
			wg.Add(1)
			go func(s int) {
				defer wg.Done()
				for j := 0; ; j++ {
					evt := delorean()
					evt.Registration = fmt.Sprintf("REG-%d-%d", s, j)
					if err := h.coordinator.Submit(context.Background(), evt); err != nil {
						return
					}
					atomic.AddInt64(&accepted, 1)
				}
			}(s)
		}

		runtime.Gosched()
		h.close(t)
		wg.Wait()

		assert.Len(t, h.audit.All(), int(accepted),
			"todo evento aceptado produce su registro de auditoría")
	}
}
