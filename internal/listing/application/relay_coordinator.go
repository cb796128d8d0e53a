package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
	sharedUtils "github.com/davicafu/carstream/internal/shared/infra/utils"
)

// Config agrupa los parámetros de funcionamiento del coordinador.
type Config struct {
	Workers     int           // tamaño del pool de workers
	QueueSize   int           // capacidad de la cola de entrada
	RetryBase   time.Duration // espera inicial del backoff exponencial
	RetryMax    int           // intentos máximos contra colaboradores
	CallTimeout time.Duration // timeout por llamada externa
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 5
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 2 * time.Second
	}
	return c
}

// RelayCoordinator orquesta el pipeline de relevo de anuncios:
// validación de estado (opcional) → tasación → auditoría + broadcast.
// Submit encola y vuelve; un pool fijo de workers procesa la cola.
type RelayCoordinator struct {
	validator   domain.StatusValidator // nil => etapa desactivada
	pricer      domain.PriceLookup
	audit       domain.AuditStore
	broadcaster domain.Broadcaster
	deadLetters domain.DeadLetterStore
	guard       domain.IdempotenceGuard
	remover     domain.ListingRemover
	cfg         Config
	log         *zap.Logger

	queue chan domain.ListingEvent
	quit  chan struct{}
	wg    sync.WaitGroup

	// mu hace mutuamente excluyentes la aceptación y el cierre: un
	// Submit que devolvió nil encoló antes de que quit se cerrara y los
	// workers drenarán su evento.
	mu     sync.RWMutex
	closed bool

	// workerCtx se cancela solo si el drenaje agota su plazo.
	workerCtx    context.Context
	workerCancel context.CancelFunc

	stopOnce sync.Once
}

// NewRelayCoordinator construye el coordinador. El validador puede ser
// nil para desactivar la etapa de validación de estado.
func NewRelayCoordinator(
	validator domain.StatusValidator,
	pricer domain.PriceLookup,
	audit domain.AuditStore,
	broadcaster domain.Broadcaster,
	deadLetters domain.DeadLetterStore,
	guard domain.IdempotenceGuard,
	remover domain.ListingRemover,
	cfg Config,
	log *zap.Logger,
) *RelayCoordinator {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &RelayCoordinator{
		validator:    validator,
		pricer:       pricer,
		audit:        audit,
		broadcaster:  broadcaster,
		deadLetters:  deadLetters,
		guard:        guard,
		remover:      remover,
		cfg:          cfg,
		log:          log,
		queue:        make(chan domain.ListingEvent, cfg.QueueSize),
		quit:         make(chan struct{}),
		workerCtx:    ctx,
		workerCancel: cancel,
	}
}

// Start arranca el pool de workers.
func (rc *RelayCoordinator) Start() {
	rc.log.Info("🚀 Relay coordinator iniciado",
		zap.Int("workers", rc.cfg.Workers),
		zap.Int("queue_size", rc.cfg.QueueSize),
	)

	for i := 0; i < rc.cfg.Workers; i++ {
		rc.wg.Add(1)
		go rc.worker(i)
	}
}

// Submit acepta un evento de anuncio recién observado. Valida el
// envelope de forma síncrona (ErrMalformedEvent se devuelve al
// remitente) y encola; nunca espera al procesamiento posterior.
func (rc *RelayCoordinator) Submit(ctx context.Context, evt domain.ListingEvent) error {
	if err := evt.Validate(); err != nil {
		return err
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()

	if rc.closed {
		return domain.ErrPipelineClosed
	}

	// Mientras se sostenga el RLock el cierre no puede avanzar, así que
	// todo encolado aquí ocurre antes de que los workers empiecen a
	// drenar. Los workers siguen consumiendo, por lo que una cola llena
	// acaba liberando hueco.
	select {
	case rc.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close detiene la entrada y drena la cola. Los eventos en vuelo
// terminan dentro del plazo del contexto; al agotarse se cancelan las
// llamadas externas pendientes y no se publica ningún evento parcial.
func (rc *RelayCoordinator) Close(ctx context.Context) error {
	rc.stopOnce.Do(func() {
		rc.mu.Lock()
		rc.closed = true
		rc.mu.Unlock()
		close(rc.quit)
	})

	done := make(chan struct{})
	go func() {
		rc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		rc.log.Info("🛑 Relay coordinator detenido")
		return nil
	case <-ctx.Done():
		rc.workerCancel() // abandona los reintentos en vuelo
		<-done
		rc.log.Warn("🛑 Relay coordinator detenido con drenaje incompleto")
		return ctx.Err()
	}
}

func (rc *RelayCoordinator) worker(id int) {
	defer rc.wg.Done()

	for {
		select {
		case evt := <-rc.queue:
			rc.process(rc.workerCtx, evt)
		case <-rc.quit:
			// Drenaje: vaciamos lo ya encolado antes de salir.
			for {
				select {
				case evt := <-rc.queue:
					rc.process(rc.workerCtx, evt)
				default:
					rc.log.Debug("Worker drenado", zap.Int("worker", id))
					return
				}
			}
		}
	}
}

// process ejecuta el pipeline completo para un evento. Cada evento es
// propiedad exclusiva del worker que lo procesa.
func (rc *RelayCoordinator) process(ctx context.Context, evt domain.ListingEvent) {
	key := evt.DedupKey()

	claimed, err := rc.guard.Begin(ctx, key)
	if err != nil {
		// Guarda caída: preferimos procesar de más a perder eventos.
		// El almacén de auditoría deduplica por su cuenta.
		rc.log.Warn("⚠️ Guarda de idempotencia no disponible, procesando igualmente",
			zap.String("key", key), zap.Error(err))
		claimed = true
	}
	if !claimed {
		rc.log.Info("Evento duplicado ignorado", zap.String("key", key))
		return
	}

	writtenOff, terminal := rc.validateStage(ctx, evt, key)
	if terminal {
		return
	}

	priced, terminal := rc.pricingStage(ctx, evt, key, writtenOff)
	if terminal {
		return
	}

	// Auditoría y broadcast corren en paralelo; ninguno bloquea al otro
	// y ninguno de los dos es fatal para el pipeline.
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := rc.audit.Append(ctx, priced); err != nil {
			// Un único reintento inmediato; a partir de ahí solo log.
			if err2 := rc.audit.Append(ctx, priced); err2 != nil {
				rc.log.Warn("⚠️ Fallo al escribir registro de auditoría",
					zap.String("registration", evt.Registration), zap.Error(err2))
			}
		}
	}()

	go func() {
		defer wg.Done()
		if err := rc.broadcaster.Broadcast(ctx, priced); err != nil {
			rc.log.Warn("⚠️ Fallo al difundir notificación",
				zap.String("registration", evt.Registration), zap.Error(err))
		}
	}()

	wg.Wait()

	if err := rc.guard.Commit(ctx, key); err != nil {
		rc.log.Warn("⚠️ No se pudo consolidar la clave de idempotencia",
			zap.String("key", key), zap.Error(err))
	}

	rc.log.Info("✅ Anuncio tasado y retransmitido",
		zap.String("registration", evt.Registration),
		zap.Int("price", priced.Price),
		zap.String("currency", priced.CurrencyCode),
	)
}

// validateStage consulta el estado del vehículo. Devuelve terminal=true
// cuando el evento no debe continuar hacia la tasación.
func (rc *RelayCoordinator) validateStage(ctx context.Context, evt domain.ListingEvent, key string) (writtenOff, terminal bool) {
	if rc.validator == nil {
		return false, false
	}

	var result domain.ValidationResult
	err := sharedUtils.RetryBackoff(ctx, rc.cfg.RetryMax, rc.cfg.RetryBase, func() error {
		callCtx, cancel := context.WithTimeout(ctx, rc.cfg.CallTimeout)
		defer cancel()

		r, err := rc.validator.Validate(callCtx, evt.Registration)
		if err != nil {
			rc.log.Debug("Reintentando validación de estado",
				zap.String("registration", evt.Registration), zap.Error(err))
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if rc.abortIfShuttingDown(ctx, key) {
			return false, true
		}
		rc.deadLetter(ctx, evt, key, domain.ErrValidationUnavailable)
		return false, true
	}

	switch result.Status {
	case domain.StatusStolen:
		if err := rc.removeStolen(ctx, evt); err != nil {
			// La clave queda libre: una reentrega volverá a intentar el
			// borrado en lugar de quedar deduplicada para siempre.
			rc.releaseKey(key)
			return false, true
		}
		rc.commitTerminal(ctx, key)
		return false, true

	case domain.StatusInvalid:
		rc.log.Warn("Vehículo con estado INVALID, evento descartado",
			zap.String("registration", evt.Registration))
		rc.deadLetter(ctx, evt, key, domain.ErrVehicleInvalid)
		return false, true

	case domain.StatusWrittenOff:
		return true, false

	default:
		return false, false
	}
}

// pricingStage obtiene la cotización y construye el evento tasado.
func (rc *RelayCoordinator) pricingStage(ctx context.Context, evt domain.ListingEvent, key string, writtenOff bool) (domain.PricedListingEvent, bool) {
	var quote domain.Quote
	err := sharedUtils.RetryBackoff(ctx, rc.cfg.RetryMax, rc.cfg.RetryBase, func() error {
		callCtx, cancel := context.WithTimeout(ctx, rc.cfg.CallTimeout)
		defer cancel()

		q, err := rc.pricer.GetPrice(callCtx, evt.ModelCode, evt.Color, evt.Year)
		if err != nil {
			rc.log.Debug("Reintentando tasación",
				zap.String("registration", evt.Registration), zap.Error(err))
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		if rc.abortIfShuttingDown(ctx, key) {
			return domain.PricedListingEvent{}, true
		}
		rc.deadLetter(ctx, evt, key, domain.ErrPricingUnavailable)
		return domain.PricedListingEvent{}, true
	}

	price := quote.Price
	if writtenOff {
		price = domain.WriteOffPrice(price)
	}

	return domain.PricedListingEvent{
		ListingEvent: evt,
		Price:        price,
		CurrencyCode: quote.CurrencyCode,
		WrittenOff:   writtenOff,
	}, false
}

// removeStolen invoca el borrado del anuncio en la fuente de verdad.
// La guarda de idempotencia asegura una sola invocación por evento; el
// colaborador además es idempotente por matrícula.
func (rc *RelayCoordinator) removeStolen(ctx context.Context, evt domain.ListingEvent) error {
	callCtx, cancel := context.WithTimeout(ctx, rc.cfg.CallTimeout)
	defer cancel()

	if err := rc.remover.Remove(callCtx, evt.Registration); err != nil {
		rc.log.Error("Fallo al borrar anuncio de vehículo robado",
			zap.String("registration", evt.Registration), zap.Error(err))
		return err
	}

	rc.log.Info("🚨 Vehículo robado: anuncio borrado y evento descartado",
		zap.String("registration", evt.Registration))
	return nil
}

// abortIfShuttingDown libera la clave cuando el fallo viene de la
// cancelación del drenaje: el evento queda sin resultado y una
// reentrega podrá reintentarlo.
func (rc *RelayCoordinator) abortIfShuttingDown(ctx context.Context, key string) bool {
	if ctx.Err() == nil {
		return false
	}
	rc.releaseKey(key)
	return true
}

func (rc *RelayCoordinator) releaseKey(key string) {
	if err := rc.guard.Release(context.Background(), key); err != nil {
		rc.log.Warn("⚠️ No se pudo liberar la clave de idempotencia", zap.String("key", key), zap.Error(err))
	}
}

// deadLetter registra el resultado terminal y consolida la clave para
// que una reentrega no repita el fallo completo.
func (rc *RelayCoordinator) deadLetter(ctx context.Context, evt domain.ListingEvent, key string, reason error) {
	dl := domain.DeadLetter{
		ID:           uuid.New(),
		Registration: evt.Registration,
		ListedAtUtc:  evt.ListedAtUtc,
		Reason:       reason.Error(),
		Event:        evt,
		CreatedAt:    time.Now().UTC(),
	}

	if err := rc.deadLetters.Add(ctx, dl); err != nil {
		rc.log.Error("Fallo al registrar dead-letter",
			zap.String("registration", evt.Registration), zap.Error(err))
	} else {
		rc.log.Warn("📭 Evento enviado a dead-letter",
			zap.String("registration", evt.Registration),
			zap.String("reason", reason.Error()),
		)
	}

	rc.commitTerminal(ctx, key)
}

func (rc *RelayCoordinator) commitTerminal(ctx context.Context, key string) {
	if err := rc.guard.Commit(ctx, key); err != nil && !errors.Is(err, context.Canceled) {
		rc.log.Warn("⚠️ No se pudo consolidar la clave de idempotencia", zap.String("key", key), zap.Error(err))
	}
}
