package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// ---------- Fakes en memoria (estado observable) ----------

// FakeValidator devuelve un estado fijo por matrícula (OK si no hay
// entrada) y registra cada llamada. FailTimes > 0 simula un colaborador
// caído durante las primeras N llamadas.
type FakeValidator struct {
	Statuses  map[string]domain.VehicleStatus
	FailTimes int

	mu    sync.Mutex
	Calls []string
}

var _ domain.StatusValidator = (*FakeValidator)(nil)

func NewFakeValidator() *FakeValidator {
	return &FakeValidator{Statuses: make(map[string]domain.VehicleStatus)}
}

func (v *FakeValidator) Validate(ctx context.Context, registration string) (domain.ValidationResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.Calls = append(v.Calls, registration)
	if v.FailTimes > 0 {
		v.FailTimes--
		return domain.ValidationResult{}, errors.New("status collaborator unreachable")
	}

	status, ok := v.Statuses[registration]
	if !ok {
		status = domain.StatusOK
	}
	return domain.ValidationResult{Registration: registration, Status: status}, nil
}

// FakePricer devuelve una cotización fija y puede fallar las primeras
// N llamadas para simular fallos transitorios de transporte.
type FakePricer struct {
	Quote     domain.Quote
	FailTimes int

	mu    sync.Mutex
	Calls int
}

var _ domain.PriceLookup = (*FakePricer)(nil)

func NewFakePricer(price int, currency string) *FakePricer {
	return &FakePricer{Quote: domain.Quote{Price: price, CurrencyCode: currency}}
}

func (p *FakePricer) GetPrice(ctx context.Context, modelCode, color string, year int) (domain.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls++
	if p.FailTimes > 0 {
		p.FailTimes--
		return domain.Quote{}, errors.New("pricing collaborator unreachable")
	}
	return p.Quote, nil
}

// FakeAuditStore acumula los eventos tasados, deduplicando por
// DedupKey igual que los almacenes reales. Fail simula un sumidero caído.
type FakeAuditStore struct {
	Fail bool

	mu      sync.Mutex
	Records []domain.PricedListingEvent
	seen    map[string]bool
}

var _ domain.AuditStore = (*FakeAuditStore)(nil)

func NewFakeAuditStore() *FakeAuditStore {
	return &FakeAuditStore{seen: make(map[string]bool)}
}

func (a *FakeAuditStore) Append(ctx context.Context, evt domain.PricedListingEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Fail {
		return errors.New("audit collaborator unavailable")
	}
	if a.seen[evt.DedupKey()] {
		return nil // duplicado: sin efecto, sin error
	}
	a.seen[evt.DedupKey()] = true
	a.Records = append(a.Records, evt)
	return nil
}

func (a *FakeAuditStore) All() []domain.PricedListingEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.PricedListingEvent, len(a.Records))
	copy(out, a.Records)
	return out
}

// FakeBroadcaster acumula los eventos difundidos.
type FakeBroadcaster struct {
	Fail bool

	mu     sync.Mutex
	Events []domain.PricedListingEvent
}

var _ domain.Broadcaster = (*FakeBroadcaster)(nil)

func (b *FakeBroadcaster) Broadcast(ctx context.Context, evt domain.PricedListingEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Fail {
		return errors.New("notification transport down")
	}
	b.Events = append(b.Events, evt)
	return nil
}

func (b *FakeBroadcaster) All() []domain.PricedListingEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.PricedListingEvent, len(b.Events))
	copy(out, b.Events)
	return out
}

// FakeRemover registra los borrados solicitados. FailTimes hace
// fallar las primeras N invocaciones.
type FakeRemover struct {
	mu        sync.Mutex
	Removed   []string
	FailTimes int
	Calls     int
}

var _ domain.ListingRemover = (*FakeRemover)(nil)

func (r *FakeRemover) Remove(ctx context.Context, registration string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Calls <= r.FailTimes {
		return errors.New("deletion collaborator unavailable")
	}
	r.Removed = append(r.Removed, registration)
	return nil
}

func (r *FakeRemover) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Removed))
	copy(out, r.Removed)
	return out
}

// FakeDeadLetterStore acumula los dead-letters en memoria.
type FakeDeadLetterStore struct {
	mu      sync.Mutex
	Letters []domain.DeadLetter
}

var _ domain.DeadLetterStore = (*FakeDeadLetterStore)(nil)

func (s *FakeDeadLetterStore) Add(ctx context.Context, dl domain.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Letters = append(s.Letters, dl)
	return nil
}

func (s *FakeDeadLetterStore) List(ctx context.Context, limit int) ([]domain.DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.Letters)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.DeadLetter, n)
	copy(out, s.Letters[:n])
	return out, nil
}
