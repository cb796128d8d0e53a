package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	// ErrMalformedEvent: faltan campos obligatorios en el envelope. El
	// evento se rechaza en la ingesta y nunca entra al pipeline.
	ErrMalformedEvent = errors.New("malformed listing event")

	// ErrValidationUnavailable: el colaborador de estado no responde.
	// Reintentable; tras agotar reintentos el evento va a dead-letter.
	ErrValidationUnavailable = errors.New("status validator unavailable")

	// ErrVehicleInvalid: el colaborador devolvió INVALID. Terminal, no
	// se reintenta.
	ErrVehicleInvalid = errors.New("vehicle status invalid")

	// ErrPricingUnavailable: el colaborador de tasación falló tras los
	// reintentos. El evento va a dead-letter.
	ErrPricingUnavailable = errors.New("pricing collaborator unavailable")

	// ErrDuplicateListing: ya existe un registro con la misma pareja
	// (registration, listedAtUtc).
	ErrDuplicateListing = errors.New("duplicate listing event")

	// ErrPipelineClosed: el coordinador ya no acepta envíos.
	ErrPipelineClosed = errors.New("relay pipeline closed")
)

// ---------- Interfaces (Ports) ----------

// StatusValidator consulta la legitimidad de un vehículo antes de
// tasarlo. Un error de transporte debe envolverse en
// ErrValidationUnavailable; nunca se traduce a OK.
type StatusValidator interface {
	Validate(ctx context.Context, registration string) (ValidationResult, error)
}

// PriceLookup obtiene una cotización del colaborador remoto. Debe ser
// seguro para llamadas concurrentes de matrículas distintas. Un fallo
// de transporte debe envolverse en ErrPricingUnavailable.
type PriceLookup interface {
	GetPrice(ctx context.Context, modelCode, color string, year int) (Quote, error)
}

// AuditStore persiste cada evento tasado. Append debe ser idempotente
// por (registration, listedAtUtc): el segundo append de la misma
// pareja no produce registro duplicado ni error.
type AuditStore interface {
	Append(ctx context.Context, evt PricedListingEvent) error
}

// Broadcaster empuja el evento tasado a todos los suscriptores
// conectados. Entrega at-most-once; el fallo de un suscriptor no
// afecta al resto ni al pipeline.
type Broadcaster interface {
	Broadcast(ctx context.Context, evt PricedListingEvent) error
}

// ListingRemover borra el anuncio en la fuente de verdad cuando el
// vehículo resulta robado. Debe ser idempotente por matrícula.
type ListingRemover interface {
	Remove(ctx context.Context, registration string) error
}

// IdempotenceGuard reclama de forma atómica la clave de deduplicación
// de un evento. Begin devuelve false si la clave ya fue reclamada.
// Release devuelve la clave al estado libre para que una reentrega
// pueda reintentar.
type IdempotenceGuard interface {
	Begin(ctx context.Context, key string) (bool, error)
	Commit(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// ---------- Dead-letter ----------

// DeadLetter es el registro terminal de un evento que agotó sus
// reintentos o resultó inválido.
type DeadLetter struct {
	ID           uuid.UUID    `json:"id"`
	Registration string       `json:"registration"`
	ListedAtUtc  time.Time    `json:"listedAtUtc"`
	Reason       string       `json:"reason"`
	Event        ListingEvent `json:"event"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// DeadLetterStore es el área de retención visible para el operador.
type DeadLetterStore interface {
	Add(ctx context.Context, dl DeadLetter) error
	List(ctx context.Context, limit int) ([]DeadLetter, error)
}
