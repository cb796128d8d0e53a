package domain

import (
	"fmt"
	"time"
)

// ListingEvent representa un vehículo recién puesto a la venta.
// Inmutable una vez publicado: el pipeline nunca modifica un evento,
// cada etapa construye el suyo.
type ListingEvent struct {
	Registration string    `json:"registration"`
	Manufacturer string    `json:"manufacturer"`
	ModelCode    string    `json:"modelCode"`
	ModelName    string    `json:"modelName"`
	Color        string    `json:"color"`
	Year         int       `json:"year"`
	ListedAtUtc  time.Time `json:"listedAtUtc"`
}

// PartitionKey agrupa todos los eventos de una misma matrícula en la
// misma partición del broker.
func (e ListingEvent) PartitionKey() string {
	return e.Registration
}

// DedupKey es la clave de idempotencia del pipeline: la misma pareja
// (registration, listedAtUtc) nunca produce dos efectos distintos.
func (e ListingEvent) DedupKey() string {
	return fmt.Sprintf("%s|%s", e.Registration, e.ListedAtUtc.UTC().Format(time.RFC3339))
}

// Validate comprueba las invariantes mínimas del evento. Devuelve
// ErrMalformedEvent si faltan los campos obligatorios o el año no es
// plausible.
func (e ListingEvent) Validate() error {
	if e.Registration == "" {
		return fmt.Errorf("%w: empty registration", ErrMalformedEvent)
	}
	if e.ListedAtUtc.IsZero() {
		return fmt.Errorf("%w: missing listedAtUtc", ErrMalformedEvent)
	}
	maxYear := time.Now().UTC().Year() + 1
	if e.Year < 1900 || e.Year > maxYear {
		return fmt.Errorf("%w: year %d out of range [1900, %d]", ErrMalformedEvent, e.Year, maxYear)
	}
	return nil
}

// PricedListingEvent es un ListingEvent enriquecido con el resultado
// de la tasación. Solo se construye tras validar el estado del
// vehículo (si está activado) y obtener un precio con éxito.
type PricedListingEvent struct {
	ListingEvent
	Price        int    `json:"price"`
	CurrencyCode string `json:"currencyCode"`
	WrittenOff   bool   `json:"writtenOff"`
}

// VehicleStatus es el resultado del chequeo de legitimidad.
type VehicleStatus string

const (
	StatusOK         VehicleStatus = "OK"
	StatusStolen     VehicleStatus = "STOLEN"
	StatusWrittenOff VehicleStatus = "WRITTEN_OFF"
	StatusInvalid    VehicleStatus = "INVALID"
)

// ValidationResult asocia el estado devuelto por el colaborador
// externo a la matrícula consultada.
type ValidationResult struct {
	Registration string
	Status       VehicleStatus
}

// Quote es la respuesta del colaborador de tasación.
type Quote struct {
	Price        int
	CurrencyCode string
}

// WriteOffPrice aplica la regla de tasación alternativa para
// vehículos siniestrados: 20% del precio cotizado.
func WriteOffPrice(quoted int) int {
	return quoted / 5
}
