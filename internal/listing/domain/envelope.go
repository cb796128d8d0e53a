package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// listingEnvelope es la forma de cable del evento. Se decodifica a
// mano para distinguir "campo ausente" de "valor cero" en los campos
// obligatorios, y para tolerar campos desconocidos (compatibilidad
// hacia adelante).
type listingEnvelope struct {
	Registration *string `json:"registration"`
	Manufacturer string  `json:"manufacturer"`
	ModelCode    string  `json:"modelCode"`
	ModelName    string  `json:"modelName"`
	Color        string  `json:"color"`
	Year         int     `json:"year"`
	ListedAtUtc  *string `json:"listedAtUtc"`
}

// DecodeListingEvent convierte un payload JSON en un ListingEvent.
// Falla con ErrMalformedEvent si el JSON no es válido, si falta algún
// campo del conjunto obligatorio (registration, listedAtUtc) o si la
// matrícula está vacía. Los campos desconocidos se ignoran.
func DecodeListingEvent(payload []byte) (ListingEvent, error) {
	var env listingEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return ListingEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if env.Registration == nil || *env.Registration == "" {
		return ListingEvent{}, fmt.Errorf("%w: missing registration", ErrMalformedEvent)
	}
	if env.ListedAtUtc == nil || *env.ListedAtUtc == "" {
		return ListingEvent{}, fmt.Errorf("%w: missing listedAtUtc", ErrMalformedEvent)
	}

	listedAt, err := time.Parse(time.RFC3339, *env.ListedAtUtc)
	if err != nil {
		return ListingEvent{}, fmt.Errorf("%w: invalid listedAtUtc %q", ErrMalformedEvent, *env.ListedAtUtc)
	}

	return ListingEvent{
		Registration: *env.Registration,
		Manufacturer: env.Manufacturer,
		ModelCode:    env.ModelCode,
		ModelName:    env.ModelName,
		Color:        env.Color,
		Year:         env.Year,
		ListedAtUtc:  listedAt.UTC(),
	}, nil
}
