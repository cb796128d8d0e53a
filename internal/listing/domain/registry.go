package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/carstream/internal/shared/domain/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	ListingCreated   = "listing.created"
	ListingPriced    = "listing.priced"
	ListingDiscarded = "listing.discarded"
)

const (
	ListingTopic = "listing-created"
	PricedTopic  = "listing-priced"
)

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		ListingCreated: {
			Type:  reflect.TypeOf(ListingEvent{}),
			Topic: ListingTopic,
		},
		ListingPriced: {
			Type:  reflect.TypeOf(PricedListingEvent{}),
			Topic: PricedTopic,
		},
		ListingDiscarded: {
			Type:  reflect.TypeOf(ListingEvent{}),
			Topic: ListingTopic,
		},
	}
}
