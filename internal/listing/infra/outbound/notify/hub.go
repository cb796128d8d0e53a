package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// Notification es el payload agnóstico de transporte que reciben los
// clientes conectados.
type Notification struct {
	Registration string    `json:"registration"`
	Manufacturer string    `json:"manufacturer"`
	ModelName    string    `json:"modelName"`
	Color        string    `json:"color"`
	Year         int       `json:"year"`
	Price        int       `json:"price"`
	CurrencyCode string    `json:"currencyCode"`
	ListedAtUtc  time.Time `json:"listedAtUtc"`
	WrittenOff   bool      `json:"writtenOff"`
}

// NewNotification traduce un evento tasado al payload de difusión.
func NewNotification(evt domain.PricedListingEvent) Notification {
	return Notification{
		Registration: evt.Registration,
		Manufacturer: evt.Manufacturer,
		ModelName:    evt.ModelName,
		Color:        evt.Color,
		Year:         evt.Year,
		Price:        evt.Price,
		CurrencyCode: evt.CurrencyCode,
		ListedAtUtc:  evt.ListedAtUtc,
		WrittenOff:   evt.WrittenOff,
	}
}

// JSON serializa el payload para transportes que esperan una cadena opaca.
func (n Notification) JSON() ([]byte, error) {
	return json.Marshal(n)
}

// Hub mantiene el registro de suscriptores conectados y les difunde
// cada evento tasado. Entrega at-most-once: un suscriptor lento pierde
// los mensajes más antiguos de su cola (drop-oldest), nunca bloquea al
// pipeline ni al resto de suscriptores.
type Hub struct {
	subscribers []*subscriber
	mu          sync.RWMutex
	log         *zap.Logger
}

type subscriber struct {
	ch     chan Notification
	mu     sync.Mutex
	closed bool
}

// Verificación estática.
var _ domain.Broadcaster = (*Hub)(nil)

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		subscribers: make([]*subscriber, 0),
		log:         log,
	}
}

// Subscribe añade un nuevo oyente con una cola acotada y devuelve su
// canal junto con la función de baja.
func (h *Hub) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{ch: make(chan Notification, buffer)}

	h.mu.Lock()
	h.subscribers = append(h.subscribers, sub)
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		for i, s := range h.subscribers {
			if s == sub {
				h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
				break
			}
		}
		h.mu.Unlock()

		sub.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		sub.mu.Unlock()
	}

	return sub.ch, unsubscribe
}

// Broadcast difunde el evento a la instantánea actual de suscriptores.
// Con cero suscriptores el mensaje se descarta en silencio.
func (h *Hub) Broadcast(ctx context.Context, evt domain.PricedListingEvent) error {
	notification := NewNotification(evt)

	h.mu.RLock()
	snapshot := make([]*subscriber, len(h.subscribers))
	copy(snapshot, h.subscribers)
	h.mu.RUnlock()

	for _, sub := range snapshot {
		sub.deliver(notification)
	}

	h.log.Debug("Notificación difundida",
		zap.String("registration", evt.Registration),
		zap.Int("subscribers", len(snapshot)),
	)
	return nil
}

// SubscriberCount devuelve el número de clientes conectados.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// deliver encola sin bloquear; si la cola está llena descarta el
// mensaje más antiguo para hacer sitio al nuevo.
func (s *subscriber) deliver(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for {
		select {
		case s.ch <- n:
			return
		default:
			// Cola llena: tiramos el más antiguo y reintentamos.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
