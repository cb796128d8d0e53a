package guard

import (
	"context"
	"sync"
	"time"

	listingDomain "github.com/davicafu/carstream/internal/listing/domain"
)

type claimState int

const (
	statePending claimState = iota
	stateCommitted
)

// claim guarda el estado y el tiempo de expiración de una clave.
type claim struct {
	state     claimState
	expiresAt time.Time
}

// InMemoryGuard implementa la guarda de idempotencia con un mapa en
// memoria. Útil para despliegues locales y tests; en producción se usa
// la variante Redis para compartir estado entre instancias.
type InMemoryGuard struct {
	claims   map[string]claim
	mu       sync.Mutex
	ttl      time.Duration
	stopChan chan struct{} // Canal para detener la goroutine de limpieza.
	stopOnce sync.Once
}

// Verificación estática.
var _ listingDomain.IdempotenceGuard = (*InMemoryGuard)(nil)

// NewInMemoryGuard crea la guarda en memoria.
// - ttl: tiempo de vida de una clave confirmada.
// - cleanupInterval: cada cuánto se purgan las claves expiradas.
func NewInMemoryGuard(ttl, cleanupInterval time.Duration) *InMemoryGuard {
	g := &InMemoryGuard{
		claims:   make(map[string]claim),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	go g.cleanupLoop(cleanupInterval)

	return g
}

// Begin reclama la clave de forma atómica. Devuelve false si ya está
// reclamada (pendiente o confirmada) y no ha expirado.
func (g *InMemoryGuard) Begin(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.claims[key]; ok && time.Now().UTC().Before(c.expiresAt) {
		return false, nil
	}

	g.claims[key] = claim{
		state:     statePending,
		expiresAt: time.Now().UTC().Add(g.ttl),
	}
	return true, nil
}

// Commit consolida la clave: las reentregas posteriores se descartan.
func (g *InMemoryGuard) Commit(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.claims[key] = claim{
		state:     stateCommitted,
		expiresAt: time.Now().UTC().Add(g.ttl),
	}
	return nil
}

// Release libera la clave para que una reentrega pueda reintentar.
func (g *InMemoryGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.claims, key)
	return nil
}

// Stop detiene la goroutine de limpieza.
func (g *InMemoryGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

// cleanupLoop purga periódicamente las claves expiradas.
func (g *InMemoryGuard) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.mu.Lock()
			for key, c := range g.claims {
				if time.Now().UTC().After(c.expiresAt) {
					delete(g.claims, key)
				}
			}
			g.mu.Unlock()
		case <-g.stopChan:
			return
		}
	}
}
