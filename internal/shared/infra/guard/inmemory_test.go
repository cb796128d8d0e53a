package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryGuard_BeginClaimsOnce(t *testing.T) {
	g := NewInMemoryGuard(time.Minute, time.Minute)
	defer g.Stop()

	ok, err := g.Begin(context.Background(), "OUTATIME|2024-01-01T00:00:00Z")
	assert.NoError(t, err)
	assert.True(t, ok)

	// La segunda reclamación de la misma clave pierde.
	ok, err = g.Begin(context.Background(), "OUTATIME|2024-01-01T00:00:00Z")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryGuard_DistinctKeysIndependent(t *testing.T) {
	g := NewInMemoryGuard(time.Minute, time.Minute)
	defer g.Stop()

	ok, _ := g.Begin(context.Background(), "key-a")
	assert.True(t, ok)
	ok, _ = g.Begin(context.Background(), "key-b")
	assert.True(t, ok)
}

func TestInMemoryGuard_ReleaseAllowsRetry(t *testing.T) {
	g := NewInMemoryGuard(time.Minute, time.Minute)
	defer g.Stop()

	ok, _ := g.Begin(context.Background(), "key")
	assert.True(t, ok)

	assert.NoError(t, g.Release(context.Background(), "key"))

	ok, _ = g.Begin(context.Background(), "key")
	assert.True(t, ok, "tras Release la clave debe poder reclamarse de nuevo")
}

func TestInMemoryGuard_CommitBlocksRedelivery(t *testing.T) {
	g := NewInMemoryGuard(time.Minute, time.Minute)
	defer g.Stop()

	ok, _ := g.Begin(context.Background(), "key")
	assert.True(t, ok)
	assert.NoError(t, g.Commit(context.Background(), "key"))

	ok, _ = g.Begin(context.Background(), "key")
	assert.False(t, ok, "una clave confirmada no puede reclamarse")
}

func TestInMemoryGuard_ExpiredClaimReclaimable(t *testing.T) {
	g := NewInMemoryGuard(10*time.Millisecond, time.Minute)
	defer g.Stop()

	ok, _ := g.Begin(context.Background(), "key")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, _ = g.Begin(context.Background(), "key")
	assert.True(t, ok, "una clave expirada se comporta como libre")
}
