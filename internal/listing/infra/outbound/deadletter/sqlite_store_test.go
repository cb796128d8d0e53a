package deadletter

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/davicafu/carstream/internal/listing/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "deadletter_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSQLite(db))
	return NewSQLiteStore(db)
}

func TestAddAndList(t *testing.T) {
	store := newTestStore(t)

	evt := domain.ListingEvent{
		Registration: "OUTATIME",
		Manufacturer: "DMC",
		ModelCode:    "dmc-delorean",
		Year:         1985,
		ListedAtUtc:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	dl := domain.DeadLetter{
		ID:           uuid.New(),
		Registration: evt.Registration,
		ListedAtUtc:  evt.ListedAtUtc,
		Reason:       domain.ErrPricingUnavailable.Error(),
		Event:        evt,
		CreatedAt:    time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Add(context.Background(), dl))

	letters, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, dl, letters[0])
}

func TestList_RespectsLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		dl := domain.DeadLetter{
			ID:           uuid.New(),
			Registration: "REG",
			ListedAtUtc:  time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
			Reason:       domain.ErrVehicleInvalid.Error(),
			Event:        domain.ListingEvent{Registration: "REG"},
			CreatedAt:    time.Date(2024, 1, 2, i, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Add(context.Background(), dl))
	}

	letters, err := store.List(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, letters, 3)
}
