package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Registra el driver pgx para database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// AuditStorePostgres es la variante PostgreSQL del log de auditoría,
// para despliegues no locales. Misma semántica que la variante SQLite:
// append-only e idempotente por (registration, listed_at).
type AuditStorePostgres struct {
	db *sql.DB
}

var _ domain.AuditStore = (*AuditStorePostgres)(nil)

func NewAuditStorePostgres(db *sql.DB) *AuditStorePostgres {
	return &AuditStorePostgres{db: db}
}

// Open abre la conexión con el driver pgx.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// InitPostgres crea el esquema si no existe.
func InitPostgres(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_log (
			registration  TEXT NOT NULL,
			listed_at     TIMESTAMPTZ NOT NULL,
			manufacturer  TEXT NOT NULL,
			model_code    TEXT NOT NULL,
			model_name    TEXT NOT NULL,
			color         TEXT NOT NULL,
			year          INTEGER NOT NULL,
			price         INTEGER NOT NULL,
			currency_code TEXT NOT NULL,
			written_off   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (registration, listed_at)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Append inserta el registro; ON CONFLICT DO NOTHING absorbe los
// duplicados de forma atómica.
func (s *AuditStorePostgres) Append(ctx context.Context, evt domain.PricedListingEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log
		 (registration, listed_at, manufacturer, model_code, model_name, color, year, price, currency_code, written_off)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (registration, listed_at) DO NOTHING`,
		evt.Registration,
		evt.ListedAtUtc.UTC(),
		evt.Manufacturer,
		evt.ModelCode,
		evt.ModelName,
		evt.Color,
		evt.Year,
		evt.Price,
		evt.CurrencyCode,
		evt.WrittenOff,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// List devuelve los registros más recientes.
func (s *AuditStorePostgres) List(ctx context.Context, limit int) ([]domain.PricedListingEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT registration, listed_at, manufacturer, model_code, model_name, color, year, price, currency_code, written_off
		 FROM audit_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PricedListingEvent
	for rows.Next() {
		var evt domain.PricedListingEvent
		if err := rows.Scan(
			&evt.Registration, &evt.ListedAtUtc, &evt.Manufacturer, &evt.ModelCode, &evt.ModelName,
			&evt.Color, &evt.Year, &evt.Price, &evt.CurrencyCode, &evt.WrittenOff,
		); err != nil {
			return nil, err
		}
		records = append(records, evt)
	}
	return records, rows.Err()
}
