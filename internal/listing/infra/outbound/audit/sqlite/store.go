package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// AuditStoreSQLite persiste los eventos tasados en un log append-only.
// La clave única compuesta (registration, listed_at) hace el Append
// idempotente: el segundo insert de la misma pareja no tiene efecto.
type AuditStoreSQLite struct {
	db *sql.DB
}

// Verificación estática.
var _ domain.AuditStore = (*AuditStoreSQLite)(nil)

func NewAuditStoreSQLite(db *sql.DB) *AuditStoreSQLite {
	return &AuditStoreSQLite{db: db}
}

// InitSQLite crea el esquema si no existe.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			registration  TEXT NOT NULL,
			listed_at     TEXT NOT NULL,
			manufacturer  TEXT NOT NULL,
			model_code    TEXT NOT NULL,
			model_name    TEXT NOT NULL,
			color         TEXT NOT NULL,
			year          INTEGER NOT NULL,
			price         INTEGER NOT NULL,
			currency_code TEXT NOT NULL,
			written_off   INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (registration, listed_at)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Append inserta el registro de auditoría. INSERT OR IGNORE absorbe
// los duplicados de forma atómica sin error.
func (s *AuditStoreSQLite) Append(ctx context.Context, evt domain.PricedListingEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO audit_log
		 (registration, listed_at, manufacturer, model_code, model_name, color, year, price, currency_code, written_off)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		evt.Registration,
		evt.ListedAtUtc.UTC().Format("2006-01-02T15:04:05Z07:00"),
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

// List devuelve los registros más recientes, para los colaboradores de
// reporting.
func (s *AuditStoreSQLite) List(ctx context.Context, limit int) ([]domain.PricedListingEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT registration, listed_at, manufacturer, model_code, model_name, color, year, price, currency_code, written_off
		 FROM audit_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PricedListingEvent
	for rows.Next() {
		var evt domain.PricedListingEvent
		var listedAt string
		if err := rows.Scan(
			&evt.Registration, &listedAt, &evt.Manufacturer, &evt.ModelCode, &evt.ModelName,
			&evt.Color, &evt.Year, &evt.Price, &evt.CurrencyCode, &evt.WrittenOff,
		); err != nil {
			return nil, err
		}
		if err := evt.ListedAtUtc.UnmarshalText([]byte(listedAt)); err != nil {
			return nil, fmt.Errorf("corrupt listed_at %q: %w", listedAt, err)
		}
		records = append(records, evt)
	}
	return records, rows.Err()
}
