package deadletter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// SQLiteStore retiene los eventos que agotaron sus reintentos, para
// inspección del operador.
type SQLiteStore struct {
	db *sql.DB
}

// Verificación estática.
var _ domain.DeadLetterStore = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// InitSQLite crea el esquema si no existe.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dead_letters (
			id           TEXT PRIMARY KEY,
			registration TEXT NOT NULL,
			listed_at    TEXT NOT NULL,
			reason       TEXT NOT NULL,
			payload      TEXT NOT NULL,
			created_at   TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create dead_letters schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, dl domain.DeadLetter) error {
	payloadBytes, err := json.Marshal(dl.Event)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dead_letters (id, registration, listed_at, reason, payload, created_at)
		 VALUES (?,?,?,?,?,?)`,
		dl.ID.String(),
		dl.Registration,
		dl.ListedAtUtc.UTC().Format(time.RFC3339),
		dl.Reason,
		string(payloadBytes),
		dl.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dead-letter: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.DeadLetter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, registration, listed_at, reason, payload, created_at
		 FROM dead_letters ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []domain.DeadLetter
	for rows.Next() {
		var (
			dl                             domain.DeadLetter
			id, listedAt, payload, created string
		)
		if err := rows.Scan(&id, &dl.Registration, &listedAt, &dl.Reason, &payload, &created); err != nil {
			return nil, err
		}

		dl.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt dead-letter id %q: %w", id, err)
		}
		if dl.ListedAtUtc, err = time.Parse(time.RFC3339, listedAt); err != nil {
			return nil, fmt.Errorf("corrupt listed_at %q: %w", listedAt, err)
		}
		if dl.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("corrupt created_at %q: %w", created, err)
		}
		if err := json.Unmarshal([]byte(payload), &dl.Event); err != nil {
			return nil, fmt.Errorf("corrupt dead-letter payload: %w", err)
		}

		letters = append(letters, dl)
	}
	return letters, rows.Err()
}
