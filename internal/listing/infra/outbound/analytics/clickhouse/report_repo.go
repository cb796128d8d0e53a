package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// DailyListingTrend agrega los anuncios tasados de un día.
type DailyListingTrend struct {
	Day          time.Time
	ListingCount uint64
	AvgPrice     float64
}

// ListingReportRepo vuelca los eventos tasados a ClickHouse para los
// colaboradores de reporting. Es un sumidero best-effort: un fallo
// aquí nunca afecta al pipeline.
type ListingReportRepo struct {
	db *sql.DB
}

// NewListingReportRepo es el constructor.
func NewListingReportRepo(addr string, dbName string) (*ListingReportRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &ListingReportRepo{db: conn}, nil
}

// LogBatch inserta un lote de eventos tasados. ClickHouse funciona
// mejor con inserciones en lotes.
func (r *ListingReportRepo) LogBatch(ctx context.Context, events []domain.PricedListingEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO listings_log (registration, listed_at, manufacturer, model_code, color, year, price, currency_code, written_off, event_time)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	eventTime := time.Now()
	for _, evt := range events {
		if _, err := stmt.ExecContext(
			ctx,
			evt.Registration,
			evt.ListedAtUtc,
			evt.Manufacturer,
			evt.ModelCode,
			evt.Color,
			evt.Year,
			evt.Price,
			evt.CurrencyCode,
			evt.WrittenOff,
			eventTime,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for listing %s: %w", evt.Registration, err)
		}
	}

	return tx.Commit()
}

// GetDailyTrend devuelve el número de anuncios y el precio medio por día.
func (r *ListingReportRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyListingTrend, error) {
	query := `
		SELECT
			toStartOfDay(event_time) AS day,
			count() AS listings,
			avg(price) AS avg_price
		FROM listings_log
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []DailyListingTrend
	for rows.Next() {
		var trend DailyListingTrend
		if err := rows.Scan(&trend.Day, &trend.ListingCount, &trend.AvgPrice); err != nil {
			return nil, err
		}
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// GetWriteOffRatio devuelve la proporción de vehículos siniestrados
// sobre el total de anuncios tasados del periodo.
func (r *ListingReportRepo) GetWriteOffRatio(ctx context.Context, start, end time.Time) (float64, error) {
	query := `
		SELECT countIf(written_off) / count() AS ratio
		FROM listings_log
		WHERE event_time BETWEEN ? AND ?
	`
	var ratio sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, start, end).Scan(&ratio); err != nil {
		return 0, err
	}
	if !ratio.Valid {
		return 0, nil // No hay datos en el periodo
	}
	return ratio.Float64, nil
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *ListingReportRepo) InitSchema() error {
	// Tabla optimizada para analítica: particionada por mes y ordenada
	// por los campos habituales de consulta.
	query := `
		CREATE TABLE IF NOT EXISTS listings_log (
			registration  String,
			listed_at     DateTime64(3),
			manufacturer  String,
			model_code    String,
			color         String,
			year          Int32,
			price         Int64,
			currency_code String,
			written_off   Bool,
			event_time    DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (manufacturer, model_code, event_time);
	`
	_, err := r.db.Exec(query)
	return err
}
