package relayer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// AuditLister es la vista de lectura del log de auditoría (la cumplen
// las variantes SQLite/Postgres/Mongo).
type AuditLister interface {
	List(ctx context.Context, limit int) ([]domain.PricedListingEvent, error)
}

// ReportSink recibe lotes de eventos tasados (lo cumple el repo de
// ClickHouse).
type ReportSink interface {
	LogBatch(ctx context.Context, events []domain.PricedListingEvent) error
}

// ReportWorker vuelca periódicamente los registros de auditoría nuevos
// al colaborador de reporting. Best-effort: los fallos se registran y
// el lote se reintenta en el siguiente ciclo.
type ReportWorker struct {
	audit     AuditLister
	sink      ReportSink
	interval  time.Duration
	batchSize int
	log       *zap.Logger

	shipped map[string]bool // claves ya enviadas en esta ejecución
}

func NewReportWorker(audit AuditLister, sink ReportSink, interval time.Duration, batchSize int, log *zap.Logger) *ReportWorker {
	return &ReportWorker{
		audit:     audit,
		sink:      sink,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
		shipped:   make(map[string]bool),
	}
}

// Start inicia el bucle de polling del worker.
func (w *ReportWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)

	w.log.Info("🚀 Report worker iniciado", zap.Duration("interval", w.interval))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				w.log.Info("🛑 Report worker detenido.")
				return
			case <-ticker.C:
				w.ProcessBatch(ctx)
			}
		}
	}()
}

// ProcessBatch envía al sink los registros de auditoría aún no enviados.
func (w *ReportWorker) ProcessBatch(ctx context.Context) {
	records, err := w.audit.List(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al leer el log de auditoría", zap.Error(err))
		return
	}

	pending := make([]domain.PricedListingEvent, 0, len(records))
	for _, rec := range records {
		if !w.shipped[rec.DedupKey()] {
			pending = append(pending, rec)
		}
	}
	if len(pending) == 0 {
		return
	}

	w.log.Info(fmt.Sprintf("📬 %d registros de auditoría para reporting", len(pending)))

	if err := w.sink.LogBatch(ctx, pending); err != nil {
		w.log.Warn("⚠️ No se pudo volcar el lote al sink de reporting", zap.Error(err))
		return // se reintenta en el siguiente ciclo
	}

	for _, rec := range pending {
		w.shipped[rec.DedupKey()] = true
	}
}
