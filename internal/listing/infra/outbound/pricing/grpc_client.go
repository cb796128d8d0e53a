package pricing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/carstream/internal/listing/domain"

	// Importa el código generado por protoc
	pb "github.com/davicafu/carstream/gen/go/pricing"
)

// GrpcPriceLookup invoca el servicio remoto de tasación vía gRPC.
// Sin estado mutable compartido entre llamadas: es seguro para uso
// concurrente desde varios workers.
type GrpcPriceLookup struct {
	client  pb.PricingServiceClient
	timeout time.Duration
	log     *zap.Logger
}

// Verificación estática.
var _ domain.PriceLookup = (*GrpcPriceLookup)(nil)

func NewGrpcPriceLookup(client pb.PricingServiceClient, timeout time.Duration, log *zap.Logger) *GrpcPriceLookup {
	return &GrpcPriceLookup{client: client, timeout: timeout, log: log}
}

// GetPrice consulta la cotización con un timeout acotado. Cualquier
// fallo de transporte se envuelve en ErrPricingUnavailable para que el
// coordinador aplique su política de reintentos; un modelo desconocido
// no falla (el servidor devuelve una banda de precio por defecto).
func (p *GrpcPriceLookup) GetPrice(ctx context.Context, modelCode, color string, year int) (domain.Quote, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.GetPrice(callCtx, &pb.PriceRequest{
		ModelCode: modelCode,
		Color:     color,
		Year:      int32(year),
	})
	if err != nil {
		p.log.Debug("Fallo de transporte en la tasación",
			zap.String("model_code", modelCode), zap.Error(err))
		return domain.Quote{}, fmt.Errorf("%w: %v", domain.ErrPricingUnavailable, err)
	}

	return domain.Quote{
		Price:        int(resp.GetPrice()),
		CurrencyCode: resp.GetCurrencyCode(),
	}, nil
}
