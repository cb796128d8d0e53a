package pricingd

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/davicafu/carstream/gen/go/pricing"
)

// Banda de precio por defecto para modelos desconocidos: cotizar algo
// razonable antes que fallar.
const (
	defaultPrice    = 15000
	defaultCurrency = "USD"
)

// priceTable asocia códigos de modelo conocidos a su precio base.
var priceTable = map[string]int32{
	"dmc-delorean":   50000,
	"ford-anglia":    8000,
	"ecto-1":         65000,
	"kitt-trans-am":  90000,
	"general-lee":    45000,
	"herbie-beetle":  30000,
	"batmobile-1966": 250000,
}

// Server implementa la interfaz generada por gRPC para el servicio de
// tasación de demostración.
type Server struct {
	// Es necesario para la compatibilidad hacia adelante de gRPC.
	pb.UnimplementedPricingServiceServer
	log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{log: log}
}

// GetPrice es la implementación del RPC. Determinista: el mismo modelo
// siempre cotiza lo mismo, y un modelo desconocido cae en la banda por
// defecto en lugar de fallar.
func (s *Server) GetPrice(ctx context.Context, req *pb.PriceRequest) (*pb.PriceResponse, error) {
	if req.GetModelCode() == "" {
		return nil, status.Errorf(codes.InvalidArgument, "model_code is required")
	}

	price, ok := priceTable[strings.ToLower(req.GetModelCode())]
	if !ok {
		price = defaultPrice
	}

	s.log.Debug("Cotización servida",
		zap.String("model_code", req.GetModelCode()),
		zap.Int32("price", price),
	)

	return &pb.PriceResponse{
		Price:        price,
		CurrencyCode: defaultCurrency,
	}, nil
}
