package main

import (
	"net"
	"os"

	pb "github.com/davicafu/carstream/gen/go/pricing"
	"github.com/davicafu/carstream/internal/pricingd"
	"github.com/davicafu/carstream/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	logger.Init()
	log := logger.Logger()
	defer log.Sync()

	addr := os.Getenv("PRICING_ADDR")
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", addr), zap.Error(err))
	}

	srv := grpc.NewServer()
	pb.RegisterPricingServiceServer(srv, pricingd.NewServer(log))

	log.Info("🚀 Pricing service running", zap.String("addr", addr))
	if err := srv.Serve(lis); err != nil {
		log.Fatal("failed to serve", zap.Error(err))
	}
}
