package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	config "github.com/davicafu/carstream/internal/config"
	listingApp "github.com/davicafu/carstream/internal/listing/application"
	listingDomain "github.com/davicafu/carstream/internal/listing/domain"
	listingEvents "github.com/davicafu/carstream/internal/listing/infra/inbound/events"
	listingHttp "github.com/davicafu/carstream/internal/listing/infra/inbound/http"
	analyticsRepo "github.com/davicafu/carstream/internal/listing/infra/outbound/analytics/clickhouse"
	auditMongo "github.com/davicafu/carstream/internal/listing/infra/outbound/audit/mongodb"
	auditPostgres "github.com/davicafu/carstream/internal/listing/infra/outbound/audit/postgres"
	auditSqlite "github.com/davicafu/carstream/internal/listing/infra/outbound/audit/sqlite"
	"github.com/davicafu/carstream/internal/listing/infra/outbound/deadletter"
	"github.com/davicafu/carstream/internal/listing/infra/outbound/notify"
	pricingClient "github.com/davicafu/carstream/internal/listing/infra/outbound/pricing"
	statusClient "github.com/davicafu/carstream/internal/listing/infra/outbound/status"
	"github.com/davicafu/carstream/internal/shared/infra/guard"
	infraRelayer "github.com/davicafu/carstream/internal/shared/infra/relayer"

	pb "github.com/davicafu/carstream/gen/go/pricing"
	"github.com/davicafu/carstream/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		log.Fatal("failed to open SQLite", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping SQLite", zap.Error(err))
	}

	if err := deadletter.InitSQLite(db); err != nil {
		log.Fatal("failed to initialize dead-letter schema", zap.Error(err))
	}
	deadLetterStore := deadletter.NewSQLiteStore(db)

	// ------------- Audit store -------------
	var auditStore listingDomain.AuditStore
	var auditLister infraRelayer.AuditLister

	switch {
	case cfg.MongoURI != "":
		log.Info("🗄️ Usando MongoDB como log de auditoría")
		mongoClient, err := mongo.Connect(ctx, mongoOptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())

		store, err := auditMongo.NewAuditStoreMongoDB(ctx, mongoClient, "carstream")
		if err != nil {
			log.Fatal("failed to initialize Mongo audit store", zap.Error(err))
		}
		auditStore, auditLister = store, store

	case !cfg.LocalDeploy && cfg.PostgresDSN != "":
		log.Info("🗄️ Usando PostgreSQL como log de auditoría")
		pgDB, err := auditPostgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open postgres", zap.Error(err))
		}
		defer pgDB.Close()

		if err := auditPostgres.InitPostgres(ctx, pgDB); err != nil {
			log.Fatal("failed to initialize postgres audit schema", zap.Error(err))
		}
		store := auditPostgres.NewAuditStorePostgres(pgDB)
		auditStore, auditLister = store, store

	default:
		log.Info("🗄️ Usando SQLite como log de auditoría")
		if err := auditSqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite audit schema", zap.Error(err))
		}
		store := auditSqlite.NewAuditStoreSQLite(db)
		auditStore, auditLister = store, store
	}

	// ------------- Idempotencia -------------
	var dedupGuard listingDomain.IdempotenceGuard
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, guarda de idempotencia en memoria:", zap.Error(err))
		memGuard := guard.NewInMemoryGuard(cfg.DedupTTL, time.Hour)
		defer memGuard.Stop()
		dedupGuard = memGuard
	} else {
		dedupGuard = guard.NewRedisGuard(rdb, cfg.DedupTTL)
		log.Info("✅ Redis conectado, guarda de idempotencia compartida")
	}

	// ------------- Colaboradores -------------
	conn, err := grpc.NewClient(cfg.PricingAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("failed to dial pricing service", zap.Error(err))
	}
	defer conn.Close()

	priceLookup := pricingClient.NewGrpcPriceLookup(pb.NewPricingServiceClient(conn), cfg.PricingTimeout, log)

	var validator listingDomain.StatusValidator
	if cfg.ValidationEnabled {
		validator = statusClient.NewHTTPStatusClient(cfg.StatusBaseURL, cfg.StatusTimeout, log)
		log.Info("🔎 Validación de estado activada", zap.String("base_url", cfg.StatusBaseURL))
	} else {
		log.Info("Validación de estado desactivada")
	}

	remover := statusClient.NewHTTPListingRemover(cfg.StatusBaseURL, cfg.StatusTimeout, log)

	// ------------- Fan-out -------------
	hub := notify.NewHub(log)

	var broadcaster listingDomain.Broadcaster = hub
	if cfg.BroadcastToKafka {
		log.Info("🚀 Retransmitiendo anuncios tasados a Kafka")
		writer := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   listingDomain.PricedTopic,
		})
		defer writer.Close()

		broadcaster = notify.NewMultiBroadcaster(log, hub, notify.NewKafkaBroadcaster(writer, log))
	}

	// ------------- Coordinador -------------
	coordinator := listingApp.NewRelayCoordinator(
		validator,
		priceLookup,
		auditStore,
		broadcaster,
		deadLetterStore,
		dedupGuard,
		remover,
		listingApp.Config{
			Workers:     cfg.WorkerCount,
			QueueSize:   cfg.QueueSize,
			RetryBase:   cfg.RetryBase,
			RetryMax:    cfg.RetryMax,
			CallTimeout: cfg.PricingTimeout,
		},
		log,
	)
	coordinator.Start()

	// ------------- Suscripciones -------------
	consumer := listingEvents.NewListingConsumer(coordinator, log)

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como transporte de entrada")
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    listingDomain.ListingTopic,
			GroupID:  "carstream-relay",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer reader.Close()

		listingEvents.NewKafkaConsumerAdapter(reader, consumer, log).Start(ctx)
	}

	if cfg.UseRabbitMQ {
		log.Info("🚀 Usando RabbitMQ como transporte de entrada")
		rabbitConn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatal("failed to dial RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()

		rabbitAdapter := listingEvents.NewRabbitConsumerAdapter(rabbitConn, cfg.RabbitQueue, coordinator, log)
		if err := rabbitAdapter.Start(ctx); err != nil {
			log.Fatal("failed to start RabbitMQ consumer", zap.Error(err))
		}
	}

	// ------------- Reporting -------------
	if cfg.ClickHouseOn {
		reportRepo, err := analyticsRepo.NewListingReportRepo(cfg.ClickHouse, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, reporting desactivado", zap.Error(err))
		} else if err := reportRepo.InitSchema(); err != nil {
			log.Warn("⚠️ No se pudo crear el esquema de reporting", zap.Error(err))
		} else {
			reportWorker := infraRelayer.NewReportWorker(auditLister, reportRepo, 30*time.Second, 500, log)
			reportWorker.Start(ctx)
		}
	}

	// ---------------- HTTP ----------------
	handler := listingHttp.NewListingHandler(coordinator, deadLetterStore, remover, hub, cfg.SubscriberBuf)
	router := gin.Default()
	listingHttp.RegisterListingRoutes(router, handler)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "subscribers": hub.SubscriberCount()})
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		log.Info("🚀 Server running",
			zap.String("url", "http://localhost:"+cfg.HTTPPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// ------------- Shutdown -------------
	<-ctx.Done()
	log.Info("🛑 Señal de apagado recibida, drenando pipeline...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if err := coordinator.Close(shutdownCtx); err != nil {
		log.Warn("⚠️ Drenaje incompleto", zap.Error(err))
	}
}
