package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/carstream/internal/listing/domain"
)

// AuditStoreMongoDB es la variante MongoDB del log de auditoría. El
// índice único compuesto sobre (registration, listedAt) aporta la
// misma idempotencia que la clave primaria de las variantes SQL.
type AuditStoreMongoDB struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ domain.AuditStore = (*AuditStoreMongoDB)(nil)

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoAuditRecord struct {
	Registration string    `bson:"registration"`
	ListedAt     time.Time `bson:"listedAt"`
	Manufacturer string    `bson:"manufacturer"`
	ModelCode    string    `bson:"modelCode"`
	ModelName    string    `bson:"modelName"`
	Color        string    `bson:"color"`
	Year         int       `bson:"year"`
	Price        int       `bson:"price"`
	CurrencyCode string    `bson:"currencyCode"`
	WrittenOff   bool      `bson:"writtenOff"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// NewAuditStoreMongoDB es el constructor; crea el índice único de
// deduplicación al arrancar.
func NewAuditStoreMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*AuditStoreMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	coll := client.Database(dbName).Collection("audit_log")

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "registration", Value: 1}, {Key: "listedAt", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create dedup index: %w", err)
	}

	return &AuditStoreMongoDB{client: client, coll: coll}, nil
}

// Append inserta el registro; el error de clave duplicada del índice
// único se absorbe como éxito.
func (s *AuditStoreMongoDB) Append(ctx context.Context, evt domain.PricedListingEvent) error {
	record := mongoAuditRecord{
		Registration: evt.Registration,
		ListedAt:     evt.ListedAtUtc.UTC(),
		Manufacturer: evt.Manufacturer,
		ModelCode:    evt.ModelCode,
		ModelName:    evt.ModelName,
		Color:        evt.Color,
		Year:         evt.Year,
		Price:        evt.Price,
		CurrencyCode: evt.CurrencyCode,
		WrittenOff:   evt.WrittenOff,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil // duplicado: sin efecto, sin error
		}
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// List devuelve los registros más recientes.
func (s *AuditStoreMongoDB) List(ctx context.Context, limit int) ([]domain.PricedListingEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.PricedListingEvent
	for cursor.Next(ctx) {
		var rec mongoAuditRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, err
		}
		records = append(records, domain.PricedListingEvent{
			ListingEvent: domain.ListingEvent{
				Registration: rec.Registration,
				Manufacturer: rec.Manufacturer,
				ModelCode:    rec.ModelCode,
				ModelName:    rec.ModelName,
				Color:        rec.Color,
				Year:         rec.Year,
				ListedAtUtc:  rec.ListedAt,
			},
			Price:        rec.Price,
			CurrencyCode: rec.CurrencyCode,
			WrittenOff:   rec.WrittenOff,
		})
	}
	return records, cursor.Err()
}
