package outbox

import (
	"context"
	"fmt"
	"time"

	"communities/messages/internal/repository/mongoid"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// CollectionName is where outbox records are appended
	CollectionName = "outbox_messages"
	// StatusReady marks a record as waiting for publication
	StatusReady = "READY"
)

// Record is the stored form of an outbox entry
type Record struct {
	ID           primitive.Binary `bson:"_id"`
	ExchangeName string           `bson:"exchange_name"`
	RoutingKey   string           `bson:"routing_key"`
	Payload      any              `bson:"payload"`
	Status       string           `bson:"status"`
	CreatedAt    time.Time        `bson:"created_at"`
}

// NewRecord builds a READY record for route
func NewRecord(id uuid.UUID, route Route, payload any, now time.Time) Record {
	return Record{
		ID:           mongoid.FromUUID(id),
		ExchangeName: route.Exchange,
		RoutingKey:   route.RoutingKey,
		Payload:      payload,
		Status:       StatusReady,
		CreatedAt:    now.UTC().Truncate(time.Millisecond),
	}
}

// Writer appends records to the outbox collection. Nothing in this service
// reads them back; a separate relay is expected to publish and mark them.
type Writer struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewWriter creates a writer on db
func NewWriter(db *mongo.Database) *Writer {
	return &Writer{
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

// Write inserts one record. Pass a session context to join a transaction.
func (w *Writer) Write(ctx context.Context, route Route, payload any) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := w.collection.InsertOne(ctx, NewRecord(id, route, payload, w.now())); err != nil {
		return uuid.Nil, fmt.Errorf("insert outbox record: %w", err)
	}
	return id, nil
}
