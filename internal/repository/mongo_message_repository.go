package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communities/messages/internal/models"
	"communities/messages/internal/outbox"
	"communities/messages/internal/repository/mongoid"
	"communities/messages/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessagesCollection holds one document per message
const MessagesCollection = "messages"

var outboxWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "outbox_write_failures_total",
	Help: "Outbox records lost after the primary write had already been committed.",
})

// MongoOptions configures the outbox side of the repository
type MongoOptions struct {
	// Outbox receives one record per mutation. Nil disables event recording.
	Outbox *outbox.Writer
	Routes outbox.Routes
	// Transactions writes the mutation and its outbox record atomically.
	// Without it an outbox failure is logged and the event is lost.
	Transactions bool
}

// MongoMessageRepository stores messages in MongoDB
type MongoMessageRepository struct {
	client   *mongo.Client
	messages *mongo.Collection
	opts     MongoOptions
	log      *logger.Logger
	now      func() time.Time
}

// NewMongoMessageRepository creates a repository on db
func NewMongoMessageRepository(db *mongo.Database, log *logger.Logger, opts MongoOptions) *MongoMessageRepository {
	return &MongoMessageRepository{
		client:   db.Client(),
		messages: db.Collection(MessagesCollection),
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// EnsureIndexes creates the channel listing index
func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("channel_created_at"),
	})
	if err != nil {
		return fmt.Errorf("create messages index: %w", mapError(err))
	}
	return nil
}

func (r *MongoMessageRepository) Insert(ctx context.Context, input models.CreateMessageInput) (*models.Message, error) {
	m := models.NewMessage(input, r.now())
	doc := toDocument(m)

	err := r.withOutbox(ctx, r.opts.Routes.CreateMessage, func(ctx context.Context) (any, error) {
		if _, err := r.messages.InsertOne(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", mapError(err))
	}
	return &m, nil
}

func (r *MongoMessageRepository) FindByID(ctx context.Context, id models.MessageID) (*models.Message, error) {
	var doc messageDocument
	if err := r.messages.FindOne(ctx, idFilter(id)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("find message %s: %w", id, mapError(err))
	}
	m, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MongoMessageRepository) List(ctx context.Context, filter models.MessageFilter, page models.Pagination) ([]models.Message, int64, error) {
	return r.findPage(ctx, listFilter(filter), page)
}

func (r *MongoMessageRepository) Search(ctx context.Context, channelID models.ChannelID, query string, page models.Pagination) ([]models.Message, int64, error) {
	return r.findPage(ctx, searchFilter(channelID, query), page)
}

func (r *MongoMessageRepository) findPage(ctx context.Context, filter bson.M, page models.Pagination) ([]models.Message, int64, error) {
	page = page.Normalize()

	total, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", mapError(err))
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(page.Skip()).
		SetLimit(page.Limit)

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find messages: %w", mapError(err))
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode messages: %w", mapError(err))
	}

	messages, err := toModels(docs)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *MongoMessageRepository) Update(ctx context.Context, id models.MessageID, input models.UpdateMessageInput, updatedAt time.Time) (*models.Message, error) {
	var doc messageDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := r.withOutbox(ctx, r.opts.Routes.UpdateMessage, func(ctx context.Context) (any, error) {
		err := r.messages.FindOneAndUpdate(ctx, idFilter(id), bson.M{"$set": updateSet(input, updatedAt)}, opts).Decode(&doc)
		if err != nil {
			return nil, err
		}
		return messageUpdatedEvent{
			ID:        doc.ID,
			Content:   doc.Content,
			IsPinned:  doc.IsPinned,
			UpdatedAt: doc.UpdatedAt,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update message %s: %w", id, mapError(err))
	}

	m, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MongoMessageRepository) Delete(ctx context.Context, id models.MessageID) error {
	err := r.withOutbox(ctx, r.opts.Routes.DeleteMessage, func(ctx context.Context) (any, error) {
		res, err := r.messages.DeleteOne(ctx, idFilter(id))
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		return messageDeletedEvent{ID: mongoid.FromUUID(id.UUID)}, nil
	})
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, mapError(err))
	}
	return nil
}

func (r *MongoMessageRepository) SetPinned(ctx context.Context, id models.MessageID, pinned bool) error {
	err := r.withOutbox(ctx, r.opts.Routes.PinMessage, func(ctx context.Context) (any, error) {
		res, err := r.messages.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{"is_pinned": pinned}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		return messagePinnedEvent{ID: mongoid.FromUUID(id.UUID), IsPinned: pinned}, nil
	})
	if err != nil {
		return fmt.Errorf("pin message %s: %w", id, mapError(err))
	}
	return nil
}

// withOutbox runs write and records the payload it returns on route
func (r *MongoMessageRepository) withOutbox(ctx context.Context, route outbox.Route, write func(context.Context) (any, error)) error {
	if r.opts.Outbox == nil {
		_, err := write(ctx)
		return err
	}

	if !r.opts.Transactions {
		payload, err := write(ctx)
		if err != nil {
			return err
		}
		if _, err := r.opts.Outbox.Write(ctx, route, payload); err != nil {
			outboxWriteFailures.Inc()
			r.log.LogError(err, "Outbox record lost after committed write",
				"exchange", route.Exchange,
				"routing_key", route.RoutingKey,
			)
		}
		return nil
	}

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		payload, err := write(sc)
		if err != nil {
			return nil, err
		}
		return r.opts.Outbox.Write(sc, route, payload)
	})
	return err
}

// mapError translates driver errors into repository errors
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case errors.Is(err, ErrUnavailable):
		return err
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
