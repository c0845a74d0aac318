package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"communities/messages/internal/authz"
	"communities/messages/internal/outbox"
	"communities/messages/internal/repository"
	"communities/messages/internal/service"
	"communities/messages/pkg/config"
	"communities/messages/pkg/jwt"
	"communities/messages/pkg/logger"
	"communities/messages/pkg/middleware"
	"communities/messages/shared/redis"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

// Container holds all the dependencies for the application
type Container struct {
	Config            *config.Config
	Logger            *logger.Logger
	JWTService        *jwt.Service
	Authorizer        authz.Authorizer
	Revocations       *redis.RevocationStore
	MessageRepository repository.MessageRepository
	MessageService    *service.MessageService
	HealthService     *service.HealthService
	RateLimiter       *middleware.RateLimiter
	MongoClient       *mongo.Client
}

const revocationPingTimeout = 2 * time.Second

// Storage is the persistence half of the container
type Storage struct {
	Messages repository.MessageRepository
	Health   repository.HealthRepository
	Client   *mongo.Client
}

// New builds the container, connecting to the configured database
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	storage, err := NewStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	container, err := NewWithStorage(cfg, log, storage)
	if err != nil {
		if storage.Client != nil {
			_ = storage.Client.Disconnect(context.Background())
		}
		return nil, err
	}

	if container.Revocations != nil {
		pingCtx, cancel := context.WithTimeout(ctx, revocationPingTimeout)
		defer cancel()
		if err := container.Revocations.Ping(pingCtx); err != nil {
			log.LogError(err, "Revocation store unreachable, authenticated requests fail until it recovers",
				"addr", cfg.Redis.Addr,
			)
		}
	}
	return container, nil
}

// NewStorage opens the repositories selected by DATABASE_DRIVER
func NewStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory message store, data is lost on restart")
		repo := repository.NewMemoryMessageRepository()
		return Storage{Messages: repo, Health: repo}, nil

	case config.DriverMongo:
		routes, err := outbox.LoadRoutes(cfg.RoutingConfigPath)
		if err != nil {
			return Storage{}, fmt.Errorf("failed to load routing config: %w", err)
		}

		client, err := config.NewMongoClient(ctx, cfg, log)
		if err != nil {
			return Storage{}, err
		}
		db := client.Database(cfg.Database.Name)

		repo := repository.NewMongoMessageRepository(db, log, repository.MongoOptions{
			Outbox:       outbox.NewWriter(db),
			Routes:       routes,
			Transactions: cfg.Database.Transactions,
		})

		indexCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
		defer cancel()
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return Storage{}, fmt.Errorf("failed to create indexes: %w", err)
		}

		return Storage{
			Messages: repo,
			Health:   repository.NewMongoHealthRepository(db),
			Client:   client,
		}, nil

	default:
		return Storage{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// NewWithStorage wires services and HTTP dependencies on top of existing repositories
func NewWithStorage(cfg *config.Config, log *logger.Logger, storage Storage) (*Container, error) {
	jwtService, err := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	authorizer, err := authz.New(authz.Config{
		Endpoint:   cfg.Authz.Endpoint,
		Token:      cfg.Authz.Token,
		Timeout:    cfg.Authz.Timeout,
		AllowAll:   cfg.Authz.AllowAll,
		Production: cfg.IsProduction(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer: %w", err)
	}

	var revocations *redis.RevocationStore
	if cfg.Redis.Addr != "" {
		revocations = redis.NewRevocationStore(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	rateLimiterOptions := middleware.DefaultRateLimiterOptions()
	rateLimiterOptions.Limit = rate.Limit(cfg.Security.RateLimit)
	rateLimiterOptions.Burst = cfg.Security.RateLimitBurst

	return &Container{
		Config:            cfg,
		Logger:            log,
		JWTService:        jwtService,
		Authorizer:        authorizer,
		Revocations:       revocations,
		MessageRepository: storage.Messages,
		MessageService:    service.NewMessageService(storage.Messages, log),
		HealthService:     service.NewHealthService(storage.Health),
		RateLimiter:       middleware.NewRateLimiter(log, rateLimiterOptions),
		MongoClient:       storage.Client,
	}, nil
}

// Close releases external connections
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Revocations != nil {
		errs = append(errs, c.Revocations.Close())
	}
	if c.MongoClient != nil {
		errs = append(errs, c.MongoClient.Disconnect(ctx))
	}
	return stderrors.Join(errs...)
}
