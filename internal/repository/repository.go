package repository

import (
	"context"
	"errors"
	"time"

	"communities/messages/internal/models"
)

var (
	// ErrNotFound is returned when no message matches the given id
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the backing store cannot be reached
	ErrUnavailable = errors.New("store unavailable")
)

// MessageRepository persists messages
type MessageRepository interface {
	// Insert assigns a fresh id and creation timestamp and stores the message
	Insert(ctx context.Context, input models.CreateMessageInput) (*models.Message, error)
	FindByID(ctx context.Context, id models.MessageID) (*models.Message, error)
	// List returns one page of messages, newest first, and the matching total
	List(ctx context.Context, filter models.MessageFilter, page models.Pagination) ([]models.Message, int64, error)
	// Update applies a partial update and returns the document after modification
	Update(ctx context.Context, id models.MessageID, input models.UpdateMessageInput, updatedAt time.Time) (*models.Message, error)
	Delete(ctx context.Context, id models.MessageID) error
	SetPinned(ctx context.Context, id models.MessageID, pinned bool) error
	// Search matches query case-insensitively against message content in a channel
	Search(ctx context.Context, channelID models.ChannelID, query string, page models.Pagination) ([]models.Message, int64, error)
}

// HealthRepository probes the backing store
type HealthRepository interface {
	Ping(ctx context.Context) error
}
