package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"communities/messages/internal/models"
)

type memoryEntry struct {
	message models.Message
	seq     uint64
}

// MemoryMessageRepository keeps messages in process memory. It backs local
// development with DATABASE_DRIVER=memory and the service tests.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[models.MessageID]*memoryEntry
	seq      uint64
	now      func() time.Time
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[models.MessageID]*memoryEntry),
		now:      time.Now,
	}
}

// WithClock replaces the clock used for creation timestamps
func (r *MemoryMessageRepository) WithClock(now func() time.Time) *MemoryMessageRepository {
	r.now = now
	return r
}

func (r *MemoryMessageRepository) Insert(_ context.Context, input models.CreateMessageInput) (*models.Message, error) {
	m := models.NewMessage(input, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.messages[m.ID] = &memoryEntry{message: clone(m), seq: r.seq}
	return &m, nil
}

func (r *MemoryMessageRepository) FindByID(_ context.Context, id models.MessageID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	m := clone(entry.message)
	return &m, nil
}

func (r *MemoryMessageRepository) List(_ context.Context, filter models.MessageFilter, page models.Pagination) ([]models.Message, int64, error) {
	return r.page(page, func(m models.Message) bool {
		return m.ChannelID == filter.ChannelID && (!filter.PinnedOnly || m.IsPinned)
	})
}

func (r *MemoryMessageRepository) Search(_ context.Context, channelID models.ChannelID, query string, page models.Pagination) ([]models.Message, int64, error) {
	needle := strings.ToLower(query)
	return r.page(page, func(m models.Message) bool {
		return m.ChannelID == channelID && strings.Contains(strings.ToLower(m.Content), needle)
	})
}

func (r *MemoryMessageRepository) page(page models.Pagination, match func(models.Message) bool) ([]models.Message, int64, error) {
	page = page.Normalize()

	r.mu.RLock()
	matched := make([]*memoryEntry, 0)
	for _, entry := range r.messages {
		if match(entry.message) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.message.CreatedAt.Equal(b.message.CreatedAt) {
			return a.message.CreatedAt.After(b.message.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := int64(len(matched))
	start := page.Skip()
	if start < 0 || start >= total {
		return []models.Message{}, total, nil
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	result := make([]models.Message, 0, end-start)
	for _, entry := range matched[start:end] {
		result = append(result, clone(entry.message))
	}
	return result, total, nil
}

func (r *MemoryMessageRepository) Update(_ context.Context, id models.MessageID, input models.UpdateMessageInput, updatedAt time.Time) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	entry.message = entry.message.Apply(input, updatedAt)
	m := clone(entry.message)
	return &m, nil
}

func (r *MemoryMessageRepository) Delete(_ context.Context, id models.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages[id]; !ok {
		return ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *MemoryMessageRepository) SetPinned(_ context.Context, id models.MessageID, pinned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.messages[id]
	if !ok {
		return ErrNotFound
	}
	entry.message.IsPinned = pinned
	return nil
}

// Ping always succeeds
func (r *MemoryMessageRepository) Ping(context.Context) error {
	return nil
}

func clone(m models.Message) models.Message {
	m.Attachments = append([]models.Attachment{}, m.Attachments...)
	if m.UpdatedAt != nil {
		ts := *m.UpdatedAt
		m.UpdatedAt = &ts
	}
	if m.ReplyToMessageID != nil {
		reply := *m.ReplyToMessageID
		m.ReplyToMessageID = &reply
	}
	return m
}
