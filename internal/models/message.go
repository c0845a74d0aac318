package models

import (
	"strings"
	"time"
)

// Attachment is a file linked to a message. Attachments are immutable once stored.
type Attachment struct {
	ID   AttachmentID `json:"id"`
	Name string       `json:"name"`
	URL  string       `json:"url"`
}

// Message is a single message posted to a channel
type Message struct {
	ID               MessageID    `json:"id"`
	ChannelID        ChannelID    `json:"channel_id"`
	AuthorID         AuthorID     `json:"author_id"`
	Content          string       `json:"content"`
	ReplyToMessageID *MessageID   `json:"reply_to_message_id,omitempty"`
	Attachments      []Attachment `json:"attachments"`
	IsPinned         bool         `json:"is_pinned"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        *time.Time   `json:"updated_at,omitempty"`
}

// NewAttachment is an attachment that has not been assigned an id yet
type NewAttachment struct {
	Name string
	URL  string
}

// CreateMessageInput carries everything needed to store a new message
type CreateMessageInput struct {
	ChannelID        ChannelID
	AuthorID         AuthorID
	Content          string
	ReplyToMessageID *MessageID
	Attachments      []NewAttachment
}

// UpdateMessageInput is a partial update. Nil fields keep their stored value.
type UpdateMessageInput struct {
	Content  *string
	IsPinned *bool
}

// MessageFilter restricts list queries
type MessageFilter struct {
	ChannelID  ChannelID
	PinnedOnly bool
}

// NewMessage builds the stored form of a create request with fresh ids.
// createdAt is truncated to millisecond precision, the resolution of the store.
func NewMessage(input CreateMessageInput, createdAt time.Time) Message {
	attachments := make([]Attachment, 0, len(input.Attachments))
	for _, a := range input.Attachments {
		attachments = append(attachments, Attachment{
			ID:   NewAttachmentID(),
			Name: a.Name,
			URL:  a.URL,
		})
	}

	return Message{
		ID:               NewMessageID(),
		ChannelID:        input.ChannelID,
		AuthorID:         input.AuthorID,
		Content:          input.Content,
		ReplyToMessageID: input.ReplyToMessageID,
		Attachments:      attachments,
		CreatedAt:        createdAt.UTC().Truncate(time.Millisecond),
	}
}

// Apply returns a copy of m with the update applied
func (m Message) Apply(input UpdateMessageInput, updatedAt time.Time) Message {
	if input.Content != nil {
		m.Content = *input.Content
	}
	if input.IsPinned != nil {
		m.IsPinned = *input.IsPinned
	}
	ts := updatedAt.UTC().Truncate(time.Millisecond)
	m.UpdatedAt = &ts
	return m
}

// IsBlankContent reports whether content is empty once whitespace is trimmed
func IsBlankContent(content string) bool {
	return strings.TrimSpace(content) == ""
}
