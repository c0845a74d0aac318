package repository

import (
	"fmt"
	"regexp"
	"time"

	"communities/messages/internal/models"
	"communities/messages/internal/repository/mongoid"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type attachmentDocument struct {
	ID   primitive.Binary `bson:"id"`
	Name string           `bson:"name"`
	URL  string           `bson:"url"`
}

type messageDocument struct {
	ID               primitive.Binary     `bson:"_id"`
	ChannelID        primitive.Binary     `bson:"channel_id"`
	AuthorID         primitive.Binary     `bson:"author_id"`
	Content          string               `bson:"content"`
	ReplyToMessageID *primitive.Binary    `bson:"reply_to_message_id,omitempty"`
	Attachments      []attachmentDocument `bson:"attachments"`
	IsPinned         bool                 `bson:"is_pinned"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        *time.Time           `bson:"updated_at,omitempty"`
}

// outbox payloads

type messageUpdatedEvent struct {
	ID        primitive.Binary `bson:"id"`
	Content   string           `bson:"content"`
	IsPinned  bool             `bson:"is_pinned"`
	UpdatedAt *time.Time       `bson:"updated_at,omitempty"`
}

type messageDeletedEvent struct {
	ID primitive.Binary `bson:"id"`
}

type messagePinnedEvent struct {
	ID       primitive.Binary `bson:"id"`
	IsPinned bool             `bson:"is_pinned"`
}

func toDocument(m models.Message) messageDocument {
	attachments := make([]attachmentDocument, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, attachmentDocument{
			ID:   mongoid.FromUUID(a.ID.UUID),
			Name: a.Name,
			URL:  a.URL,
		})
	}

	doc := messageDocument{
		ID:          mongoid.FromUUID(m.ID.UUID),
		ChannelID:   mongoid.FromUUID(m.ChannelID.UUID),
		AuthorID:    mongoid.FromUUID(m.AuthorID.UUID),
		Content:     m.Content,
		Attachments: attachments,
		IsPinned:    m.IsPinned,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.ReplyToMessageID != nil {
		reply := mongoid.FromUUID(m.ReplyToMessageID.UUID)
		doc.ReplyToMessageID = &reply
	}
	return doc
}

func (d messageDocument) toModel() (models.Message, error) {
	id, err := mongoid.ToUUID(d.ID)
	if err != nil {
		return models.Message{}, fmt.Errorf("message _id: %w", err)
	}
	channelID, err := mongoid.ToUUID(d.ChannelID)
	if err != nil {
		return models.Message{}, fmt.Errorf("message channel_id: %w", err)
	}
	authorID, err := mongoid.ToUUID(d.AuthorID)
	if err != nil {
		return models.Message{}, fmt.Errorf("message author_id: %w", err)
	}

	m := models.Message{
		ID:          models.MessageID{UUID: id},
		ChannelID:   models.ChannelID{UUID: channelID},
		AuthorID:    models.AuthorID{UUID: authorID},
		Content:     d.Content,
		Attachments: make([]models.Attachment, 0, len(d.Attachments)),
		IsPinned:    d.IsPinned,
		CreatedAt:   d.CreatedAt.UTC(),
	}

	if d.ReplyToMessageID != nil {
		replyID, err := mongoid.ToUUID(*d.ReplyToMessageID)
		if err != nil {
			return models.Message{}, fmt.Errorf("message reply_to_message_id: %w", err)
		}
		m.ReplyToMessageID = &models.MessageID{UUID: replyID}
	}
	if d.UpdatedAt != nil {
		updatedAt := d.UpdatedAt.UTC()
		m.UpdatedAt = &updatedAt
	}

	for _, a := range d.Attachments {
		attachmentID, err := mongoid.ToUUID(a.ID)
		if err != nil {
			return models.Message{}, fmt.Errorf("attachment id: %w", err)
		}
		m.Attachments = append(m.Attachments, models.Attachment{
			ID:   models.AttachmentID{UUID: attachmentID},
			Name: a.Name,
			URL:  a.URL,
		})
	}

	return m, nil
}

func toModels(docs []messageDocument) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		m, err := d.toModel()
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func idFilter(id models.MessageID) bson.M {
	return bson.M{"_id": mongoid.FromUUID(id.UUID)}
}

func listFilter(filter models.MessageFilter) bson.M {
	q := bson.M{"channel_id": mongoid.FromUUID(filter.ChannelID.UUID)}
	if filter.PinnedOnly {
		q["is_pinned"] = true
	}
	return q
}

func searchFilter(channelID models.ChannelID, query string) bson.M {
	return bson.M{
		"channel_id": mongoid.FromUUID(channelID.UUID),
		"content":    primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
	}
}

func updateSet(input models.UpdateMessageInput, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt.UTC().Truncate(time.Millisecond)}
	if input.Content != nil {
		set["content"] = *input.Content
	}
	if input.IsPinned != nil {
		set["is_pinned"] = *input.IsPinned
	}
	return set
}

// newestFirst orders by creation time descending with the id as tie breaker
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
