package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when a string is not a valid identifier
var ErrInvalidID = errors.New("invalid id")

// MessageID identifies a message
type MessageID struct{ uuid.UUID }

// ChannelID identifies the channel a message belongs to
type ChannelID struct{ uuid.UUID }

// AuthorID identifies the user who wrote a message
type AuthorID struct{ uuid.UUID }

// AttachmentID identifies an attachment inside a message
type AttachmentID struct{ uuid.UUID }

func NewMessageID() MessageID       { return MessageID{uuid.New()} }
func NewAttachmentID() AttachmentID { return AttachmentID{uuid.New()} }

// ParseMessageID parses the canonical string form of a message id
func ParseMessageID(s string) (MessageID, error) {
	u, err := parseUUID(s)
	return MessageID{u}, err
}

// ParseChannelID parses the canonical string form of a channel id
func ParseChannelID(s string) (ChannelID, error) {
	u, err := parseUUID(s)
	return ChannelID{u}, err
}

// ParseAuthorID parses the canonical string form of an author id
func ParseAuthorID(s string) (AuthorID, error) {
	u, err := parseUUID(s)
	return AuthorID{u}, err
}

func parseUUID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return u, nil
}
