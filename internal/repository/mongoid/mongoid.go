// Package mongoid is the single place where identifiers are converted to and
// from their stored form. Every UUID is written as BSON binary subtype 4 and
// every filter selects on the same representation.
package mongoid

import (
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubtypeUUID is the BSON binary subtype for RFC 4122 UUIDs
const SubtypeUUID byte = 0x04

// FromUUID encodes u for storage
func FromUUID(u uuid.UUID) primitive.Binary {
	data := make([]byte, len(u))
	copy(data, u[:])
	return primitive.Binary{Subtype: SubtypeUUID, Data: data}
}

// ToUUID decodes a stored identifier
func ToUUID(b primitive.Binary) (uuid.UUID, error) {
	if b.Subtype != SubtypeUUID {
		return uuid.Nil, fmt.Errorf("unexpected binary subtype 0x%02x for uuid", b.Subtype)
	}
	u, err := uuid.FromBytes(b.Data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode uuid: %w", err)
	}
	return u, nil
}
