// Package authz answers whether an actor may perform an action on a channel or user.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Permission is an action an actor can be granted
type Permission string

const (
	ViewChannels   Permission = "view_channels"
	SendMessages   Permission = "send_messages"
	ManageMessages Permission = "manage_messages"
	ManageChannels Permission = "manage_channels"
)

// ResourceKind names the type of object a permission applies to
type ResourceKind string

const (
	KindChannel ResourceKind = "channel"
	KindUser    ResourceKind = "user"
)

// Resource identifies the object a permission is checked against
type Resource struct {
	Kind ResourceKind
	ID   uuid.UUID
}

// Channel returns the resource for a channel
func Channel(id uuid.UUID) Resource {
	return Resource{Kind: KindChannel, ID: id}
}

var (
	// ErrUnavailable means no decision could be made
	ErrUnavailable = errors.New("authorization backend unavailable")
	// ErrRejected means the backend refused the request itself, usually a credential or schema mistake
	ErrRejected = errors.New("authorization request rejected")
	// ErrAllowAllInProduction is returned when allow-all is requested in production
	ErrAllowAllInProduction = errors.New("allow-all authorization is not permitted in production")
)

// Authorizer decides permission checks
type Authorizer interface {
	Check(ctx context.Context, actor uuid.UUID, permission Permission, resource Resource) (bool, error)
}

// AllowAll grants every check. Only for local development.
type AllowAll struct{}

func (AllowAll) Check(context.Context, uuid.UUID, Permission, Resource) (bool, error) {
	return true, nil
}

// DenyAll refuses every check
type DenyAll struct{}

func (DenyAll) Check(context.Context, uuid.UUID, Permission, Resource) (bool, error) {
	return false, nil
}
