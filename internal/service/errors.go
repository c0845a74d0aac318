package service

import (
	"errors"
	"fmt"

	"communities/messages/internal/repository"
)

var (
	ErrNotFound       = errors.New("message not found")
	ErrInvalidContent = errors.New("message content must not be empty")
	ErrInvalidQuery   = errors.New("search query must not be empty")
	ErrUnavailable    = errors.New("message store unavailable")
	ErrUnhealthy      = errors.New("message store unhealthy")
	ErrInternal       = errors.New("internal error")
)

// fromRepository maps repository errors onto the service vocabulary
func fromRepository(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
