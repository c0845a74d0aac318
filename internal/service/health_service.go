package service

import (
	"context"
	"fmt"

	"communities/messages/internal/repository"
)

// HealthService reports whether the message store is reachable
type HealthService struct {
	repo repository.HealthRepository
}

func NewHealthService(repo repository.HealthRepository) *HealthService {
	return &HealthService{repo: repo}
}

// CheckHealth probes the store on every call
func (s *HealthService) CheckHealth(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	return nil
}
