package resilience

import (
	"errors"
	"testing"
	"time"

	"communities/messages/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTransitions(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "authz",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
	}, logger.Discard())
	cb.now = func() time.Time { return now }

	failure := errors.New("backend down")
	calls := 0
	failing := func() error { calls++; return failure }
	ok := func() error { calls++; return nil }

	assert.ErrorIs(t, cb.Execute(failing), failure)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(failing), failure)
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)
	assert.Equal(t, 2, calls, "open circuit does not call through")

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "authz", FailureThreshold: 1, SuccessThreshold: 1, RetryTimeout: time.Second}, logger.Discard())
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())
}
