package resilience

import (
	"errors"
	"sync"
	"time"

	"communities/messages/pkg/logger"
)

// ErrCircuitOpen is returned without calling the wrapped function while the circuit is open
var ErrCircuitOpen = errors.New("circuit open")

// CircuitBreakerState represents the current state of a circuit breaker
type CircuitBreakerState string

const (
	// StateClosed lets every call through
	StateClosed CircuitBreakerState = "closed"
	// StateOpen short-circuits every call until the retry timeout elapses
	StateOpen CircuitBreakerState = "open"
	// StateHalfOpen lets a limited number of trial calls through
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
}

// DefaultCircuitBreakerConfig returns a default circuit breaker configuration
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// CircuitBreaker stops calling a failing dependency for a while
type CircuitBreaker struct {
	config          CircuitBreakerConfig
	mutex           sync.Mutex
	state           CircuitBreakerState
	failureCount    uint
	successCount    uint
	nextAttemptTime time.Time
	now             func() time.Time
	log             *logger.Logger
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig, log *logger.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
		log:    log,
	}
}

// Execute runs fn through the circuit breaker
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttemptTime) {
			return false
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
		cb.log.Info("Circuit breaker half-open", "name", cb.config.Name)
		return true
	case StateHalfOpen:
		return cb.successCount < cb.config.SuccessThreshold
	default:
		return true
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.log.Info("Circuit breaker closed", "name", cb.config.Name)
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		cb.open()
	}
}

// open must be called with the mutex held
func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.nextAttemptTime = cb.now().Add(cb.config.RetryTimeout)
	cb.log.Warn("Circuit breaker opened",
		"name", cb.config.Name,
		"failures", cb.failureCount,
		"next_attempt", cb.nextAttemptTime.Format(time.RFC3339),
	)
}
