package authz

import (
	"time"

	"communities/messages/pkg/logger"
	"communities/messages/pkg/resilience"
)

// Config selects and configures an Authorizer
type Config struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	AllowAll   bool
	Production bool
}

// New picks the authorizer for the given configuration.
// Without an endpoint every check is denied unless allow-all was asked for outside production.
func New(cfg Config, log *logger.Logger) (Authorizer, error) {
	if cfg.AllowAll {
		if cfg.Production {
			return nil, ErrAllowAllInProduction
		}
		log.Warn("Authorization disabled, every request is allowed")
		return AllowAll{}, nil
	}

	if cfg.Endpoint == "" {
		log.Warn("No authorization endpoint configured, every request is denied")
		return DenyAll{}, nil
	}

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("authz"), log)
	return NewRemote(cfg.Endpoint, cfg.Token, cfg.Timeout, breaker), nil
}
