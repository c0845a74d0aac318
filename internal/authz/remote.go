package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"communities/messages/pkg/resilience"

	"github.com/google/uuid"
)

const (
	checkPath     = "/v1/permissions/check"
	hasPermission = "PERMISSIONSHIP_HAS_PERMISSION"
)

type objectReference struct {
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectId"`
}

type subjectReference struct {
	Object objectReference `json:"object"`
}

type consistency struct {
	MinimizeLatency bool `json:"minimizeLatency"`
}

type checkRequest struct {
	Consistency consistency      `json:"consistency"`
	Resource    objectReference  `json:"resource"`
	Permission  string           `json:"permission"`
	Subject     subjectReference `json:"subject"`
}

type checkResponse struct {
	Permissionship string `json:"permissionship"`
}

// Remote asks a SpiceDB-compatible HTTP API for each decision
type Remote struct {
	endpoint string
	token    string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
}

// NewRemote creates a Remote authorizer
func NewRemote(endpoint, token string, timeout time.Duration, breaker *resilience.CircuitBreaker) *Remote {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Remote{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
		breaker:  breaker,
	}
}

// Check implements Authorizer
func (r *Remote) Check(ctx context.Context, actor uuid.UUID, permission Permission, resource Resource) (bool, error) {
	var (
		allowed  bool
		rejected error
	)
	err := r.breaker.Execute(func() error {
		var err error
		allowed, err = r.check(ctx, actor, permission, resource)
		// a rejected request says nothing about backend health
		if errors.Is(err, ErrRejected) {
			rejected = err
			return nil
		}
		return err
	})
	if rejected != nil {
		return false, rejected
	}
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return false, err
	}
	return allowed, nil
}

func (r *Remote) check(ctx context.Context, actor uuid.UUID, permission Permission, resource Resource) (bool, error) {
	body, err := json.Marshal(checkRequest{
		Consistency: consistency{MinimizeLatency: true},
		Resource:    objectReference{ObjectType: string(resource.Kind), ObjectID: resource.ID.String()},
		Permission:  string(permission),
		Subject:     subjectReference{Object: objectReference{ObjectType: string(KindUser), ObjectID: actor.String()}},
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+checkPath, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return false, fmt.Errorf("%w: check returned status %d", ErrRejected, resp.StatusCode)
	default:
		return false, fmt.Errorf("%w: check returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var result checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("%w: decode check response: %v", ErrUnavailable, err)
	}
	return result.Permissionship == hasPermission, nil
}
