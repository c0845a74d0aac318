// Package health reports whether the message store is reachable, over HTTP and gRPC.
package health

import (
	"context"
	"time"
)

// Status is the overall service status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// DatabaseStatus is the reachability of the message store
type DatabaseStatus string

const (
	DatabaseConnected    DatabaseStatus = "connected"
	DatabaseDisconnected DatabaseStatus = "disconnected"
)

// Prober checks a dependency on every call
type Prober interface {
	CheckHealth(ctx context.Context) error
}

// Report is the health response body
type Report struct {
	Status         Status         `json:"status"`
	DatabaseStatus DatabaseStatus `json:"database_status"`
	Timestamp      string         `json:"timestamp"`
}

// Healthy reports whether the report should be served with a success status
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Probe runs the prober and builds a report stamped with now
func Probe(ctx context.Context, prober Prober, now time.Time) (Report, error) {
	report := Report{
		Status:         StatusHealthy,
		DatabaseStatus: DatabaseConnected,
		Timestamp:      now.UTC().Format(time.RFC3339),
	}

	err := prober.CheckHealth(ctx)
	if err != nil {
		report.Status = StatusUnhealthy
		report.DatabaseStatus = DatabaseDisconnected
	}
	return report, err
}
