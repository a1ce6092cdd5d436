// Package notify delivers operator-facing alerts about the agent's own
// health — enrollment outcome, sustained connectivity loss, and job
// results — to one or more external channels. Grounded on the teacher's
// internal/notify/notifier.go: same Notifier/Multi/Logger shapes, re-themed
// from container-update events to agent/job events.
package notify

import (
	"context"
	"sync"
	"time"
)

// EventType identifies what happened in the agent's own lifecycle.
type EventType string

const (
	EventEnrollmentSucceeded EventType = "enrollment_succeeded"
	EventEnrollmentFailed    EventType = "enrollment_failed"
	EventHeartbeatDegraded   EventType = "heartbeat_degraded"
	EventHeartbeatRecovered  EventType = "heartbeat_recovered"
	EventJobFailed           EventType = "job_failed"
	EventJobTimeout          EventType = "job_timeout"
	EventPowerAction         EventType = "power_action"
)

// AllEventTypes returns all event types that can be filtered for notifications.
func AllEventTypes() []EventType {
	return []EventType{
		EventEnrollmentSucceeded,
		EventEnrollmentFailed,
		EventHeartbeatDegraded,
		EventHeartbeatRecovered,
		EventJobFailed,
		EventJobTimeout,
		EventPowerAction,
	}
}

// NotifyEvent represents a notification event raised by the agent.
type NotifyEvent struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"job_id,omitempty"`
	JobType   string    `json:"job_type,omitempty"`
	HostID    string    `json:"host_id"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier sends events to an external system.
type Notifier interface {
	Send(ctx context.Context, event NotifyEvent) error
	Name() string
}

// Logger is a minimal logging interface to avoid importing the logging package.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Multi fans out events to multiple notifiers.
// It never returns errors — failures are logged but don't block the caller.
type Multi struct {
	mu        sync.RWMutex
	notifiers []Notifier
	log       Logger
}

// NewMulti creates a dispatcher from the given notifiers.
func NewMulti(log Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, log: log}
}

// Notify sends an event to all registered notifiers.
// Returns true if at least one notifier succeeded (or none are configured).
// Errors are logged but never propagated — notifications must not block the
// job pipeline or the scheduler loops.
func (m *Multi) Notify(ctx context.Context, event NotifyEvent) bool {
	m.mu.RLock()
	notifiers := m.notifiers
	m.mu.RUnlock()

	if len(notifiers) == 0 {
		return true
	}

	anyOK := false
	for _, n := range notifiers {
		if err := n.Send(ctx, event); err != nil {
			m.log.Error("notification failed",
				"provider", n.Name(),
				"event", string(event.Type),
				"job_id", event.JobID,
				"error", err.Error(),
			)
		} else {
			anyOK = true
		}
	}
	return anyOK
}

// Reconfigure replaces the notifier chain at runtime.
func (m *Multi) Reconfigure(notifiers ...Notifier) {
	m.mu.Lock()
	m.notifiers = notifiers
	m.mu.Unlock()
}
