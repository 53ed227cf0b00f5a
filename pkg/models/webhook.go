package models

import (
	"time"

	"github.com/google/uuid"
)

// Webhook event types. EventWebhookTest is delivery-only: it cannot be
// subscribed to and is sent when an endpoint is explicitly tested.
const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
	EventBulkCompleted     = "bulk_analysis.completed"
	EventWebhookTest       = "webhook.test"
)

// ValidEventType reports whether t is a subscribable event type.
func ValidEventType(t string) bool {
	switch t {
	case EventAnalysisCompleted, EventAnalysisFailed, EventBulkCompleted:
		return true
	}
	return false
}

// Webhook is a registered notification endpoint for a project.
type Webhook struct {
	ID              uuid.UUID  `json:"id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	URL             string     `json:"url"`
	Secret          string     `json:"-"`
	EventTypes      []string   `json:"event_types"`
	Active          bool       `json:"active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SubscribedTo reports whether the webhook wants the given event type.
func (w *Webhook) SubscribedTo(eventType string) bool {
	for _, t := range w.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// Event is a webhook notification payload. Data carries the triggering
// analysis or bulk summary.
type Event struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
