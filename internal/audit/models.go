package audit

import "time"

// EventType classifies audit events.
type EventType string

const (
	// EventStatusChanged records a normalized status transition.
	EventStatusChanged EventType = "status_changed"
	// EventWebhookReceived records an inbound provider webhook, applied or not.
	EventWebhookReceived EventType = "webhook_received"
	// EventPersistFailed records a status write that could not be stored.
	// The request still succeeded; this is the observability trail for it.
	EventPersistFailed EventType = "persist_failed"
)

// Event is one structured audit record, keyed by external user id so a
// per-subject history stays ordered within a partition.
type Event struct {
	Type           EventType `json:"type"`
	ExternalUserID string    `json:"external_user_id"`
	ApplicantID    string    `json:"applicant_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	WebhookType    string    `json:"webhook_type,omitempty"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
