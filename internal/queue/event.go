// Package queue defines message payloads exchanged over the message broker.
package queue

// Email kinds dispatched through the outbound queue.
const (
	EmailKindInvitation = "invitation"
	EmailKindReminder   = "reminder"
)

// EmailQueuedEvent is published once per guest email. The payload is
// fully rendered before publishing so the consumer can deliver it
// without touching the primary database.
type EmailQueuedEvent struct {
	Kind     string `json:"kind"`
	UserID   uint64 `json:"user_id"`
	GuestID  uint64 `json:"guest_id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	QueuedAt string `json:"queued_at"`
}
