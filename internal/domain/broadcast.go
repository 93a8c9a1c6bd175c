package domain

import "time"

const (
	FilterAll      = "all"
	FilterByType   = "by-type"
	FilterByEvent  = "by-event"
	FilterApproved = "approved"
	FilterPending  = "pending"
)

// RecipientFilter is the declarative description of a broadcast audience.
type RecipientFilter struct {
	Kind    string   `json:"kind" validate:"required,oneof=all by-type by-event approved pending"`
	Types   []string `json:"types,omitempty"`    // required when kind=by-type
	EventID string   `json:"event_id,omitempty"` // required when kind=by-event
}

// BroadcastChannels selects the delivery channels beyond the in-app ledger,
// which is always written.
type BroadcastChannels struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
}

// BroadcastMessage is the append-only audit record of one broadcast send.
// Persisting it is best-effort and never blocks delivery.
type BroadcastMessage struct {
	BroadcastID    string          `json:"id" dynamodbav:"broadcast_id"`
	Subject        string          `json:"subject" dynamodbav:"subject"`
	Body           string          `json:"body" dynamodbav:"body"`
	Filter         RecipientFilter `json:"filter" dynamodbav:"filter"`
	Channels       []string        `json:"channels" dynamodbav:"channels"`
	Priority       string          `json:"priority" dynamodbav:"priority"`
	SentBy         string          `json:"sent_by" dynamodbav:"sent_by"`
	RecipientCount int             `json:"recipient_count" dynamodbav:"recipient_count"`
	SentAt         time.Time       `json:"sent_at" dynamodbav:"sent_at"`
}

type SendBroadcastRequest struct {
	Subject  string            `json:"subject" validate:"required"`
	Message  string            `json:"message" validate:"required"`
	Filter   RecipientFilter   `json:"recipient_filter" validate:"required"`
	Channels BroadcastChannels `json:"channels"`
	Priority string            `json:"priority" validate:"omitempty,oneof=low normal high"`
}
