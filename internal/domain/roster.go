package domain

import "time"

const (
	RosterInvited  = "invited"
	RosterAccepted = "accepted"
	RosterApproved = "approved" // legacy alias for accepted, still present in stored data
	RosterDeclined = "declined"
	RosterRemoved  = "removed"
)

// RosterEntry links a marshal to an event. Entries are created either by a
// direct administrator invitation or as a side effect of approving an
// attendance request, so the same (event, marshal) pair can be represented
// by both a RosterEntry and an AttendanceRequest. Headcounts always go
// through the reconciler, which merges and deduplicates the two record sets.
type RosterEntry struct {
	EntryID     string     `json:"id" dynamodbav:"entry_id"`
	EventID     string     `json:"event_id" dynamodbav:"event_id"`
	MarshalID   string     `json:"marshal_id" dynamodbav:"marshal_id"`
	Status      string     `json:"status" dynamodbav:"status"`
	Notes       string     `json:"notes,omitempty" dynamodbav:"notes"`
	InvitedAt   time.Time  `json:"invited_at" dynamodbav:"invited_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty" dynamodbav:"responded_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Counted reports whether the entry represents an effective membership.
func (e *RosterEntry) Counted() bool {
	return e.Status == RosterAccepted || e.Status == RosterApproved
}

// RosterMember is one deduplicated member in a reconciled roster.
type RosterMember struct {
	MarshalID string    `json:"marshal_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Source    string    `json:"source"` // "roster" or "request"
	Since     time.Time `json:"since"`
}

// RosterSummary is the reconciled headcount for one event, the single
// source of truth for how many marshals are committed.
type RosterSummary struct {
	EventID        string         `json:"event_id"`
	AcceptedCount  int            `json:"accepted_count"`
	AvailableSlots int            `json:"available_slots"`
	MaxMarshals    int            `json:"max_marshals"`
	Members        []RosterMember `json:"members"`
}

type InviteMarshalRequest struct {
	MarshalID string `json:"marshal_id" validate:"required"`
	Notes     string `json:"notes"`
}

type RespondInvitationRequest struct {
	Accept bool `json:"accept"`
}
