package domain

import "time"

const (
	AttendancePending   = "pending"
	AttendanceApproved  = "approved"
	AttendanceRejected  = "rejected"
	AttendanceCancelled = "cancelled"
)

// AttendanceRequest is a marshal's request to work a specific event. It is
// created pending, decided exactly once by an administrator, or cancelled by
// its owner before the event starts.
type AttendanceRequest struct {
	RequestID          string     `json:"id" dynamodbav:"request_id"`
	MarshalID          string     `json:"marshal_id" dynamodbav:"marshal_id"`
	EventID            string     `json:"event_id" dynamodbav:"event_id"`
	Status             string     `json:"status" dynamodbav:"status"`
	Notes              string     `json:"notes,omitempty" dynamodbav:"notes"`
	RegisteredAt       time.Time  `json:"registered_at" dynamodbav:"registered_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" dynamodbav:"cancelled_at"`
	CancellationReason string     `json:"cancellation_reason,omitempty" dynamodbav:"cancellation_reason"`
	UpdatedAt          time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Active reports whether the request still occupies or may occupy a slot.
func (r *AttendanceRequest) Active() bool {
	return r.Status == AttendancePending || r.Status == AttendanceApproved
}

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type RegisterAttendanceRequest struct {
	Notes string `json:"notes"`
}

type DecideAttendanceRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes"`
}

type CancelAttendanceRequest struct {
	Reason string `json:"reason"`
}
