package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// CapacityError reports a refused approval because the event roster is full.
// It carries the reconciled counts so the caller can decide whether to raise
// capacity or reject someone else.
type CapacityError struct {
	EventTitle  string `json:"event_title"`
	Approved    int    `json:"current_approved"`
	MaxMarshals int    `json:"max_marshals"`
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("event %q is at capacity (%d/%d approved)", e.EventTitle, e.Approved, e.MaxMarshals)
}
