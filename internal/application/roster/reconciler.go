package roster

import (
	"context"

	"github.com/marshalhq/marshals-api/internal/domain"
)

// Reconciler merges the two independently-written membership records for an
// event (roster entries and approved attendance requests) into one
// deduplicated headcount. It is the single counting authority: every
// capacity check and every count display goes through Reconcile.
type Reconciler interface {
	Reconcile(ctx context.Context, event *domain.Event) (*domain.RosterSummary, error)
}

type rosterStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]domain.RosterEntry, error)
}

type attendanceStore interface {
	ListByEvent(ctx context.Context, eventID, status string) ([]domain.AttendanceRequest, error)
}

type marshalStore interface {
	GetBatch(ctx context.Context, marshalIDs []string) ([]domain.Marshal, error)
}

type reconciler struct {
	rosterRepo     rosterStore
	attendanceRepo attendanceStore
	marshalRepo    marshalStore
}

func NewReconciler(rosterRepo rosterStore, attendanceRepo attendanceStore, marshalRepo marshalStore) Reconciler {
	return &reconciler{
		rosterRepo:     rosterRepo,
		attendanceRepo: attendanceRepo,
		marshalRepo:    marshalRepo,
	}
}

// Reconcile is a pure read. Accepted roster entries come first in the merge,
// then approved attendance requests projected to roster shape; duplicates by
// marshal ID keep the first occurrence, so when both physical records exist
// for one person the roster entry's attributes win for display.
func (r *reconciler) Reconcile(ctx context.Context, event *domain.Event) (*domain.RosterSummary, error) {
	entries, err := r.rosterRepo.ListByEvent(ctx, event.EventID)
	if err != nil {
		return nil, err
	}
	requests, err := r.attendanceRepo.ListByEvent(ctx, event.EventID, domain.AttendanceApproved)
	if err != nil {
		return nil, err
	}

	var merged []domain.RosterMember
	for _, e := range entries {
		if !e.Counted() {
			continue
		}
		merged = append(merged, domain.RosterMember{
			MarshalID: e.MarshalID,
			Status:    domain.RosterAccepted,
			Source:    "roster",
			Since:     e.InvitedAt,
		})
	}
	for _, req := range requests {
		merged = append(merged, domain.RosterMember{
			MarshalID: req.MarshalID,
			Status:    domain.RosterAccepted,
			Source:    "request",
			Since:     req.RegisteredAt,
		})
	}

	seen := make(map[string]bool, len(merged))
	members := merged[:0]
	for _, m := range merged {
		if seen[m.MarshalID] {
			continue
		}
		seen[m.MarshalID] = true
		members = append(members, m)
	}

	r.fillNames(ctx, members)

	available := event.MaxMarshals - len(members)
	if available < 0 {
		available = 0
	}
	return &domain.RosterSummary{
		EventID:        event.EventID,
		AcceptedCount:  len(members),
		AvailableSlots: available,
		MaxMarshals:    event.MaxMarshals,
		Members:        members,
	}, nil
}

// fillNames decorates members with display names. A lookup failure leaves
// names empty rather than failing the count.
func (r *reconciler) fillNames(ctx context.Context, members []domain.RosterMember) {
	if len(members) == 0 {
		return
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MarshalID
	}
	marshals, err := r.marshalRepo.GetBatch(ctx, ids)
	if err != nil {
		return
	}
	names := make(map[string]string, len(marshals))
	for i := range marshals {
		names[marshals[i].MarshalID] = marshals[i].FullName()
	}
	for i := range members {
		members[i].Name = names[members[i].MarshalID]
	}
}
