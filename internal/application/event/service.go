package event

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/marshalhq/marshals-api/internal/application/notifier"
	"github.com/marshalhq/marshals-api/internal/application/roster"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/id"
	"go.uber.org/zap"
)

const (
	fieldStatus      = "status"
	fieldRespondedAt = "responded_at"
)

type Service interface {
	Create(ctx context.Context, req domain.CreateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, eventID string, req domain.UpdateEventRequest) (*domain.Event, error)
	Delete(ctx context.Context, eventID string) error

	Roster(ctx context.Context, eventID string) (*domain.RosterSummary, error)
	Invite(ctx context.Context, eventID string, req domain.InviteMarshalRequest) (*domain.RosterEntry, error)
	Respond(ctx context.Context, entryID, marshalID string, req domain.RespondInvitationRequest) (*domain.RosterEntry, error)
	RemoveMember(ctx context.Context, eventID, marshalID string) error
}

type eventStore interface {
	Put(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Scan(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, eventID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, eventID string) error
}

type rosterStore interface {
	Put(ctx context.Context, e *domain.RosterEntry) error
	Get(ctx context.Context, entryID string) (*domain.RosterEntry, error)
	GetByEventAndMarshal(ctx context.Context, eventID, marshalID string) (*domain.RosterEntry, error)
	Update(ctx context.Context, entryID string, updates map[string]interface{}) error
}

type marshalStore interface {
	Get(ctx context.Context, marshalID string) (*domain.Marshal, error)
}

type service struct {
	repo        eventStore
	rosterRepo  rosterStore
	marshalRepo marshalStore
	reconciler  roster.Reconciler
	dispatcher  notifier.Dispatcher
	log         *zap.Logger
}

type ServiceDeps struct {
	EventRepo   eventStore
	RosterRepo  rosterStore
	MarshalRepo marshalStore
	Reconciler  roster.Reconciler
	Dispatcher  notifier.Dispatcher
	Log         *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.EventRepo,
		rosterRepo:  deps.RosterRepo,
		marshalRepo: deps.MarshalRepo,
		reconciler:  deps.Reconciler,
		dispatcher:  deps.Dispatcher,
		log:         deps.Log,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateEventRequest) (*domain.Event, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at: %w", domain.ErrBadRequest)
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid ends_at: %w", domain.ErrBadRequest)
	}
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	e := &domain.Event{
		EventID:       id.New(),
		TitleEn:       req.TitleEn,
		TitleAr:       req.TitleAr,
		Description:   req.Description,
		Location:      req.Location,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
		RequiredTypes: req.RequiredTypes,
		MaxMarshals:   req.MaxMarshals,
		Status:        domain.EventScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.repo.Get(ctx, eventID)
}

// List returns all events ordered by start time, soonest first.
func (s *service) List(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })
	return events, nil
}

func (s *service) Update(ctx context.Context, eventID string, req domain.UpdateEventRequest) (*domain.Event, error) {
	if _, err := s.repo.Get(ctx, eventID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.TitleEn != nil {
		updates["title_en"] = *req.TitleEn
	}
	if req.TitleAr != nil {
		updates["title_ar"] = *req.TitleAr
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.StartsAt != nil {
		if _, err := time.Parse(time.RFC3339, *req.StartsAt); err != nil {
			return nil, fmt.Errorf("invalid starts_at: %w", domain.ErrBadRequest)
		}
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		if _, err := time.Parse(time.RFC3339, *req.EndsAt); err != nil {
			return nil, fmt.Errorf("invalid ends_at: %w", domain.ErrBadRequest)
		}
		updates["ends_at"] = *req.EndsAt
	}
	if req.RequiredTypes != nil {
		updates["required_marshal_types"] = *req.RequiredTypes
	}
	if req.MaxMarshals != nil {
		// Shrinking below the current headcount is allowed; existing members
		// are never evicted, the event just reports zero available slots.
		updates["max_marshals"] = *req.MaxMarshals
	}
	if req.Status != nil {
		updates[fieldStatus] = *req.Status
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, eventID)
	}
	if err := s.repo.Update(ctx, eventID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, eventID)
}

func (s *service) Delete(ctx context.Context, eventID string) error {
	if _, err := s.repo.Get(ctx, eventID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, eventID)
}

// Roster returns the reconciled membership for the event.
func (s *service) Roster(ctx context.Context, eventID string) (*domain.RosterSummary, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Reconcile(ctx, event)
}

// Invite creates a direct roster invitation and notifies the invitee. A
// marshal already holding an effective entry cannot be invited again.
func (s *service) Invite(ctx context.Context, eventID string, req domain.InviteMarshalRequest) (*domain.RosterEntry, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	invitee, err := s.marshalRepo.Get(ctx, req.MarshalID)
	if err != nil {
		return nil, err
	}

	existing, err := s.rosterRepo.GetByEventAndMarshal(ctx, eventID, req.MarshalID)
	if err == nil {
		if existing.Counted() || existing.Status == domain.RosterInvited {
			return nil, fmt.Errorf("marshal already on the roster: %w", domain.ErrConflict)
		}
		// Declined or removed entry: revive it as a fresh invitation.
		now := time.Now().UTC()
		if err := s.rosterRepo.Update(ctx, existing.EntryID, map[string]interface{}{
			fieldStatus: domain.RosterInvited,
		}); err != nil {
			return nil, err
		}
		existing.Status = domain.RosterInvited
		existing.RespondedAt = nil
		existing.UpdatedAt = now
		s.notifyInvitee(ctx, invitee, event)
		return existing, nil
	}

	now := time.Now().UTC()
	entry := &domain.RosterEntry{
		EntryID:   id.New(),
		EventID:   eventID,
		MarshalID: req.MarshalID,
		Status:    domain.RosterInvited,
		Notes:     req.Notes,
		InvitedAt: now,
		UpdatedAt: now,
	}
	if err := s.rosterRepo.Put(ctx, entry); err != nil {
		return nil, err
	}
	s.notifyInvitee(ctx, invitee, event)
	return entry, nil
}

// Respond records the invitee's accept or decline. Acceptance deliberately
// skips the capacity gate: an admin chose to extend the invitation, so the
// admin owns the overflow.
func (s *service) Respond(ctx context.Context, entryID, marshalID string, req domain.RespondInvitationRequest) (*domain.RosterEntry, error) {
	entry, err := s.rosterRepo.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.MarshalID != marshalID {
		return nil, fmt.Errorf("invitation belongs to another marshal: %w", domain.ErrForbidden)
	}
	if entry.Status != domain.RosterInvited {
		return nil, fmt.Errorf("invitation already answered: %w", domain.ErrConflict)
	}

	status := domain.RosterDeclined
	if req.Accept {
		status = domain.RosterAccepted
	}
	now := time.Now().UTC()
	if err := s.rosterRepo.Update(ctx, entryID, map[string]interface{}{
		fieldStatus:      status,
		fieldRespondedAt: now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	entry.Status = status
	entry.RespondedAt = &now
	return entry, nil
}

// RemoveMember marks the (event, marshal) roster entry removed. The marshal
// may still be counted through an approved attendance request; that record
// is cancelled through the attendance workflow, not here.
func (s *service) RemoveMember(ctx context.Context, eventID, marshalID string) error {
	entry, err := s.rosterRepo.GetByEventAndMarshal(ctx, eventID, marshalID)
	if err != nil {
		return err
	}
	if entry.Status == domain.RosterRemoved {
		return fmt.Errorf("marshal already removed: %w", domain.ErrConflict)
	}
	return s.rosterRepo.Update(ctx, entry.EntryID, map[string]interface{}{
		fieldStatus: domain.RosterRemoved,
	})
}

func (s *service) notifyInvitee(ctx context.Context, invitee *domain.Marshal, event *domain.Event) {
	report := s.dispatcher.Dispatch(ctx, []domain.Recipient{invitee.Recipient()},
		invitationMessage(event), notifier.Options{SendPush: true, SendEmail: true})
	if report.Ledger.Failed+report.Push.Failed+report.Email.Failed > 0 {
		s.log.Warn("invitation fan-out had failures",
			zap.String("event_id", event.EventID), zap.String("marshal_id", invitee.MarshalID))
	}
}
