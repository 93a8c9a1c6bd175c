package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marshalhq/marshals-api/internal/application/notifier"
	"github.com/marshalhq/marshals-api/internal/application/roster"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/id"
	"go.uber.org/zap"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus             = "status"
	fieldNotes              = "notes"
	fieldCancelledAt        = "cancelled_at"
	fieldCancellationReason = "cancellation_reason"
	fieldRespondedAt        = "responded_at"
)

type Service interface {
	Register(ctx context.Context, marshalID, eventID string, req domain.RegisterAttendanceRequest) (*domain.AttendanceRequest, error)
	Decide(ctx context.Context, requestID string, req domain.DecideAttendanceRequest) (*domain.AttendanceRequest, error)
	Cancel(ctx context.Context, requestID, marshalID string, req domain.CancelAttendanceRequest) (*domain.AttendanceRequest, error)
	Get(ctx context.Context, requestID string) (*domain.AttendanceRequest, error)
	ListByEvent(ctx context.Context, eventID, status string) ([]domain.AttendanceRequest, error)
	ListByMarshal(ctx context.Context, marshalID string) ([]domain.AttendanceRequest, error)
}

type attendanceStore interface {
	Put(ctx context.Context, req *domain.AttendanceRequest) error
	Get(ctx context.Context, requestID string) (*domain.AttendanceRequest, error)
	ListByEvent(ctx context.Context, eventID, status string) ([]domain.AttendanceRequest, error)
	ListByMarshal(ctx context.Context, marshalID string) ([]domain.AttendanceRequest, error)
	Update(ctx context.Context, requestID string, updates map[string]interface{}) error
}

type rosterStore interface {
	Put(ctx context.Context, e *domain.RosterEntry) error
	GetByEventAndMarshal(ctx context.Context, eventID, marshalID string) (*domain.RosterEntry, error)
	Update(ctx context.Context, entryID string, updates map[string]interface{}) error
}

type eventStore interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
}

type marshalStore interface {
	Get(ctx context.Context, marshalID string) (*domain.Marshal, error)
	ListActive(ctx context.Context) ([]domain.Marshal, error)
}

type service struct {
	repo        attendanceStore
	rosterRepo  rosterStore
	eventRepo   eventStore
	marshalRepo marshalStore
	reconciler  roster.Reconciler
	dispatcher  notifier.Dispatcher
	log         *zap.Logger
}

type ServiceDeps struct {
	AttendanceRepo attendanceStore
	RosterRepo     rosterStore
	EventRepo      eventStore
	MarshalRepo    marshalStore
	Reconciler     roster.Reconciler
	Dispatcher     notifier.Dispatcher
	Log            *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.AttendanceRepo,
		rosterRepo:  deps.RosterRepo,
		eventRepo:   deps.EventRepo,
		marshalRepo: deps.MarshalRepo,
		reconciler:  deps.Reconciler,
		dispatcher:  deps.Dispatcher,
		log:         deps.Log,
	}
}

// Register creates a pending attendance request. A marshal may hold at most
// one live (pending or approved) request per event; this is checked here at
// write time, not enforced by the table schema.
func (s *service) Register(ctx context.Context, marshalID, eventID string, req domain.RegisterAttendanceRequest) (*domain.AttendanceRequest, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Started(time.Now().UTC()) {
		return nil, fmt.Errorf("event has already started: %w", domain.ErrBadRequest)
	}
	existing, err := s.repo.ListByMarshal(ctx, marshalID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].EventID == eventID && existing[i].Active() {
			return nil, fmt.Errorf("an active request for this event already exists: %w", domain.ErrConflict)
		}
	}
	now := time.Now().UTC()
	r := &domain.AttendanceRequest{
		RequestID:    id.New(),
		MarshalID:    marshalID,
		EventID:      eventID,
		Status:       domain.AttendancePending,
		Notes:        req.Notes,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Decide executes the admin approve/reject transition.
func (s *service) Decide(ctx context.Context, requestID string, req domain.DecideAttendanceRequest) (*domain.AttendanceRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch req.Decision {
	case domain.DecisionApprove:
		return s.approve(ctx, r, req.Notes)
	case domain.DecisionReject:
		return s.reject(ctx, r, req.Notes)
	default:
		return nil, fmt.Errorf("unknown decision %q: %w", req.Decision, domain.ErrBadRequest)
	}
}

// approve gates the transition on the reconciled headcount. The count is
// recomputed per call with no lock: two racing approvals can both pass the
// check, which is accepted: capacity is advisory, not safety-critical.
func (s *service) approve(ctx context.Context, r *domain.AttendanceRequest, notes string) (*domain.AttendanceRequest, error) {
	if r.Status == domain.AttendanceApproved {
		return r, nil // idempotent
	}
	if r.Status == domain.AttendanceCancelled {
		return nil, fmt.Errorf("request is cancelled: %w", domain.ErrConflict)
	}
	event, err := s.eventRepo.Get(ctx, r.EventID)
	if err != nil {
		return nil, err
	}
	summary, err := s.reconciler.Reconcile(ctx, event)
	if err != nil {
		return nil, err
	}
	if summary.AcceptedCount >= event.MaxMarshals {
		return nil, &domain.CapacityError{
			EventTitle:  event.TitleEn,
			Approved:    summary.AcceptedCount,
			MaxMarshals: event.MaxMarshals,
		}
	}

	updates := map[string]interface{}{fieldStatus: domain.AttendanceApproved}
	if notes != "" {
		updates[fieldNotes] = notes
	}
	if err := s.repo.Update(ctx, r.RequestID, updates); err != nil {
		return nil, err
	}
	r.Status = domain.AttendanceApproved
	if notes != "" {
		r.Notes = notes
	}

	// Best-effort reconciliation: the approved request alone is enough for
	// counting, so a failed roster upsert is logged, never rolled back.
	if err := s.upsertRosterEntry(ctx, r); err != nil {
		s.log.Warn("roster upsert after approval failed",
			zap.String("request_id", r.RequestID), zap.String("event_id", r.EventID), zap.Error(err))
	}

	s.notifyOwner(ctx, r, event, approvalMessage(event))
	return r, nil
}

func (s *service) reject(ctx context.Context, r *domain.AttendanceRequest, notes string) (*domain.AttendanceRequest, error) {
	if r.Status != domain.AttendancePending {
		return nil, fmt.Errorf("only pending requests can be rejected: %w", domain.ErrConflict)
	}
	updates := map[string]interface{}{fieldStatus: domain.AttendanceRejected}
	if notes != "" {
		updates[fieldNotes] = notes
	}
	if err := s.repo.Update(ctx, r.RequestID, updates); err != nil {
		return nil, err
	}
	r.Status = domain.AttendanceRejected
	if notes != "" {
		r.Notes = notes
	}

	event, err := s.eventRepo.Get(ctx, r.EventID)
	if err != nil {
		s.log.Warn("event lookup for rejection notice failed", zap.String("event_id", r.EventID), zap.Error(err))
		return r, nil
	}
	s.notifyOwner(ctx, r, event, rejectionMessage(event))
	return r, nil
}

// Cancel is owner-only and allowed for pending or approved requests until
// the event starts. An approved cancellation implicitly frees a slot (the
// next reconciliation simply counts one fewer member) and is announced to
// the administrators; a pending cancellation changes no headcount and stays
// quiet.
func (s *service) Cancel(ctx context.Context, requestID, marshalID string, req domain.CancelAttendanceRequest) (*domain.AttendanceRequest, error) {
	r, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.MarshalID != marshalID {
		return nil, fmt.Errorf("request belongs to another marshal: %w", domain.ErrForbidden)
	}
	if r.Status == domain.AttendanceCancelled {
		return nil, fmt.Errorf("request is already cancelled: %w", domain.ErrConflict)
	}
	if !r.Active() {
		return nil, fmt.Errorf("only pending or approved requests can be cancelled: %w", domain.ErrConflict)
	}
	event, err := s.eventRepo.Get(ctx, r.EventID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if event.Started(now) {
		return nil, fmt.Errorf("event has already started: %w", domain.ErrBadRequest)
	}
	wasApproved := r.Status == domain.AttendanceApproved

	if err := s.repo.Update(ctx, r.RequestID, map[string]interface{}{
		fieldStatus:             domain.AttendanceCancelled,
		fieldCancelledAt:        now.Format(time.RFC3339),
		fieldCancellationReason: req.Reason,
	}); err != nil {
		return nil, err
	}
	r.Status = domain.AttendanceCancelled
	r.CancelledAt = &now
	r.CancellationReason = req.Reason

	if wasApproved {
		s.notifyAdmins(ctx, r, event)
	}
	return r, nil
}

func (s *service) Get(ctx context.Context, requestID string) (*domain.AttendanceRequest, error) {
	return s.repo.Get(ctx, requestID)
}

func (s *service) ListByEvent(ctx context.Context, eventID, status string) ([]domain.AttendanceRequest, error) {
	return s.repo.ListByEvent(ctx, eventID, status)
}

func (s *service) ListByMarshal(ctx context.Context, marshalID string) ([]domain.AttendanceRequest, error) {
	return s.repo.ListByMarshal(ctx, marshalID)
}

// upsertRosterEntry creates or revives the roster record mirroring an
// approved request.
func (s *service) upsertRosterEntry(ctx context.Context, r *domain.AttendanceRequest) error {
	now := time.Now().UTC()
	entry, err := s.rosterRepo.GetByEventAndMarshal(ctx, r.EventID, r.MarshalID)
	if err != nil {
		// Only a confirmed absence warrants a new entry; a failed read must
		// not mint a duplicate.
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return s.rosterRepo.Put(ctx, &domain.RosterEntry{
			EntryID:     id.New(),
			EventID:     r.EventID,
			MarshalID:   r.MarshalID,
			Status:      domain.RosterAccepted,
			InvitedAt:   now,
			RespondedAt: &now,
			UpdatedAt:   now,
		})
	}
	if entry.Counted() {
		return nil
	}
	return s.rosterRepo.Update(ctx, entry.EntryID, map[string]interface{}{
		fieldStatus:      domain.RosterAccepted,
		fieldRespondedAt: now.Format(time.RFC3339),
	})
}

// notifyOwner fans a decision notice out to the request owner. Dispatch
// failures are absorbed by the dispatcher's report.
func (s *service) notifyOwner(ctx context.Context, r *domain.AttendanceRequest, event *domain.Event, msg domain.Message) {
	owner, err := s.marshalRepo.Get(ctx, r.MarshalID)
	if err != nil {
		s.log.Warn("owner lookup for decision notice failed", zap.String("marshal_id", r.MarshalID), zap.Error(err))
		return
	}
	report := s.dispatcher.Dispatch(ctx, []domain.Recipient{owner.Recipient()}, msg,
		notifier.Options{SendPush: true, SendEmail: true})
	s.logDispatch(report, msg.Type, event.EventID)
}

// notifyAdmins fans a cancellation notice out to every administrator.
func (s *service) notifyAdmins(ctx context.Context, r *domain.AttendanceRequest, event *domain.Event) {
	owner, err := s.marshalRepo.Get(ctx, r.MarshalID)
	ownerName := r.MarshalID
	if err == nil {
		ownerName = owner.FullName()
	}
	active, err := s.marshalRepo.ListActive(ctx)
	if err != nil {
		s.log.Warn("admin lookup for cancellation notice failed", zap.Error(err))
		return
	}
	var admins []domain.Recipient
	for i := range active {
		if active[i].Role == domain.RoleAdmin {
			admins = append(admins, active[i].Recipient())
		}
	}
	msg := cancellationMessage(event, ownerName, r.CancellationReason)
	report := s.dispatcher.Dispatch(ctx, admins, msg, notifier.Options{SendPush: true, SendEmail: true})
	s.logDispatch(report, msg.Type, event.EventID)
}

func (s *service) logDispatch(report notifier.Report, msgType, eventID string) {
	if report.Ledger.Failed+report.Push.Failed+report.Email.Failed > 0 {
		s.log.Warn("notification fan-out had failures",
			zap.String("type", msgType), zap.String("event_id", eventID),
			zap.Int("ledger_failed", report.Ledger.Failed),
			zap.Int("push_failed", report.Push.Failed),
			zap.Int("email_failed", report.Email.Failed))
	}
}
