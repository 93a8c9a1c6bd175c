package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/marshalhq/marshals-api/internal/application/notifier"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/id"
	"go.uber.org/zap"
)

type Service interface {
	Send(ctx context.Context, senderID string, req domain.SendBroadcastRequest) (*domain.BroadcastMessage, *notifier.Report, error)
	History(ctx context.Context) ([]domain.BroadcastMessage, error)
}

type marshalStore interface {
	ListActive(ctx context.Context) ([]domain.Marshal, error)
}

type attendanceStore interface {
	ListByStatus(ctx context.Context, status string) ([]domain.AttendanceRequest, error)
	ListByEvent(ctx context.Context, eventID, status string) ([]domain.AttendanceRequest, error)
}

type eventStore interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
}

type broadcastStore interface {
	Put(ctx context.Context, b *domain.BroadcastMessage) error
	Scan(ctx context.Context) ([]domain.BroadcastMessage, error)
}

type service struct {
	marshalRepo    marshalStore
	attendanceRepo attendanceStore
	eventRepo      eventStore
	broadcastRepo  broadcastStore
	dispatcher     notifier.Dispatcher
	log            *zap.Logger
}

type ServiceDeps struct {
	MarshalRepo    marshalStore
	AttendanceRepo attendanceStore
	EventRepo      eventStore
	BroadcastRepo  broadcastStore
	Dispatcher     notifier.Dispatcher
	Log            *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		marshalRepo:    deps.MarshalRepo,
		attendanceRepo: deps.AttendanceRepo,
		eventRepo:      deps.EventRepo,
		broadcastRepo:  deps.BroadcastRepo,
		dispatcher:     deps.Dispatcher,
		log:            deps.Log,
	}
}

// Send resolves the audience, fans the message out, then records the audit
// row. An empty audience is rejected before anything is delivered; a failed
// audit write is logged, never surfaced.
func (s *service) Send(ctx context.Context, senderID string, req domain.SendBroadcastRequest) (*domain.BroadcastMessage, *notifier.Report, error) {
	recipients, err := s.resolve(ctx, req.Filter)
	if err != nil {
		return nil, nil, err
	}
	if len(recipients) == 0 {
		return nil, nil, fmt.Errorf("recipient filter matched no marshals: %w", domain.ErrBadRequest)
	}

	msg := domain.Message{
		Type:    domain.NotificationBroadcast,
		TitleEn: req.Subject,
		BodyEn:  req.Message,
	}
	report := s.dispatcher.Dispatch(ctx, recipients, msg, notifier.Options{
		SendPush:  req.Channels.Push,
		SendEmail: req.Channels.Email,
	})

	record := &domain.BroadcastMessage{
		BroadcastID:    id.New(),
		Subject:        req.Subject,
		Body:           req.Message,
		Filter:         req.Filter,
		Channels:       channelNames(req.Channels),
		Priority:       priorityOrDefault(req.Priority),
		SentBy:         senderID,
		RecipientCount: len(recipients),
		SentAt:         time.Now().UTC(),
	}
	if err := s.broadcastRepo.Put(ctx, record); err != nil {
		s.log.Warn("broadcast audit write failed",
			zap.String("broadcast_id", record.BroadcastID), zap.Error(err))
	}
	return record, &report, nil
}

func (s *service) History(ctx context.Context) ([]domain.BroadcastMessage, error) {
	return s.broadcastRepo.Scan(ctx)
}

// resolve expands a declarative filter into the distinct set of active
// recipients. Type membership is matched in memory; the table cannot index
// set membership.
func (s *service) resolve(ctx context.Context, filter domain.RecipientFilter) ([]domain.Recipient, error) {
	active, err := s.marshalRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	switch filter.Kind {
	case domain.FilterAll:
		return recipientsOf(active), nil

	case domain.FilterByType:
		if len(filter.Types) == 0 {
			return nil, fmt.Errorf("by-type filter requires at least one marshal type: %w", domain.ErrBadRequest)
		}
		var matched []domain.Marshal
		for i := range active {
			if active[i].HasAnyType(filter.Types) {
				matched = append(matched, active[i])
			}
		}
		return recipientsOf(matched), nil

	case domain.FilterByEvent:
		if filter.EventID == "" {
			return nil, fmt.Errorf("by-event filter requires an event id: %w", domain.ErrBadRequest)
		}
		if _, err := s.eventRepo.Get(ctx, filter.EventID); err != nil {
			return nil, err
		}
		// Only marshals who asked to attend are targeted; roster entries
		// minted by direct invitation carry no attendance request and are
		// not broadcast recipients.
		requests, err := s.attendanceRepo.ListByEvent(ctx, filter.EventID, domain.AttendanceApproved)
		if err != nil {
			return nil, err
		}
		ids := make(map[string]bool, len(requests))
		for i := range requests {
			ids[requests[i].MarshalID] = true
		}
		return pickActive(active, ids), nil

	case domain.FilterApproved:
		return s.byRequestStatus(ctx, active, domain.AttendanceApproved)

	case domain.FilterPending:
		return s.byRequestStatus(ctx, active, domain.AttendancePending)

	default:
		return nil, fmt.Errorf("unknown recipient filter %q: %w", filter.Kind, domain.ErrBadRequest)
	}
}

// byRequestStatus targets every marshal holding at least one request in the
// given status, deduplicated across events.
func (s *service) byRequestStatus(ctx context.Context, active []domain.Marshal, status string) ([]domain.Recipient, error) {
	requests, err := s.attendanceRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(requests))
	for i := range requests {
		ids[requests[i].MarshalID] = true
	}
	return pickActive(active, ids), nil
}

func recipientsOf(marshals []domain.Marshal) []domain.Recipient {
	recipients := make([]domain.Recipient, 0, len(marshals))
	for i := range marshals {
		recipients = append(recipients, marshals[i].Recipient())
	}
	return recipients
}

// pickActive intersects an id set with the active marshal list, so disabled
// and deleted accounts never receive a broadcast regardless of the filter.
func pickActive(active []domain.Marshal, ids map[string]bool) []domain.Recipient {
	var recipients []domain.Recipient
	for i := range active {
		if ids[active[i].MarshalID] {
			recipients = append(recipients, active[i].Recipient())
		}
	}
	return recipients
}

func channelNames(ch domain.BroadcastChannels) []string {
	names := []string{"in_app"}
	if ch.Push {
		names = append(names, "push")
	}
	if ch.Email {
		names = append(names, "email")
	}
	return names
}

func priorityOrDefault(p string) string {
	if p == "" {
		return "normal"
	}
	return p
}
