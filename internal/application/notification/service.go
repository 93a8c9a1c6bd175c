package notification

import (
	"context"
	"fmt"

	"github.com/marshalhq/marshals-api/internal/domain"
)

type Service interface {
	ListUnread(ctx context.Context, marshalID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, marshalID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, marshalID string) (*domain.Notification, error)
	Delete(ctx context.Context, notificationID, marshalID string) error
}

type notificationStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, marshalID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, marshalID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
	Delete(ctx context.Context, notificationID string) error
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) ListUnread(ctx context.Context, marshalID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, marshalID)
}

func (s *service) UnreadCount(ctx context.Context, marshalID string) (int, error) {
	return s.repo.CountUnread(ctx, marshalID)
}

// MarkAsRead is recipient-only. Marking an already-read notification again is
// harmless and returns the current record.
func (s *service) MarkAsRead(ctx context.Context, notificationID, marshalID string) (*domain.Notification, error) {
	if err := s.checkOwnership(ctx, notificationID, marshalID); err != nil {
		return nil, err
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

// Delete is recipient-only.
func (s *service) Delete(ctx context.Context, notificationID, marshalID string) error {
	if err := s.checkOwnership(ctx, notificationID, marshalID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, notificationID)
}

func (s *service) checkOwnership(ctx context.Context, notificationID, marshalID string) error {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.MarshalID != marshalID {
		return fmt.Errorf("notification belongs to another marshal: %w", domain.ErrForbidden)
	}
	return nil
}
