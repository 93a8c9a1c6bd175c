package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) ListUnread(ctx context.Context, marshalID string) ([]domain.Notification, error) {
	args := m.Called(ctx, marshalID)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationStore) CountUnread(ctx context.Context, marshalID string) (int, error) {
	args := m.Called(ctx, marshalID)
	return args.Int(0), args.Error(1)
}
func (m *mockNotificationStore) MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotificationStore) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

func TestMarkAsRead_OwnerOnly(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", MarshalID: "m1"}, nil)

	_, err := NewService(repo).MarkAsRead(context.Background(), "n1", "intruder")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	repo.AssertNotCalled(t, "MarkAsRead")
}

func TestMarkAsRead_Owner(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", MarshalID: "m1"}, nil)
	repo.On("MarkAsRead", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", MarshalID: "m1", IsRead: 1}, nil)

	n, err := NewService(repo).MarkAsRead(context.Background(), "n1", "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n.IsRead)
}

func TestDelete_OwnerOnly(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("Get", mock.Anything, "n1").Return(&domain.Notification{NotificationID: "n1", MarshalID: "m1"}, nil)

	err := NewService(repo).Delete(context.Background(), "n1", "intruder")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	repo.AssertNotCalled(t, "Delete")
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	err := NewService(repo).Delete(context.Background(), "missing", "m1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListUnread(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("ListUnread", mock.Anything, "m1").Return([]domain.Notification{
		{NotificationID: "n2"}, {NotificationID: "n1"},
	}, nil)

	got, err := NewService(repo).ListUnread(context.Background(), "m1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUnreadCount(t *testing.T) {
	repo := &mockNotificationStore{}
	repo.On("CountUnread", mock.Anything, "m1").Return(3, nil)

	count, err := NewService(repo).UnreadCount(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
