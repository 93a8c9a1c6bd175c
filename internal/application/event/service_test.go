package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marshalhq/marshals-api/internal/application/notifier"
	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- mocks ---

type mockEventStore struct{ mock.Mock }

func (m *mockEventStore) Put(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockEventStore) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	args := m.Called(ctx, eventID)
	if e, _ := args.Get(0).(*domain.Event); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockEventStore) Scan(ctx context.Context) ([]domain.Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Event), args.Error(1)
}
func (m *mockEventStore) Update(ctx context.Context, eventID string, updates map[string]interface{}) error {
	return m.Called(ctx, eventID, updates).Error(0)
}
func (m *mockEventStore) SoftDelete(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

type mockRosterStore struct{ mock.Mock }

func (m *mockRosterStore) Put(ctx context.Context, e *domain.RosterEntry) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockRosterStore) Get(ctx context.Context, entryID string) (*domain.RosterEntry, error) {
	args := m.Called(ctx, entryID)
	if e, _ := args.Get(0).(*domain.RosterEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRosterStore) GetByEventAndMarshal(ctx context.Context, eventID, marshalID string) (*domain.RosterEntry, error) {
	args := m.Called(ctx, eventID, marshalID)
	if e, _ := args.Get(0).(*domain.RosterEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRosterStore) Update(ctx context.Context, entryID string, updates map[string]interface{}) error {
	return m.Called(ctx, entryID, updates).Error(0)
}

type mockMarshalStore struct{ mock.Mock }

func (m *mockMarshalStore) Get(ctx context.Context, marshalID string) (*domain.Marshal, error) {
	args := m.Called(ctx, marshalID)
	if r, _ := args.Get(0).(*domain.Marshal); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) Reconcile(ctx context.Context, event *domain.Event) (*domain.RosterSummary, error) {
	args := m.Called(ctx, event)
	if s, _ := args.Get(0).(*domain.RosterSummary); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, recipients []domain.Recipient, msg domain.Message, opts notifier.Options) notifier.Report {
	args := m.Called(ctx, recipients, msg, opts)
	return args.Get(0).(notifier.Report)
}

// --- fixture ---

type fixture struct {
	repo        *mockEventStore
	rosterRepo  *mockRosterStore
	marshalRepo *mockMarshalStore
	reconciler  *mockReconciler
	dispatcher  *mockDispatcher
	svc         Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:        &mockEventStore{},
		rosterRepo:  &mockRosterStore{},
		marshalRepo: &mockMarshalStore{},
		reconciler:  &mockReconciler{},
		dispatcher:  &mockDispatcher{},
	}
	f.svc = NewService(ServiceDeps{
		EventRepo:   f.repo,
		RosterRepo:  f.rosterRepo,
		MarshalRepo: f.marshalRepo,
		Reconciler:  f.reconciler,
		Dispatcher:  f.dispatcher,
		Log:         zap.NewNop(),
	})
	return f
}

func testEvent() *domain.Event {
	return &domain.Event{EventID: "e1", TitleEn: "Kuwait GP", MaxMarshals: 5, StartsAt: time.Now().Add(48 * time.Hour)}
}

// --- tests ---

func TestCreate_EndBeforeStart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), domain.CreateEventRequest{
		TitleEn:     "Kuwait GP",
		Location:    "Kuwait Motor Town",
		StartsAt:    "2026-10-02T08:00:00Z",
		EndsAt:      "2026-10-01T08:00:00Z",
		MaxMarshals: 10,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.repo.AssertNotCalled(t, "Put")
}

func TestCreate_DefaultsToScheduled(t *testing.T) {
	f := newFixture()
	f.repo.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return e.Status == domain.EventScheduled && e.EventID != "" && e.MaxMarshals == 10
	})).Return(nil)

	e, err := f.svc.Create(context.Background(), domain.CreateEventRequest{
		TitleEn:     "Kuwait GP",
		Location:    "Kuwait Motor Town",
		StartsAt:    "2026-10-01T08:00:00Z",
		EndsAt:      "2026-10-02T08:00:00Z",
		MaxMarshals: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EventScheduled, e.Status)
	f.repo.AssertExpectations(t)
}

func TestList_SortedByStartTime(t *testing.T) {
	f := newFixture()
	f.repo.On("Scan", mock.Anything).Return([]domain.Event{
		{EventID: "later", StartsAt: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
		{EventID: "sooner", StartsAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
	}, nil)

	events, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "sooner", events[0].EventID)
}

func TestRoster_DelegatesToReconciler(t *testing.T) {
	f := newFixture()
	event := testEvent()
	f.repo.On("Get", mock.Anything, "e1").Return(event, nil)
	f.reconciler.On("Reconcile", mock.Anything, event).Return(&domain.RosterSummary{
		EventID: "e1", AcceptedCount: 3, AvailableSlots: 2, MaxMarshals: 5,
	}, nil)

	summary, err := f.svc.Roster(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.AcceptedCount)
	assert.Equal(t, 2, summary.AvailableSlots)
}

func TestInvite_NewEntry_NotifiesInvitee(t *testing.T) {
	f := newFixture()
	f.repo.On("Get", mock.Anything, "e1").Return(testEvent(), nil)
	f.marshalRepo.On("Get", mock.Anything, "m1").Return(&domain.Marshal{MarshalID: "m1", FirstName: "Ali", LastName: "Hassan"}, nil)
	f.rosterRepo.On("GetByEventAndMarshal", mock.Anything, "e1", "m1").Return(nil, domain.ErrNotFound)
	f.rosterRepo.On("Put", mock.Anything, mock.MatchedBy(func(e *domain.RosterEntry) bool {
		return e.EventID == "e1" && e.MarshalID == "m1" && e.Status == domain.RosterInvited
	})).Return(nil)
	f.dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(r []domain.Recipient) bool {
		return len(r) == 1 && r[0].MarshalID == "m1"
	}), mock.MatchedBy(func(msg domain.Message) bool {
		return msg.Type == domain.NotificationInvitation
	}), mock.Anything).Return(notifier.Report{})

	entry, err := f.svc.Invite(context.Background(), "e1", domain.InviteMarshalRequest{MarshalID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RosterInvited, entry.Status)
	f.dispatcher.AssertExpectations(t)
}

func TestInvite_AlreadyAccepted(t *testing.T) {
	f := newFixture()
	f.repo.On("Get", mock.Anything, "e1").Return(testEvent(), nil)
	f.marshalRepo.On("Get", mock.Anything, "m1").Return(&domain.Marshal{MarshalID: "m1"}, nil)
	f.rosterRepo.On("GetByEventAndMarshal", mock.Anything, "e1", "m1").
		Return(&domain.RosterEntry{EntryID: "re1", Status: domain.RosterAccepted}, nil)

	_, err := f.svc.Invite(context.Background(), "e1", domain.InviteMarshalRequest{MarshalID: "m1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestInvite_DeclinedEntryRevived(t *testing.T) {
	f := newFixture()
	f.repo.On("Get", mock.Anything, "e1").Return(testEvent(), nil)
	f.marshalRepo.On("Get", mock.Anything, "m1").Return(&domain.Marshal{MarshalID: "m1"}, nil)
	f.rosterRepo.On("GetByEventAndMarshal", mock.Anything, "e1", "m1").
		Return(&domain.RosterEntry{EntryID: "re1", EventID: "e1", MarshalID: "m1", Status: domain.RosterDeclined}, nil)
	f.rosterRepo.On("Update", mock.Anything, "re1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u[fieldStatus] == domain.RosterInvited
	})).Return(nil)
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(notifier.Report{})

	entry, err := f.svc.Invite(context.Background(), "e1", domain.InviteMarshalRequest{MarshalID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RosterInvited, entry.Status)
	assert.Nil(t, entry.RespondedAt)
	f.rosterRepo.AssertNotCalled(t, "Put")
}

func TestRespond_Accept_NoCapacityCheck(t *testing.T) {
	f := newFixture()
	f.rosterRepo.On("Get", mock.Anything, "re1").
		Return(&domain.RosterEntry{EntryID: "re1", EventID: "e1", MarshalID: "m1", Status: domain.RosterInvited}, nil)
	f.rosterRepo.On("Update", mock.Anything, "re1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u[fieldStatus] == domain.RosterAccepted && u[fieldRespondedAt] != nil
	})).Return(nil)

	entry, err := f.svc.Respond(context.Background(), "re1", "m1", domain.RespondInvitationRequest{Accept: true})
	require.NoError(t, err)
	assert.Equal(t, domain.RosterAccepted, entry.Status)
	require.NotNil(t, entry.RespondedAt)
	f.reconciler.AssertNotCalled(t, "Reconcile")
}

func TestRespond_NotInvitee(t *testing.T) {
	f := newFixture()
	f.rosterRepo.On("Get", mock.Anything, "re1").
		Return(&domain.RosterEntry{EntryID: "re1", MarshalID: "m1", Status: domain.RosterInvited}, nil)

	_, err := f.svc.Respond(context.Background(), "re1", "intruder", domain.RespondInvitationRequest{Accept: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestRespond_AlreadyAnswered(t *testing.T) {
	f := newFixture()
	f.rosterRepo.On("Get", mock.Anything, "re1").
		Return(&domain.RosterEntry{EntryID: "re1", MarshalID: "m1", Status: domain.RosterAccepted}, nil)

	_, err := f.svc.Respond(context.Background(), "re1", "m1", domain.RespondInvitationRequest{Accept: false})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRemoveMember(t *testing.T) {
	f := newFixture()
	f.rosterRepo.On("GetByEventAndMarshal", mock.Anything, "e1", "m1").
		Return(&domain.RosterEntry{EntryID: "re1", Status: domain.RosterAccepted}, nil)
	f.rosterRepo.On("Update", mock.Anything, "re1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u[fieldStatus] == domain.RosterRemoved
	})).Return(nil)

	require.NoError(t, f.svc.RemoveMember(context.Background(), "e1", "m1"))
	f.rosterRepo.AssertExpectations(t)
}

func TestRemoveMember_AlreadyRemoved(t *testing.T) {
	f := newFixture()
	f.rosterRepo.On("GetByEventAndMarshal", mock.Anything, "e1", "m1").
		Return(&domain.RosterEntry{EntryID: "re1", Status: domain.RosterRemoved}, nil)

	err := f.svc.RemoveMember(context.Background(), "e1", "m1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}
