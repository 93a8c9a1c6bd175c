package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/infrastructure/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// --- mocks ---

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockPush struct{ mock.Mock }

func (m *mockPush) SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) (sns.PushResult, error) {
	args := m.Called(ctx, tokens, title, body, data)
	return args.Get(0).(sns.PushResult), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, html string) error {
	return m.Called(to, subject, html).Error(0)
}

// --- helpers ---

func ptr[T any](v T) *T { return &v }

func testMsg() domain.Message {
	return domain.Message{
		Type:    domain.NotificationApproval,
		TitleEn: "Attendance approved",
		TitleAr: "تمت الموافقة على الحضور",
		BodyEn:  "You are confirmed for the event.",
		BodyAr:  "تم تأكيد حضورك للفعالية.",
	}
}

func newTestDispatcher(l *mockLedger, p *mockPush, m *mockMailer) Dispatcher {
	return NewDispatcher(l, p, m, zap.NewNop())
}

// --- tests ---

func TestDispatch_ZeroRecipients_NoOp(t *testing.T) {
	l := &mockLedger{}
	report := newTestDispatcher(l, &mockPush{}, &mockMailer{}).
		Dispatch(context.Background(), nil, testMsg(), Options{SendPush: true, SendEmail: true})

	assert.Equal(t, 0, report.Recipients)
	assert.Equal(t, 0, report.Ledger.Sent)
	l.AssertNotCalled(t, "Put")
}

func TestDispatch_RecipientWithoutChannels_LedgerOnly(t *testing.T) {
	l := &mockLedger{}
	p := &mockPush{}
	m := &mockMailer{}
	l.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil).Once()

	report := newTestDispatcher(l, p, m).Dispatch(context.Background(),
		[]domain.Recipient{{MarshalID: "m1", Name: "Ali"}}, testMsg(),
		Options{SendPush: true, SendEmail: true})

	assert.Equal(t, 1, report.Ledger.Sent)
	assert.Equal(t, 1, report.Push.Skipped)
	assert.Equal(t, 1, report.Email.Skipped)
	assert.Equal(t, 0, report.Push.Sent)
	assert.Equal(t, 0, report.Email.Sent)
	p.AssertNotCalled(t, "SendPush")
	m.AssertNotCalled(t, "SendEmail")
	l.AssertExpectations(t)
}

func TestDispatch_PushFailureDoesNotAffectOthers(t *testing.T) {
	l := &mockLedger{}
	p := &mockPush{}
	m := &mockMailer{}
	l.On("Put", mock.Anything, mock.Anything).Return(nil).Times(2)
	p.On("SendPush", mock.Anything, []string{"bad-token"}, mock.Anything, mock.Anything, mock.Anything).
		Return(sns.PushResult{}, errors.New("endpoint disabled"))
	p.On("SendPush", mock.Anything, []string{"good-token"}, mock.Anything, mock.Anything, mock.Anything).
		Return(sns.PushResult{SuccessCount: 1}, nil)
	m.On("SendEmail", "b@example.com", mock.Anything, mock.Anything).Return(nil)

	recipients := []domain.Recipient{
		{MarshalID: "m1", Name: "Ali", PushToken: ptr("bad-token")},
		{MarshalID: "m2", Name: "Badr", Email: "b@example.com", PushToken: ptr("good-token")},
	}
	report := newTestDispatcher(l, p, m).Dispatch(context.Background(), recipients, testMsg(),
		Options{SendPush: true, SendEmail: true})

	assert.Equal(t, 2, report.Ledger.Sent)
	assert.Equal(t, 1, report.Push.Sent)
	assert.Equal(t, 1, report.Push.Failed)
	assert.Equal(t, 1, report.Email.Sent)
	assert.Equal(t, 1, report.Email.Skipped)
	l.AssertExpectations(t)
	p.AssertExpectations(t)
	m.AssertExpectations(t)
}

func TestDispatch_LedgerFailureDoesNotAbortChannels(t *testing.T) {
	l := &mockLedger{}
	p := &mockPush{}
	m := &mockMailer{}
	l.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))
	m.On("SendEmail", "a@example.com", mock.Anything, mock.Anything).Return(nil)

	report := newTestDispatcher(l, p, m).Dispatch(context.Background(),
		[]domain.Recipient{{MarshalID: "m1", Name: "Ali", Email: "a@example.com"}}, testMsg(),
		Options{SendEmail: true})

	assert.Equal(t, 1, report.Ledger.Failed)
	assert.Equal(t, 1, report.Email.Sent)
	m.AssertExpectations(t)
}

func TestDispatch_ChannelsNotRequestedAreNotAttempted(t *testing.T) {
	l := &mockLedger{}
	p := &mockPush{}
	m := &mockMailer{}
	l.On("Put", mock.Anything, mock.Anything).Return(nil)

	report := newTestDispatcher(l, p, m).Dispatch(context.Background(),
		[]domain.Recipient{{MarshalID: "m1", Name: "Ali", Email: "a@example.com", PushToken: ptr("tok")}},
		testMsg(), Options{})

	assert.Equal(t, 1, report.Ledger.Sent)
	assert.Equal(t, ChannelCount{}, report.Push)
	assert.Equal(t, ChannelCount{}, report.Email)
	p.AssertNotCalled(t, "SendPush")
	m.AssertNotCalled(t, "SendEmail")
}
