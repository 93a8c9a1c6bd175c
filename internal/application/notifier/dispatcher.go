package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/infrastructure/sns"
	"github.com/marshalhq/marshals-api/internal/pkg/id"
	"go.uber.org/zap"
)

// Options selects the delivery channels beyond the in-app ledger, which is
// always written.
type Options struct {
	SendPush  bool
	SendEmail bool
}

// ChannelCount tallies per-channel outcomes of one dispatch.
type ChannelCount struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Report aggregates the outcome of one fan-out. Failures are counted, never
// propagated: state changes upstream of a dispatch must not be rolled back
// because a channel misbehaved.
type Report struct {
	Recipients int          `json:"recipients"`
	Ledger     ChannelCount `json:"ledger"`
	Push       ChannelCount `json:"push"`
	Email      ChannelCount `json:"email"`
}

// Dispatcher fans one message out to a recipient set across the ledger,
// push, and email channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []domain.Recipient, msg domain.Message, opts Options) Report
}

type ledgerStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type emailSender interface {
	SendEmail(to, subject, html string) error
}

type dispatcher struct {
	ledger ledgerStore
	push   sns.PushSender
	mailer emailSender
	log    *zap.Logger
}

func NewDispatcher(ledger ledgerStore, push sns.PushSender, mailer emailSender, log *zap.Logger) Dispatcher {
	return &dispatcher{ledger: ledger, push: push, mailer: mailer, log: log}
}

// Dispatch processes every recipient concurrently and waits for all channel
// calls to settle; one recipient's failure never affects another. Each
// recipient always gets a ledger record. Push and email are attempted only
// when requested and the recipient carries the contact field; otherwise the
// channel is counted as skipped, not failed. Zero recipients is a no-op.
func (d *dispatcher) Dispatch(ctx context.Context, recipients []domain.Recipient, msg domain.Message, opts Options) Report {
	report := Report{Recipients: len(recipients)}
	if len(recipients) == 0 {
		return report
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, rcpt := range recipients {
		wg.Add(1)
		go func(rcpt domain.Recipient) {
			defer wg.Done()
			d.deliverOne(ctx, rcpt, msg, opts, &mu, &report)
		}(rcpt)
	}
	wg.Wait()
	return report
}

func (d *dispatcher) deliverOne(ctx context.Context, rcpt domain.Recipient, msg domain.Message, opts Options, mu *sync.Mutex, report *Report) {
	n := &domain.Notification{
		NotificationID: id.New(),
		MarshalID:      rcpt.MarshalID,
		Type:           msg.Type,
		TitleEn:        msg.TitleEn,
		TitleAr:        msg.TitleAr,
		BodyEn:         msg.BodyEn,
		BodyAr:         msg.BodyAr,
		RelatedEventID: msg.RelatedEventID,
		CreatedAt:      time.Now().UTC(),
	}
	ledgerErr := d.ledger.Put(ctx, n)
	if ledgerErr != nil {
		d.log.Warn("ledger write failed",
			zap.String("marshal_id", rcpt.MarshalID), zap.String("type", msg.Type), zap.Error(ledgerErr))
	}

	var pushSent, pushFailed, pushSkipped int
	if opts.SendPush {
		if d.push == nil || rcpt.PushToken == nil || *rcpt.PushToken == "" {
			pushSkipped = 1
		} else {
			data := map[string]string{"type": msg.Type}
			if msg.RelatedEventID != nil {
				data["event_id"] = *msg.RelatedEventID
			}
			res, err := d.push.SendPush(ctx, []string{*rcpt.PushToken}, msg.Title(domain.LocaleEn), msg.Body(domain.LocaleEn), data)
			if err != nil || res.FailureCount > 0 {
				pushFailed = 1
				d.log.Warn("push delivery failed", zap.String("marshal_id", rcpt.MarshalID), zap.Error(err))
			} else {
				pushSent = 1
			}
		}
	}

	var emailSent, emailFailed, emailSkipped int
	if opts.SendEmail {
		if rcpt.Email == "" {
			emailSkipped = 1
		} else if err := d.mailer.SendEmail(rcpt.Email, msg.Title(domain.LocaleEn), emailBody(rcpt, msg)); err != nil {
			emailFailed = 1
			d.log.Warn("email delivery failed", zap.String("marshal_id", rcpt.MarshalID), zap.Error(err))
		} else {
			emailSent = 1
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if ledgerErr != nil {
		report.Ledger.Failed++
	} else {
		report.Ledger.Sent++
	}
	report.Push.Sent += pushSent
	report.Push.Failed += pushFailed
	report.Push.Skipped += pushSkipped
	report.Email.Sent += emailSent
	report.Email.Failed += emailFailed
	report.Email.Skipped += emailSkipped
}

// emailBody renders the minimal bilingual HTML body used for all
// notification emails.
func emailBody(rcpt domain.Recipient, msg domain.Message) string {
	return "<html><body>" +
		"<p>Dear " + rcpt.Name + ",</p>" +
		"<p>" + msg.Body(domain.LocaleEn) + "</p>" +
		"<p dir=\"rtl\">" + msg.Body(domain.LocaleAr) + "</p>" +
		"</body></html>"
}
