package domain

import "time"

const (
	LocaleEn = "en"
	LocaleAr = "ar"
)

const (
	NotificationApproval     = "attendance_approved"
	NotificationRejection    = "attendance_rejected"
	NotificationCancellation = "attendance_cancelled"
	NotificationInvitation   = "roster_invitation"
	NotificationBroadcast    = "broadcast"
)

// Notification is the durable in-app ledger record, one per (recipient,
// message). Created only by the fan-out dispatcher; mutated only by its
// recipient (mark read / delete).
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	MarshalID      string    `json:"marshal_id" dynamodbav:"marshal_id"`
	Type           string    `json:"type" dynamodbav:"type"`
	TitleEn        string    `json:"title_en" dynamodbav:"title_en"`
	TitleAr        string    `json:"title_ar" dynamodbav:"title_ar"`
	BodyEn         string    `json:"body_en" dynamodbav:"body_en"`
	BodyAr         string    `json:"body_ar" dynamodbav:"body_ar"`
	RelatedEventID *string   `json:"related_event_id,omitempty" dynamodbav:"related_event_id"`
	IsRead         int       `json:"is_read" dynamodbav:"is_read"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// Message is one logical notification before fan-out: bilingual title/body
// plus the enumerated kind and an optional related event.
type Message struct {
	Type           string
	TitleEn        string
	TitleAr        string
	BodyEn         string
	BodyAr         string
	RelatedEventID *string
}

// Title returns the message title for the given locale, falling back to English.
func (m Message) Title(locale string) string {
	if locale == LocaleAr && m.TitleAr != "" {
		return m.TitleAr
	}
	return m.TitleEn
}

// Body returns the message body for the given locale, falling back to English.
func (m Message) Body(locale string) string {
	if locale == LocaleAr && m.BodyAr != "" {
		return m.BodyAr
	}
	return m.BodyEn
}
