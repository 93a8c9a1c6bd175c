package domain

import "time"

const (
	EventScheduled = "scheduled"
	EventOngoing   = "ongoing"
	EventFinished  = "finished"
	EventCancelled = "cancelled"
)

type Event struct {
	EventID       string     `json:"id" dynamodbav:"event_id"`
	TitleEn       string     `json:"title_en" dynamodbav:"title_en"`
	TitleAr       string     `json:"title_ar" dynamodbav:"title_ar"`
	Description   string     `json:"description,omitempty" dynamodbav:"description"`
	Location      string     `json:"location" dynamodbav:"location"`
	StartsAt      time.Time  `json:"starts_at" dynamodbav:"starts_at"`
	EndsAt        time.Time  `json:"ends_at" dynamodbav:"ends_at"`
	RequiredTypes []string   `json:"required_marshal_types" dynamodbav:"required_marshal_types"`
	MaxMarshals   int        `json:"max_marshals" dynamodbav:"max_marshals"`
	Status        string     `json:"status" dynamodbav:"status"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt     time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Title returns the event title for the given locale, falling back to English.
func (e *Event) Title(locale string) string {
	if locale == LocaleAr && e.TitleAr != "" {
		return e.TitleAr
	}
	return e.TitleEn
}

// Started reports whether the event start time has passed.
func (e *Event) Started(now time.Time) bool {
	return !now.Before(e.StartsAt)
}

type CreateEventRequest struct {
	TitleEn       string   `json:"title_en" validate:"required"`
	TitleAr       string   `json:"title_ar"`
	Description   string   `json:"description"`
	Location      string   `json:"location" validate:"required"`
	StartsAt      string   `json:"starts_at" validate:"required"` // RFC 3339
	EndsAt        string   `json:"ends_at" validate:"required"`   // RFC 3339
	RequiredTypes []string `json:"required_marshal_types"`
	MaxMarshals   int      `json:"max_marshals" validate:"required,min=1"`
}

type UpdateEventRequest struct {
	TitleEn       *string   `json:"title_en"`
	TitleAr       *string   `json:"title_ar"`
	Description   *string   `json:"description"`
	Location      *string   `json:"location"`
	StartsAt      *string   `json:"starts_at"` // RFC 3339
	EndsAt        *string   `json:"ends_at"`   // RFC 3339
	RequiredTypes *[]string `json:"required_marshal_types"`
	MaxMarshals   *int      `json:"max_marshals" validate:"omitempty,min=1"`
	Status        *string   `json:"status"`
}
