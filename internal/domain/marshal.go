package domain

import "time"

const (
	RoleAdmin   = "admin"
	RoleMarshal = "marshal"
)

// Marshal is a volunteer event-day worker. The profile doubles as the
// recipient identity for notification delivery: channels without a contact
// field (email, push token) are skipped for that marshal.
type Marshal struct {
	MarshalID    string     `json:"id" dynamodbav:"marshal_id"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	MarshalTypes []string   `json:"marshal_types" dynamodbav:"marshal_types"` // e.g. "karting", "rescue", "flag"
	PushToken    *string    `json:"push_token,omitempty" dynamodbav:"push_token"`
	Enable       int        `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// FullName returns the display name used in rosters and notifications.
func (m *Marshal) FullName() string {
	return m.FirstName + " " + m.LastName
}

// HasAnyType reports whether the marshal carries at least one of the given
// type tags (OR semantics).
func (m *Marshal) HasAnyType(types []string) bool {
	for _, want := range types {
		for _, have := range m.MarshalTypes {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Recipient projects the marshal into the delivery identity consumed by the
// notification dispatcher.
func (m *Marshal) Recipient() Recipient {
	return Recipient{
		MarshalID: m.MarshalID,
		Name:      m.FullName(),
		Email:     m.Email,
		PushToken: m.PushToken,
	}
}

// Recipient is the delivery identity for one notification target.
// Email or PushToken may be absent; the corresponding channel is skipped.
type Recipient struct {
	MarshalID string
	Name      string
	Email     string
	PushToken *string
}

type CreateMarshalRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=8,max=72"`
	Phone        *string  `json:"phone"`
	FirstName    string   `json:"first_name" validate:"required"`
	LastName     string   `json:"last_name" validate:"required"`
	MarshalTypes []string `json:"marshal_types"`
}

type UpdateMarshalRequest struct {
	Email        *string   `json:"email" validate:"omitempty,email"`
	Phone        *string   `json:"phone"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	MarshalTypes *[]string `json:"marshal_types"`
	PushToken    *string   `json:"push_token"`
	Role         *string   `json:"role"`
	Enable       *int      `json:"enable"` // 1 = enabled, 0 = disabled
}
