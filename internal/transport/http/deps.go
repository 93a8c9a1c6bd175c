package http

import (
	"github.com/marshalhq/marshals-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/marshalhq/marshals-api/internal/infrastructure/jwt"
	"github.com/marshalhq/marshals-api/internal/infrastructure/smtp"
	"github.com/marshalhq/marshals-api/internal/infrastructure/sns"
	"go.uber.org/zap"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	MarshalRepo      *dynamo.MarshalRepo
	SessionRepo      *dynamo.SessionRepo
	EventRepo        *dynamo.EventRepo
	AttendanceRepo   *dynamo.AttendanceRepo
	RosterRepo       *dynamo.RosterRepo
	NotificationRepo *dynamo.NotificationRepo
	BroadcastRepo    *dynamo.BroadcastRepo
	PushSender       sns.PushSender
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
	Log              *zap.Logger
}
