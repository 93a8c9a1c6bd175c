package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/marshalhq/marshals-api/internal/config"
	"github.com/marshalhq/marshals-api/internal/domain"
	jwtinfra "github.com/marshalhq/marshals-api/internal/infrastructure/jwt"
	"github.com/marshalhq/marshals-api/internal/pkg/id"
	"github.com/marshalhq/marshals-api/internal/pkg/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	fieldEnable = "enable"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the credential set returned on login and refresh.
type TokenPair struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Marshal      *domain.Marshal `json:"marshal,omitempty"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, sessionID string) error
	Current(ctx context.Context, marshalID string) (*domain.Marshal, error)
}

type marshalStore interface {
	Get(ctx context.Context, marshalID string) (*domain.Marshal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Marshal, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type service struct {
	marshalRepo marshalStore
	sessionRepo sessionStore
	jwt         *jwtinfra.Provider
	refreshTTL  time.Duration
	log         *zap.Logger
}

func NewService(marshalRepo marshalStore, sessionRepo sessionStore, jwt *jwtinfra.Provider, cfg *config.Config, log *zap.Logger) Service {
	return &service{
		marshalRepo: marshalRepo,
		sessionRepo: sessionRepo,
		jwt:         jwt,
		refreshTTL:  cfg.RefreshTokenTTL,
		log:         log,
	}
}

// Login verifies credentials and opens a session. Invalid email and invalid
// password return the same error so the endpoint does not leak which one
// was wrong.
func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	m, err := s.marshalRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if m.Enable != 1 || m.DeletedAt != nil {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	session := &domain.Session{
		SessionID:        id.New(),
		MarshalID:        m.MarshalID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTTL).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, session); err != nil {
		return nil, err
	}

	access, err := s.jwt.Sign(m.MarshalID, m.Role, session.SessionID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken, Marshal: m}, nil
}

// Refresh rotates the refresh token and issues a fresh access token. An
// expired refresh token disables the session.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if time.Now().UTC().Unix() > session.RefreshExpiresAt {
		if err := s.sessionRepo.Update(ctx, session.SessionID, map[string]interface{}{fieldEnable: false}); err != nil {
			s.log.Warn("failed to disable expired session", zap.String("session_id", session.SessionID), zap.Error(err))
		}
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	m, err := s.marshalRepo.Get(ctx, session.MarshalID)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if m.Enable != 1 || m.DeletedAt != nil {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}

	newToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	newExpiry := time.Now().UTC().Add(s.refreshTTL).Unix()
	if err := s.sessionRepo.RotateRefreshToken(ctx, session.SessionID, newToken, newExpiry); err != nil {
		return nil, err
	}

	access, err := s.jwt.Sign(m.MarshalID, m.Role, session.SessionID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newToken}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if _, err := s.sessionRepo.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.sessionRepo.Update(ctx, sessionID, map[string]interface{}{fieldEnable: false})
}

func (s *service) Current(ctx context.Context, marshalID string) (*domain.Marshal, error) {
	return s.marshalRepo.Get(ctx, marshalID)
}
