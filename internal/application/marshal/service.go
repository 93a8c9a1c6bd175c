package marshal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marshalhq/marshals-api/internal/domain"
	"github.com/marshalhq/marshals-api/internal/pkg/id"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	fieldEmail        = "email"
	fieldPhone        = "phone"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldMarshalTypes = "marshal_types"
	fieldPushToken    = "push_token"
	fieldRole         = "role"
	fieldEnable       = "enable"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateMarshalRequest) (*domain.Marshal, error)
	Get(ctx context.Context, marshalID string) (*domain.Marshal, error)
	List(ctx context.Context) ([]domain.Marshal, error)
	Update(ctx context.Context, marshalID string, req domain.UpdateMarshalRequest) (*domain.Marshal, error)
	Delete(ctx context.Context, marshalID string) error
}

type marshalStore interface {
	Put(ctx context.Context, m *domain.Marshal) error
	Get(ctx context.Context, marshalID string) (*domain.Marshal, error)
	GetByEmail(ctx context.Context, email string) (*domain.Marshal, error)
	ListActive(ctx context.Context) ([]domain.Marshal, error)
	Update(ctx context.Context, marshalID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, marshalID string) error
}

type sessionStore interface {
	SoftDeleteByMarshal(ctx context.Context, marshalID string) error
}

type service struct {
	repo        marshalStore
	sessionRepo sessionStore
	log         *zap.Logger
}

func NewService(repo marshalStore, sessionRepo sessionStore, log *zap.Logger) Service {
	return &service{repo: repo, sessionRepo: sessionRepo, log: log}
}

// Register creates a marshal account. Email uniqueness is checked here at
// write time; the table has no conditional guard, so a racing duplicate is
// possible and tolerated.
func (s *service) Register(ctx context.Context, req domain.CreateMarshalRequest) (*domain.Marshal, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	m := &domain.Marshal{
		MarshalID:    id.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         domain.RoleMarshal,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MarshalTypes: req.MarshalTypes,
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, marshalID string) (*domain.Marshal, error) {
	return s.repo.Get(ctx, marshalID)
}

func (s *service) List(ctx context.Context) ([]domain.Marshal, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) Update(ctx context.Context, marshalID string, req domain.UpdateMarshalRequest) (*domain.Marshal, error) {
	if _, err := s.repo.Get(ctx, marshalID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Email != nil {
		existing, err := s.repo.GetByEmail(ctx, *req.Email)
		if err == nil && existing.MarshalID != marshalID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.MarshalTypes != nil {
		updates[fieldMarshalTypes] = *req.MarshalTypes
	}
	if req.PushToken != nil {
		updates[fieldPushToken] = *req.PushToken
	}
	if req.Role != nil {
		if *req.Role != domain.RoleAdmin && *req.Role != domain.RoleMarshal {
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, domain.ErrBadRequest)
		}
		updates[fieldRole] = *req.Role
	}
	if req.Enable != nil {
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, marshalID)
	}
	if err := s.repo.Update(ctx, marshalID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, marshalID)
}

// Delete soft-deletes the account and disables its sessions so outstanding
// refresh tokens stop working.
func (s *service) Delete(ctx context.Context, marshalID string) error {
	if _, err := s.repo.Get(ctx, marshalID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, marshalID); err != nil {
		return err
	}
	if err := s.sessionRepo.SoftDeleteByMarshal(ctx, marshalID); err != nil {
		s.log.Warn("failed to disable sessions after marshal delete",
			zap.String("marshal_id", marshalID), zap.Error(err))
	}
	return nil
}
