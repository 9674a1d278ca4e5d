// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/learnhub/internal/auth"
	"github.com/carterperez-dev/learnhub/internal/core"
)

var ErrOwnRole = errors.New("cannot change own role")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Create always registers a student. Admins are promoted explicitly
// through UpdateUserRole.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleStudent,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) SetResetCode(
	ctx context.Context,
	userID, codeHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetResetCode(ctx, userID, codeHash, expiresAt)
}

func (s *Service) ConsumeResetCode(
	ctx context.Context,
	userID, codeHash, passwordHash string,
	now time.Time,
) (bool, error) {
	return s.repo.ConsumeResetCode(ctx, userID, codeHash, passwordHash, now)
}

func (s *Service) RecordResetCodeFailure(
	ctx context.Context,
	userID, codeHash string,
	maxAttempts int,
) (bool, error) {
	return s.repo.RecordResetCodeFailure(ctx, userID, codeHash, maxAttempts)
}

func (s *Service) ClearResetCode(ctx context.Context, userID string) error {
	return s.repo.ClearResetCode(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateUserRole changes id's role on behalf of actorID. An admin cannot
// change their own role, so the last admin cannot lock everyone out.
func (s *Service) UpdateUserRole(
	ctx context.Context,
	actorID, id, role string,
) (*User, error) {
	if actorID != "" && actorID == id {
		return nil, fmt.Errorf("update role: %w", ErrOwnRole)
	}
	if role != RoleStudent && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	return s.repo.UpdateRole(ctx, id, role)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		ResetCodeHash:      u.ResetCodeHash,
		ResetCodeExpiresAt: u.ResetCodeExpiresAt,
		CreatedAt:          u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
