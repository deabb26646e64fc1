package dsp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/radiusdt/dsp-console/internal/auth"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/storage"
	"go.uber.org/zap"
)

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", models.ErrUnauthorized)

// AccountService handles registration, token login and password changes.
type AccountService struct {
	users    storage.UserRepo
	tokens   *auth.TokenManager
	denylist auth.Denylist
	logger   *zap.Logger
}

func NewAccountService(users storage.UserRepo, tokens *auth.TokenManager, denylist auth.Denylist, logger *zap.Logger) *AccountService {
	if denylist == nil {
		denylist = auth.NewMemoryDenylist()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{users: users, tokens: tokens, denylist: denylist, logger: logger}
}

// Register creates an ordinary (non-manager) account.
func (s *AccountService) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
		Profile:      reg.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login resolves a username or email and issues a token pair.
func (s *AccountService) Login(ctx context.Context, login, password string) (*auth.TokenPair, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, errInvalidCredentials
	}
	return s.tokens.IssuePair(u)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// is revoked.
func (s *AccountService) Refresh(ctx context.Context, refresh string) (*auth.TokenPair, error) {
	claims, err := s.checkRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(u)
}

// Logout revokes a refresh token until it expires.
func (s *AccountService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.checkRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AccountService) checkRefresh(ctx context.Context, refresh string) (*auth.Claims, error) {
	if refresh == "" {
		return nil, models.NewValidationError("refresh", "refresh token is required")
	}
	claims, err := s.tokens.Parse(refresh, auth.RefreshToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("token revoked: %w", models.ErrUnauthorized)
	}
	return claims, nil
}

// Profile returns the actor's account.
func (s *AccountService) Profile(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.users.GetByID(ctx, actor.UserID)
}

// ChangePassword replaces the actor's password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, actor models.Actor, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(oldPassword, u.PasswordHash) {
		return models.NewValidationError("old_password", "old password is incorrect")
	}
	if len(newPassword) < models.MinPasswordLength {
		return models.NewValidationError("new_password", "password must be at least 8 characters")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// UserPage is one page of the account listing.
type UserPage struct {
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Results  []*models.User `json:"results"`
}

// UpdateProfile applies in to the actor's own account.
func (s *AccountService) UpdateProfile(ctx context.Context, actor models.Actor, in models.ProfileUpdate) (*models.User, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := in.Apply(u); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.Int64("user_id", u.ID))
	return u, nil
}

// ListUsers pages through all accounts. Only managers may list.
func (s *AccountService) ListUsers(ctx context.Context, actor models.Actor, page, pageSize int) (*UserPage, error) {
	if !actor.Manager {
		return nil, fmt.Errorf("list users: %w", models.ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	users, total, err := s.users.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &UserPage{Count: total, Page: page, PageSize: pageSize, Results: users}, nil
}

// GetUser returns one account. Non-managers may only read their own.
func (s *AccountService) GetUser(ctx context.Context, actor models.Actor, id int64) (*models.User, error) {
	if !actor.Manager && actor.UserID != id {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrForbidden)
	}
	return s.users.GetByID(ctx, id)
}
