package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/utils"
)

// SessionService issues and rotates JWT access tokens and opaque refresh
// tokens.  Refresh tokens are stored hashed.
type SessionService struct {
	Users      UserStore
	Tokens     TokenStore
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Session is a fresh token pair for a user.
type Session struct {
	User    *model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)

// Login verifies the password and opens a session.  Unknown emails, wrong
// passwords and disabled accounts look the same to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		verr := &model.ValidationError{}
		if email == "" {
			verr.Add("email", "is required")
		}
		if password == "" {
			verr.Add("password", "is required")
		}
		return nil, verr
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, errInvalidCredentials
	}
	return s.open(ctx, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (s *SessionService) Refresh(ctx context.Context, raw string) (*Session, error) {
	u, hash, err := s.resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, err
	}
	return s.open(ctx, u)
}

// RefreshAccess issues a new access token and keeps the refresh token.
func (s *SessionService) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	u, _, err := s.resolve(ctx, raw)
	if err != nil {
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.Secret, u.ID, string(u.Role), s.AccessTTL)
}

// Logout revokes one refresh token when raw is set, otherwise every
// refresh token of userID.
func (s *SessionService) Logout(ctx context.Context, userID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		_, hash, err := s.resolve(ctx, raw)
		if err != nil {
			return err
		}
		return s.Tokens.RevokeByHash(ctx, hash)
	}
	if userID == 0 {
		return model.NewValidationError("", "provide an Authorization header or a refresh_token")
	}
	return s.Tokens.RevokeAllForUser(ctx, userID)
}

// Me loads the authenticated user.
func (s *SessionService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	if userID == 0 {
		return nil, model.ErrUnauthorized
	}
	return s.Users.GetByID(ctx, userID)
}

func (s *SessionService) resolve(ctx context.Context, raw string) (*model.User, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", model.NewValidationError("refresh_token", "is required")
	}
	hash := utils.HashSecret(raw)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, model.ErrNotFound) {
		return nil, "", fmt.Errorf("invalid refresh token: %w", model.ErrUnauthorized)
	}
	if err != nil {
		return nil, "", err
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, "", fmt.Errorf("invalid refresh token: %w", model.ErrUnauthorized)
	}
	if err != nil {
		return nil, "", err
	}
	if !u.IsActive {
		return nil, "", errInvalidCredentials
	}
	return u, hash, nil
}

func (s *SessionService) open(ctx context.Context, u *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(s.Secret, u.ID, string(u.Role), s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.StoreRefresh(ctx, u.ID, utils.HashSecret(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &Session{User: u, Access: access, Refresh: refresh}, nil
}
