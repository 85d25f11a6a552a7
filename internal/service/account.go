package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/utils"
)

// AccountService provisions accounts and webhook keys.  There is no self
// sign-up: admins create every account.
type AccountService struct {
	Users      UserStore
	APIKeys    APIKeyStore
	BcryptCost int
	KeyTTL     time.Duration
	Now        func() time.Time
}

// NewUser is the provisioning request.
type NewUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

const minPasswordLen = 8

// Provision creates an account with the given role.
func (s *AccountService) Provision(ctx context.Context, c policy.Caller, in NewUser) (*model.User, error) {
	if err := policy.Of(c).Administer(c); err != nil {
		return nil, err
	}
	verr := &model.ValidationError{}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		verr.Add("email", "is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "is not a valid email address")
	}
	if len(in.Password) < minPasswordLen {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		verr.Add("role", "must be one of client, exploitant, admin")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Email: email, PasswordHash: hash, Role: role, IsActive: true}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// IssuedKey is returned once; only the hash is kept.
type IssuedKey struct {
	model.APIKey
	Key string `json:"api_key"`
}

// IssueAPIKey creates a webhook key for an exploitant account.
func (s *AccountService) IssueAPIKey(ctx context.Context, c policy.Caller, userID uint64) (*IssuedKey, error) {
	if err := policy.Of(c).Administer(c); err != nil {
		return nil, err
	}
	if userID == 0 {
		return nil, model.NewValidationError("user_id", "is required")
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != model.RoleExploitant {
		return nil, model.NewValidationError("user_id", "api keys are issued to exploitant accounts only")
	}
	raw, hash, err := utils.NewAPIKey()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	ttl := s.KeyTTL
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	k := model.APIKey{KeyHash: hash, UserID: userID, ExpiresAt: now.Add(ttl), CreatedAt: now}
	if err := s.APIKeys.Create(ctx, &k); err != nil {
		return nil, err
	}
	return &IssuedKey{APIKey: k, Key: raw}, nil
}
