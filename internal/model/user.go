package model

import (
	"strings"
	"time"
)

// Role is the account type stored in users.role.  Every authorization
// decision starts from it (see package policy).
type Role string

const (
	RoleClient     Role = "client"
	RoleExploitant Role = "exploitant"
	RoleAdmin      Role = "admin"
	// RoleAnonymous is never stored; it names callers without a session.
	RoleAnonymous  Role = ""
)

// ParseRole normalises a role claim or request value.  Unknown values
// map to RoleAnonymous and ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient, true
	case RoleExploitant:
		return RoleExploitant, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return RoleAnonymous, false
}

// User represents an application user record as stored in the
// `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, lower-cased.
//  PasswordHash – bcrypt hashed password.
//  Role         – client, exploitant or admin.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// ExploitantProfile holds the public company details of an operator
// account.  It is keyed by the owning user (one-to-one).
type ExploitantProfile struct {
	UserID       uint64 `json:"user_id"`
	CompanyName  string `json:"company_name"`
	Website      string `json:"website"`
	ContactPhone string `json:"contact_phone"`
	Description  string `json:"description"`
}

// Validate checks the profile before it is written.
func (p *ExploitantProfile) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(p.CompanyName) == "" {
		verr.Add("company_name", "is required")
	}
	if w := strings.TrimSpace(p.Website); w != "" && !looksLikeURL(w) {
		verr.Add("website", "must be an http(s) URL")
	}
	return verr.OrNil()
}
