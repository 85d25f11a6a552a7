package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/utils"
)

func TestProvision(t *testing.T) {
	f := newFixture(t)
	svc := &AccountService{Users: memUsers{f.db}, BcryptCost: bcrypt.MinCost}

	u, err := svc.Provision(context.Background(), f.admin, NewUser{Email: " New@Example.com ", Password: "s3cret-pass", Role: "exploitant"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, model.RoleExploitant, u.Role)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "s3cret-pass"))

	_, err = svc.Provision(context.Background(), f.admin, NewUser{Email: "new@example.com", Password: "s3cret-pass", Role: "client"})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = svc.Provision(context.Background(), f.owner, NewUser{Email: "x@example.com", Password: "s3cret-pass", Role: "client"})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Provision(context.Background(), f.admin, NewUser{Email: "nope", Password: "short", Role: "root"})
	verr, ok := model.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, verr.Fields, 3)
}

func TestIssueAPIKey(t *testing.T) {
	f := newFixture(t)
	svc := &AccountService{Users: memUsers{f.db}, APIKeys: memAPIKeys{f.db}, KeyTTL: time.Hour, Now: func() time.Time { return f.now }}

	issued, err := svc.IssueAPIKey(context.Background(), f.admin, f.owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(time.Hour), issued.ExpiresAt)

	k, err := f.intake().Authenticate(context.Background(), issued.Key)
	require.NoError(t, err)
	assert.Equal(t, f.owner.UserID, k.UserID)

	_, err = svc.IssueAPIKey(context.Background(), f.admin, f.client.UserID)
	_, ok := model.AsValidation(err)
	assert.True(t, ok)

	_, err = svc.IssueAPIKey(context.Background(), f.admin, 4242)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.IssueAPIKey(context.Background(), f.owner, f.owner.UserID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
