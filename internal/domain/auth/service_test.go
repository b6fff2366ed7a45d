package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/id"
)

type memoryRepo struct {
	byID    map[id.ID]*User
	byEmail map[string]*User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byID:    make(map[id.ID]*User),
		byEmail: make(map[string]*User),
	}
}

func (r *memoryRepo) Create(_ context.Context, u *User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return apperror.NewDuplicate("user", "email", u.Email)
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (r *memoryRepo) Update(_ context.Context, u *User) error {
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, NewTokenManager("test-secret", time.Hour)), repo
}

func TestService_LoginRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "owner@example.com", "Owner", "s3cret-pass", true)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", created.PasswordHash)

	result, err := svc.Login(ctx, "owner@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	claims, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "owner@example.com", "Owner", "s3cret-pass", false)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "owner@example.com", "wrong-pass")
	wrongPass, _ := apperror.AsAppError(err)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	wrongEmail, _ := apperror.AsAppError(err)

	require.NotNil(t, wrongPass)
	require.NotNil(t, wrongEmail)
	assert.Equal(t, wrongPass.Message, wrongEmail.Message, "unknown email and wrong password are indistinguishable")
}

func TestService_Login_DisabledAccount(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "gone@example.com", "Gone", "s3cret-pass", false)
	require.NoError(t, err)
	u.Active = false
	require.NoError(t, repo.Update(ctx, u))

	_, err = svc.Login(ctx, "gone@example.com", "s3cret-pass")
	require.Error(t, err)
}

func TestService_CreateUser_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "owner@example.com", "Owner", "short", false)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateUser(ctx, "not-an-email", "Owner", "s3cret-pass", false)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_ChangePassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "owner@example.com", "Owner", "s3cret-pass", false)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, "nope", "another-pass")
	require.Error(t, err)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "s3cret-pass", "another-pass"))

	_, err = svc.Login(ctx, "owner@example.com", "another-pass")
	require.NoError(t, err)
}

func TestTokenManager_RejectsTampering(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	u := NewUser("owner@example.com", "Owner")

	token, err := tm.Generate(u)
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", time.Hour).Verify(token)
	require.Error(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	_, err = tm.Verify(parts[0] + ".tampered." + parts[2])
	require.Error(t, err)
}

func TestTokenManager_Expiry(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)
	u := NewUser("owner@example.com", "Owner")

	token, err := tm.Generate(u)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
}
