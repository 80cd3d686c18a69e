package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/rotzhost/rotzcoder/internal/models"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	f.mutate(id, func(u *models.User) { u.PasswordHash = hash })
	return nil
}

func (f *fakeUserStore) UpdateTOTPSecret(_ context.Context, id uuid.UUID, secret *string) error {
	f.mutate(id, func(u *models.User) { u.TOTPSecret = secret })
	return nil
}

func (f *fakeUserStore) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	f.mutate(id, func(u *models.User) { u.LastLoginAt = &now })
	return nil
}

func (f *fakeUserStore) mutate(id uuid.UUID, fn func(*models.User)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		fn(u)
	}
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*models.Session{}}
}

func (f *fakeSessionStore) CreateSession(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.TokenHash] = &cp
	return nil
}

func (f *fakeSessionStore) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func newTestService(ttl time.Duration) (*Service, *fakeUserStore, *fakeSessionStore) {
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	svc := NewService(users, sessions, NewTokenManager("test-secret", ttl), NewHasher(4))
	return svc, users, sessions
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func enrollTOTP(t *testing.T, svc *Service, userID uuid.UUID) string {
	t.Helper()
	enr, err := svc.BeginTOTPSetup(context.Background(), userID)
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmTOTPSetup(context.Background(), userID, enr.Secret, currentCode(t, enr.Secret)))
	return enr.Secret
}

func TestRegisterLoginVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, sessions := newTestService(time.Hour)

	u, err := svc.Register(ctx, "Alice@Example.COM", "hunter2two")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, models.RoleUser, u.Role)
	require.True(t, u.Active)
	require.NotEqual(t, "hunter2two", u.PasswordHash)

	res, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "hunter2two", ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	require.False(t, res.TOTPRequired)
	require.NotEmpty(t, res.Token)
	require.Equal(t, 1, sessions.count())

	claims, err := svc.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, u.Email, claims.Email)
	require.Equal(t, models.RoleUser, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	_, err := svc.Register(ctx, "bob@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "  BOB@example.com ", "password2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	_, err := svc.Register(ctx, "not-an-email", "password1")
	require.ErrorIs(t, err, ErrInvalidEmail)

	for _, weak := range []string{"short1", "onlyletters", "88888888"} {
		_, err := svc.Register(ctx, "carol@example.com", weak)
		require.ErrorIs(t, err, ErrWeakPassword, "password %q", weak)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	u, err := svc.Register(ctx, "dora@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "dora@example.com", Password: "password2"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Enrolling a second factor must not change the answer, even when
	// the code itself would have been right.
	secret := enrollTOTP(t, svc, u.ID)
	_, err = svc.Login(ctx, LoginRequest{
		Email:    "dora@example.com",
		Password: "password2",
		TOTPCode: currentCode(t, secret),
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(time.Hour)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "password1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, users, _ := newTestService(time.Hour)

	u, err := svc.Register(ctx, "eve@example.com", "password1")
	require.NoError(t, err)
	users.mutate(u.ID, func(u *models.User) { u.Active = false })

	_, err = svc.Login(ctx, LoginRequest{Email: "eve@example.com", Password: "password1"})
	require.ErrorIs(t, err, ErrUserDisabled)
}

func TestLoginTOTPFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	u, err := svc.Register(ctx, "frank@example.com", "password1")
	require.NoError(t, err)
	secret := enrollTOTP(t, svc, u.ID)

	// No code: credentials are fine but no token may be issued.
	res, err := svc.Login(ctx, LoginRequest{Email: "frank@example.com", Password: "password1"})
	require.NoError(t, err)
	require.True(t, res.TOTPRequired)
	require.Empty(t, res.Token)

	_, err = svc.Login(ctx, LoginRequest{Email: "frank@example.com", Password: "password1", TOTPCode: wrongCode(t, secret)})
	require.ErrorIs(t, err, ErrInvalidTOTP)

	res, err = svc.Login(ctx, LoginRequest{
		Email:    "frank@example.com",
		Password: "password1",
		TOTPCode: currentCode(t, secret),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := svc.VerifySession(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
}

func TestVerifySessionExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(-time.Minute)

	_, err := svc.Register(ctx, "gail@example.com", "password1")
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginRequest{Email: "gail@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.VerifySession(ctx, res.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	u, err := svc.Register(ctx, "hank@example.com", "password1")
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong", "newpassword1"), ErrInvalidCredentials)
	require.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "password1", "weak"), ErrWeakPassword)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password1", "newpassword1"))

	_, err = svc.Login(ctx, LoginRequest{Email: "hank@example.com", Password: "password1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "hank@example.com", Password: "newpassword1"})
	require.NoError(t, err)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, sessions := newTestService(time.Hour)

	_, err := svc.Register(ctx, "iris@example.com", "password1")
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginRequest{Email: "iris@example.com", Password: "password1"})
	require.NoError(t, err)
	require.Equal(t, 1, sessions.count())

	require.NoError(t, svc.Logout(ctx, res.Token))
	require.Equal(t, 0, sessions.count())

	// The token itself still verifies: there is no revocation list.
	_, err = svc.VerifySession(ctx, res.Token)
	require.NoError(t, err)
}

func TestTOTPSetupGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, users, _ := newTestService(time.Hour)

	u, err := svc.Register(ctx, "jane@example.com", "password1")
	require.NoError(t, err)

	enr, err := svc.BeginTOTPSetup(ctx, u.ID)
	require.NoError(t, err)

	// A wrong confirmation code must not persist the secret.
	require.ErrorIs(t, svc.ConfirmTOTPSetup(ctx, u.ID, enr.Secret, wrongCode(t, enr.Secret)), ErrInvalidTOTP)
	stored, err := users.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, stored.TOTPEnabled())

	require.NoError(t, svc.ConfirmTOTPSetup(ctx, u.ID, enr.Secret, currentCode(t, enr.Secret)))

	_, err = svc.BeginTOTPSetup(ctx, u.ID)
	require.ErrorIs(t, err, ErrTOTPAlreadyEnabled)
}

func TestDisableTOTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	u, err := svc.Register(ctx, "kate@example.com", "password1")
	require.NoError(t, err)

	require.ErrorIs(t, svc.DisableTOTP(ctx, u.ID, "password1"), ErrTOTPNotEnabled)

	enrollTOTP(t, svc, u.ID)
	require.ErrorIs(t, svc.DisableTOTP(ctx, u.ID, "wrong"), ErrInvalidCredentials)
	require.NoError(t, svc.DisableTOTP(ctx, u.ID, "password1"))

	res, err := svc.Login(ctx, LoginRequest{Email: "kate@example.com", Password: "password1"})
	require.NoError(t, err)
	require.False(t, res.TOTPRequired)
	require.NotEmpty(t, res.Token)
}
