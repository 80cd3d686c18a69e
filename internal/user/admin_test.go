package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/models"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
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

func (f *fakeStore) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) ListUsers(_ context.Context, _ ListFilter) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) SetRole(_ context.Context, id uuid.UUID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (f *fakeStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Active = active
	}
	return nil
}

func (f *fakeStore) add(email, role string) *models.User {
	u := &models.User{
		ID:        uuid.New(),
		Email:     email,
		Role:      role,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.users[u.ID] = u
	return u
}

const bootEmail = "root@rotz.host"

func newAdmin() (*AdminService, *fakeStore) {
	store := newFakeStore()
	return NewAdminService(store, auth.NewHasher(4), bootEmail), store
}

func TestEnsureSuperAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newAdmin()

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "ChangeMe123!"))

	boot, err := store.UserByEmail(ctx, bootEmail)
	require.NoError(t, err)
	require.NotNil(t, boot)
	require.Equal(t, models.RoleSuperAdmin, boot.Role)
	require.True(t, boot.Active)

	// Idempotent: a second boot neither duplicates nor rehashes.
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "different"))
	require.Len(t, store.users, 1)
	again, err := store.UserByEmail(ctx, bootEmail)
	require.NoError(t, err)
	require.Equal(t, boot.PasswordHash, again.PasswordHash)
}

func TestEnsureSuperAdminRepairsRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newAdmin()

	boot := store.add(bootEmail, models.RoleUser)
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "unused"))

	got, err := store.UserByID(ctx, boot.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleSuperAdmin, got.Role)
}

func TestSetRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newAdmin()

	actor := store.add("admin@example.com", models.RoleSuperAdmin)
	target := store.add("user@example.com", models.RoleUser)
	boot := store.add(bootEmail, models.RoleSuperAdmin)

	require.ErrorIs(t, svc.SetRole(ctx, actor.ID, target.ID, "czar"), ErrBadRole)
	require.ErrorIs(t, svc.SetRole(ctx, actor.ID, uuid.New(), models.RoleAdmin), ErrNotFound)
	require.ErrorIs(t, svc.SetRole(ctx, actor.ID, actor.ID, models.RoleUser), ErrSelfChange)
	require.ErrorIs(t, svc.SetRole(ctx, actor.ID, boot.ID, models.RoleUser), ErrSuperAdminImmutable)

	require.NoError(t, svc.SetRole(ctx, actor.ID, target.ID, models.RoleAdmin))
	got, err := store.UserByID(ctx, target.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, got.Role)
}

func TestSetActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, store := newAdmin()

	actor := store.add("admin@example.com", models.RoleAdmin)
	target := store.add("user@example.com", models.RoleUser)
	boot := store.add(bootEmail, models.RoleSuperAdmin)

	require.ErrorIs(t, svc.SetActive(ctx, actor.ID, actor.ID, false), ErrSelfChange)
	require.ErrorIs(t, svc.SetActive(ctx, actor.ID, boot.ID, false), ErrSuperAdminImmutable)

	require.NoError(t, svc.SetActive(ctx, actor.ID, target.ID, false))
	got, err := store.UserByID(ctx, target.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	// Re-enable works the same way.
	require.NoError(t, svc.SetActive(ctx, actor.ID, target.ID, true))
	got, err = store.UserByID(ctx, target.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}
