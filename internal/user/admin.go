package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rotzhost/rotzcoder/internal/auth"
	"github.com/rotzhost/rotzcoder/internal/models"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrBadRole  = errors.New("invalid role")

	// ErrSuperAdminImmutable guards the bootstrap account: it cannot be
	// demoted or disabled, by anyone.
	ErrSuperAdminImmutable = errors.New("bootstrap super admin cannot be changed")

	// ErrSelfChange stops admins from locking themselves out.
	ErrSelfChange = errors.New("cannot change your own account")
)

type adminStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, f ListFilter) ([]models.User, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type recorder interface {
	Event(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{})
}

type notifier interface {
	AccountDisabled(ctx context.Context, email string) error
}

// AdminService carries the user management operations exposed to
// admins. Users are only ever soft-disabled, never deleted.
type AdminService struct {
	store           adminStore
	hasher          *auth.Hasher
	collector       recorder
	notifier        notifier
	superAdminEmail string
}

func NewAdminService(store adminStore, hasher *auth.Hasher, superAdminEmail string) *AdminService {
	return &AdminService{
		store:           store,
		hasher:          hasher,
		superAdminEmail: auth.NormalizeEmail(superAdminEmail),
	}
}

func (a *AdminService) WithCollector(r recorder) *AdminService { a.collector = r; return a }
func (a *AdminService) WithNotifier(n notifier) *AdminService  { a.notifier = n; return a }

func (a *AdminService) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	return a.store.ListUsers(ctx, f)
}

func (a *AdminService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := a.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (a *AdminService) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) error {
	if !models.ValidRole(role) {
		return ErrBadRole
	}
	target, err := a.guardedTarget(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if target.Role == role {
		return nil
	}
	if err := a.store.SetRole(ctx, targetID, role); err != nil {
		return err
	}
	a.record(ctx, models.EventAdminSetRole, &actorID, map[string]interface{}{
		"target": targetID.String(),
		"role":   role,
	})
	return nil
}

func (a *AdminService) SetActive(ctx context.Context, actorID, targetID uuid.UUID, active bool) error {
	target, err := a.guardedTarget(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if target.Active == active {
		return nil
	}
	if err := a.store.SetActive(ctx, targetID, active); err != nil {
		return err
	}
	a.record(ctx, models.EventAdminSetActive, &actorID, map[string]interface{}{
		"target": targetID.String(),
		"active": active,
	})
	if !active && a.notifier != nil {
		if err := a.notifier.AccountDisabled(ctx, target.Email); err != nil {
			slog.Warn("account disabled notice", "error", err)
		}
	}
	return nil
}

func (a *AdminService) guardedTarget(ctx context.Context, actorID, targetID uuid.UUID) (*models.User, error) {
	if actorID == targetID {
		return nil, ErrSelfChange
	}
	target, err := a.store.UserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrNotFound
	}
	if target.Email == a.superAdminEmail {
		return nil, ErrSuperAdminImmutable
	}
	return target, nil
}

// EnsureSuperAdmin seeds the bootstrap super admin on first start and
// repairs its role if something downgraded it in the database. The
// defaultPassword only applies when the account does not exist yet.
func (a *AdminService) EnsureSuperAdmin(ctx context.Context, defaultPassword string) error {
	existing, err := a.store.UserByEmail(ctx, a.superAdminEmail)
	if err != nil {
		return fmt.Errorf("lookup super admin: %w", err)
	}
	if existing != nil {
		if existing.Role != models.RoleSuperAdmin {
			if err := a.store.SetRole(ctx, existing.ID, models.RoleSuperAdmin); err != nil {
				return fmt.Errorf("restore super admin role: %w", err)
			}
			slog.Warn("restored super admin role", "email", a.superAdminEmail)
		}
		return nil
	}

	hash, err := a.hasher.Hash(defaultPassword)
	if err != nil {
		return err
	}
	now := time.Now()
	u := &models.User{
		ID:           uuid.New(),
		Email:        a.superAdminEmail,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}
	slog.Warn("bootstrap super admin created with the default password, change it",
		"email", a.superAdminEmail)
	return nil
}

func (a *AdminService) record(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{}) {
	if a.collector != nil {
		a.collector.Event(ctx, eventType, userID, payload)
	}
}
