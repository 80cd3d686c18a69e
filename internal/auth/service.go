package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rotzhost/rotzcoder/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("account disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidTOTP        = errors.New("invalid verification code")
	ErrTOTPAlreadyEnabled = errors.New("two-factor already enabled")
	ErrTOTPNotEnabled     = errors.New("two-factor not enabled")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// UserStore is what the service needs from user persistence. Lookups
// return (nil, nil) when no row matches.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateTOTPSecret(ctx context.Context, id uuid.UUID, secret *string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
}

// Recorder is the analytics hook. Implementations must be best-effort;
// the service never checks for an error.
type Recorder interface {
	Event(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{})
}

// Notifier sends account emails. May be nil when SMTP is not configured.
type Notifier interface {
	PasswordChanged(ctx context.Context, email string) error
}

type Service struct {
	users     UserStore
	sessions  SessionStore
	tokens    *TokenManager
	hasher    *Hasher
	throttle  *Throttle
	collector Recorder
	notifier  Notifier

	// dummyHash is compared against when the email is unknown, so a
	// login probe costs the same with or without an account.
	dummyHash string
}

func NewService(users UserStore, sessions SessionStore, tokens *TokenManager, hasher *Hasher) *Service {
	dummy, err := hasher.Hash("rotzcoder-timing-pad")
	if err != nil {
		dummy = ""
	}
	return &Service{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummy,
	}
}

func (s *Service) WithThrottle(t *Throttle) *Service { s.throttle = t; return s }
func (s *Service) WithCollector(r Recorder) *Service { s.collector = r; return s }
func (s *Service) WithNotifier(n Notifier) *Service  { s.notifier = n; return s }

func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.record(ctx, models.EventUserRegistered, &u.ID, nil)
	return u, nil
}

type LoginRequest struct {
	Email     string
	Password  string
	TOTPCode  string
	ClientIP  string
	UserAgent string
}

type LoginResult struct {
	// TOTPRequired is set when credentials checked out but the account
	// has a second factor and no code was supplied. No token is issued.
	TOTPRequired bool         `json:"totp_required"`
	Token        string       `json:"token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user,omitempty"`
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := NormalizeEmail(req.Email)

	if s.throttle.TooMany(ctx, email, req.ClientIP) {
		return nil, ErrTooManyAttempts
	}

	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil {
		s.hasher.Compare(s.dummyHash, req.Password)
		s.throttle.RecordFailure(ctx, email, req.ClientIP)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		s.throttle.RecordFailure(ctx, email, req.ClientIP)
		return nil, ErrInvalidCredentials
	}

	if !u.Active {
		return nil, ErrUserDisabled
	}

	if u.TOTPEnabled() {
		if req.TOTPCode == "" {
			return &LoginResult{TOTPRequired: true}, nil
		}
		if !validTOTPCode(*u.TOTPSecret, req.TOTPCode) {
			s.throttle.RecordFailure(ctx, email, req.ClientIP)
			return nil, ErrInvalidTOTP
		}
	}

	token, claims, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: HashToken(token),
		ClientIP:  req.ClientIP,
		UserAgent: req.UserAgent,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		slog.Warn("record session", "error", err)
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		slog.Warn("touch last login", "error", err)
	}

	s.throttle.Reset(ctx, email, req.ClientIP)
	s.record(ctx, models.EventUserLogin, &u.ID, map[string]interface{}{"ip": req.ClientIP})

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      u,
	}, nil
}

// VerifySession validates a token on signature and expiry alone. It
// does not touch storage, so revoking a live token is not possible.
func (s *Service) VerifySession(ctx context.Context, token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

// Logout drops the session audit row. The token itself remains
// cryptographically valid until expiry; the client discards it.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSessionByHash(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.hasher.Compare(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.record(ctx, models.EventPasswordChanged, &userID, nil)
	if s.notifier != nil {
		if err := s.notifier.PasswordChanged(ctx, u.Email); err != nil {
			slog.Warn("password change notice", "error", err)
		}
	}
	return nil
}

// BeginTOTPSetup generates a fresh secret and QR code. Nothing is
// persisted until ConfirmTOTPSetup proves the authenticator works.
func (s *Service) BeginTOTPSetup(ctx context.Context, userID uuid.UUID) (*TOTPEnrollment, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.TOTPEnabled() {
		return nil, ErrTOTPAlreadyEnabled
	}
	return newTOTPEnrollment(u.Email)
}

func (s *Service) ConfirmTOTPSetup(ctx context.Context, userID uuid.UUID, secret, code string) error {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if u.TOTPEnabled() {
		return ErrTOTPAlreadyEnabled
	}
	if secret == "" || !validTOTPCode(secret, code) {
		return ErrInvalidTOTP
	}
	if err := s.users.UpdateTOTPSecret(ctx, userID, &secret); err != nil {
		return fmt.Errorf("store totp secret: %w", err)
	}
	s.record(ctx, models.EventTOTPEnabled, &userID, nil)
	return nil
}

func (s *Service) DisableTOTP(ctx context.Context, userID uuid.UUID, password string) error {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if !u.TOTPEnabled() {
		return ErrTOTPNotEnabled
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.users.UpdateTOTPSecret(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear totp secret: %w", err)
	}
	s.record(ctx, models.EventTOTPDisabled, &userID, nil)
	return nil
}

func (s *Service) record(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{}) {
	if s.collector != nil {
		s.collector.Event(ctx, eventType, userID, payload)
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the minimum bar: 8+ characters with at
// least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters", ErrWeakPassword)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: must contain a letter and a digit", ErrWeakPassword)
	}
	return nil
}
