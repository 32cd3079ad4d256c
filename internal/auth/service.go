package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"budget-tracker/internal/models"
	"budget-tracker/internal/storage"

	"github.com/badoux/checkmail"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 80
	minPasswordLength = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

var (
	// ErrConflict is wrapped by every uniqueness failure.
	ErrConflict = errors.New("conflict")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConflict)
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)
	// ErrInvalidCredentials covers both an unknown user and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned for a missing, unknown or expired session.
	ErrUnauthenticated = errors.New("authentication required")
)

// Store is the persistence the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	ValidateSessionWithInfo(ctx context.Context, token string) (*storage.SessionInfo, error)
	RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

var _ Store = (*storage.DB)(nil)

// Service registers users, verifies credentials and manages sessions.
type Service struct {
	store           Store
	sessionDuration time.Duration
	now             func() time.Time
}

// NewService creates an auth service issuing sessions that last sessionDuration.
func NewService(store Store, sessionDuration time.Duration) *Service {
	return &Service{
		store:           store,
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

// SessionDuration returns the lifetime given to new and renewed sessions.
func (s *Service) SessionDuration() time.Duration {
	return s.sessionDuration
}

// Registration is the input for Register.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate checks the registration fields, returning a *models.ValidationError.
func (r Registration) Validate() error {
	var ve models.ValidationError

	switch n := utf8.RuneCountInString(r.Username); {
	case n == 0:
		ve.Add("username", "username is required")
	case n < minUsernameLength || n > maxUsernameLength:
		ve.Add("username", fmt.Sprintf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
	}

	if r.Email == "" {
		ve.Add("email", "email is required")
	} else if err := checkmail.ValidateFormat(r.Email); err != nil {
		ve.Add("email", "email address is not valid")
	}

	if r.Password == "" {
		ve.Add("password", "password is required")
	} else if utf8.RuneCountInString(r.Password) < minPasswordLength {
		ve.Add("password", fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	} else if len(r.Password) > maxPasswordBytes {
		ve.Add("password", fmt.Sprintf("password must be at most %d bytes long", maxPasswordBytes))
	}

	if r.ConfirmPassword != "" && r.ConfirmPassword != r.Password {
		ve.Add("confirm_password", "passwords must match")
	}

	return ve.Err()
}

// Register validates r and creates the user. Existing usernames and emails
// are rejected with ErrUsernameTaken or ErrEmailTaken.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if err := r.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, r.Username, r.Email); err != nil {
		return nil, err
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, r.Username, r.Email, hash)
	if err != nil {
		// A concurrent registration can still hit the unique index.
		var uerr *storage.UniqueError
		if errors.As(err, &uerr) {
			if uerr.Column == "email" {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Service) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("get user by username: %w", err)
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("get user by email: %w", err)
	}
	return nil
}

// VerifyCredentials returns the user when password matches. Any failure to
// match returns ErrInvalidCredentials.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			burnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID returns the user with id, or storage.ErrNotFound.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// GetUserByUsername returns the user named username, or storage.ErrNotFound.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

// GetUserByEmail returns the user registered with email, or storage.ErrNotFound.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// Login verifies the credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, *models.Session, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	session := &models.Session{
		Token:        token,
		UserID:       user.ID,
		ExpiresAt:    now.Add(s.sessionDuration),
		LastActivity: now,
	}
	if err := s.store.CreateSession(ctx, session.Token, session.UserID, session.ExpiresAt); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return user, session, nil
}

// Authenticated is the result of resolving a session token.
type Authenticated struct {
	User      *models.User
	ExpiresAt time.Time
	Renewed   bool
}

// Authenticate resolves a session token to its user. Sessions past half
// their lifetime are renewed.
func (s *Service) Authenticate(ctx context.Context, token string) (*Authenticated, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	info, err := s.store.ValidateSessionWithInfo(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}

	result := &Authenticated{User: info.User, ExpiresAt: info.ExpiresAt}
	now := s.now()
	if info.ExpiresAt.Sub(now) < s.sessionDuration/2 {
		renewed := now.Add(s.sessionDuration)
		if err := s.store.RenewSession(ctx, token, renewed); err != nil {
			return nil, fmt.Errorf("renew session: %w", err)
		}
		result.ExpiresAt = renewed
		result.Renewed = true
	}
	return result, nil
}

// Logout ends the session identified by token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
