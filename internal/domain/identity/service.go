package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lungscreen/lungscreen/internal/domain/session"
	"github.com/lungscreen/lungscreen/internal/platform/auth"
)

type Service struct {
	users    UserRepository
	sessions session.Store
	tokens   *auth.TokenManager
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(users UserRepository, sessions session.Store, tokens *auth.TokenManager, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		logger:   logger.With().Str("component", "identity").Logger(),
		now:      time.Now,
	}
}

// MissingFieldsError lists the required registration fields left empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	required := []struct {
		name  string
		value string
	}{
		{"username", req.Username},
		{"password", req.Password},
		{"first_name", req.FirstName},
		{"last_name", req.LastName},
		{"email", req.Email},
		{"phone", req.Phone},
		{"address", req.Address},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	u := &User{
		Username:  strings.TrimSpace(req.Username),
		Password:  req.Password,
		Role:      auth.RolePatient,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", u.Username).Msg("user registered")
	return u, nil
}

// Login verifies credentials, opens a session and issues a token bound to
// it. With adminOnly set, non-admin accounts are refused.
func (s *Service) Login(ctx context.Context, req LoginRequest, adminOnly bool) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(req.Password)) != 1 {
		s.logger.Warn().Str("username", req.Username).Msg("failed login")
		return nil, ErrInvalidCredentials
	}
	if adminOnly && u.Role != auth.RoleAdmin {
		return nil, ErrNotAdmin
	}

	now := s.now()
	sess := &session.Session{
		ID:        uuid.New(),
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		s.sessions.Delete(ctx, sess.ID)
		return nil, err
	}
	s.logger.Info().Str("username", u.Username).Str("session_id", sess.ID.String()).Msg("session started")
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

// Logout ends the session, discarding both prediction slots.
func (s *Service) Logout(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info().Str("session_id", id.String()).Msg("session ended")
	return nil
}

func (s *Service) GetUser(ctx context.Context, username string) (*User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func (s *Service) ActiveSessions(ctx context.Context) (int, error) {
	return s.sessions.Count(ctx)
}

// Seed creates the given accounts unless they already exist.
func (s *Service) Seed(ctx context.Context, users ...*User) error {
	for _, u := range users {
		_, err := s.users.GetByUsername(ctx, u.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("seed %s: %w", u.Username, err)
		}
		if err := s.users.Create(ctx, u); err != nil && !errors.Is(err, ErrUsernameTaken) {
			return fmt.Errorf("seed %s: %w", u.Username, err)
		}
		s.logger.Debug().Str("username", u.Username).Str("role", u.Role).Msg("seeded account")
	}
	return nil
}

// DefaultAccounts returns the built-in admin and, in development, the demo
// patient account.
func DefaultAccounts(adminUser, adminPassword string, development bool) []*User {
	users := []*User{{
		Username:  adminUser,
		Password:  adminPassword,
		Role:      auth.RoleAdmin,
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@lungcancer.com",
	}}
	if development {
		users = append(users, &User{
			Username:  "testuser",
			Password:  "secure",
			Role:      auth.RolePatient,
			FirstName: "Test",
			LastName:  "User",
		})
	}
	return users
}
