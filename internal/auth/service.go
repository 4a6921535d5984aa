// Package auth provides the mocked session and authentication service.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pixelperfect/internal/model"
	"pixelperfect/internal/repository"
)

// Config tunes the mocked actions.
type Config struct {
	AdminEmail string
	Delay      time.Duration
	SessionTTL time.Duration
}

// Session is an authenticated user bound to an opaque token.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Service implements login, registration and the session gates.
type Service struct {
	sessions repository.SessionRepository
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	users map[string]model.User
}

// NewService creates an auth service backed by sessions.
func NewService(sessions repository.SessionRepository, cfg Config, logger zerolog.Logger) *Service {
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@pixelperfect.com"
	}
	return &Service{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With().Str("component", "auth").Logger(),
		now:      time.Now,
		users:    make(map[string]model.User),
	}
}

func (s *Service) wait(ctx context.Context) error {
	if s.cfg.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Login accepts any non-empty email and password. The admin email gets
// the admin role; everyone else is a client. Logged-in users are verified.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if err := s.wait(ctx); err != nil {
		return Session{}, err
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user := model.User{
		ID:              userIDFor(email),
		Email:           email,
		Name:            "Client User",
		Role:            model.RoleClient,
		IsEmailVerified: true,
		CreatedAt:       s.now(),
	}
	if strings.EqualFold(email, s.cfg.AdminEmail) {
		user.Name = "Admin User"
		user.Role = model.RoleAdmin
	}
	if known, ok := s.lookup(user.ID); ok {
		user.Name = known.Name
		user.CreatedAt = known.CreatedAt
	}

	sess, err := s.open(ctx, user)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user logged in")
	return sess, nil
}

// Register creates an unverified client account and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	if err := s.wait(ctx); err != nil {
		return Session{}, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return Session{}, ErrRegistrationFailed
	}

	user := model.User{
		ID:              userIDFor(email),
		Email:           email,
		Name:            name,
		Role:            model.RoleClient,
		IsEmailVerified: false,
		CreatedAt:       s.now(),
	}

	sess, err := s.open(ctx, user)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return sess, nil
}

// Logout drops the session.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// VerifyEmail marks the session user as verified. The verification code
// itself is not checked.
func (s *Service) VerifyEmail(ctx context.Context, token, _ string) (model.User, error) {
	user, err := s.Current(ctx, token)
	if err != nil {
		return model.User{}, err
	}
	user.IsEmailVerified = true
	if err := s.save(ctx, token, user); err != nil {
		return model.User{}, fmt.Errorf("verify email: %w", err)
	}
	return user, nil
}

// ResetPassword pretends to send a reset link.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.logger.Info().Str("email", email).Msg("password reset requested")
	return nil
}

// UpdatePassword pretends to change the password.
func (s *Service) UpdatePassword(ctx context.Context, _, _ string) error {
	return s.wait(ctx)
}

// Current returns the user bound to token.
func (s *Service) Current(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotAuthenticated
	}
	raw, err := s.sessions.Get(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrNotAuthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load session: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return model.User{}, fmt.Errorf("decode session: %w", err)
	}
	return user, nil
}

// Users returns every user seen by this service, sorted by email.
func (s *Service) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// Lookup returns a known user by id.
func (s *Service) Lookup(id string) (model.User, bool) {
	return s.lookup(id)
}

func (s *Service) lookup(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *Service) open(ctx context.Context, user model.User) (Session, error) {
	token := uuid.NewString()
	if err := s.save(ctx, token, user); err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (s *Service) save(ctx context.Context, token string, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.sessions.Set(ctx, token, data, s.cfg.SessionTTL); err != nil {
		return err
	}

	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
	return nil
}

// userIDFor derives a stable id so the same email keeps its bookings
// across logins.
func userIDFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}
