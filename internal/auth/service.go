package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-mdpages/internal/identity"
	"github.com/goliatone/go-mdpages/internal/logging"
	"github.com/goliatone/go-mdpages/pkg/interfaces"
)

// Service authenticates admins against a UserStore.
type Service struct {
	users  UserStore
	cost   int
	now    func() time.Time
	logger interfaces.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithClock overrides the clock used to stamp users.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		s.logger = logging.OrNoOp(logger)
	}
}

func NewService(users UserStore, opts ...Option) *Service {
	s := &Service{
		users:  users,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Users exposes the backing store.
func (s *Service) Users() UserStore {
	return s.users
}

// EnsureAdmin makes sure an admin with email and password exists. When a
// user is already present, the first one takes over the supplied
// credentials; otherwise a new user is created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrAdminCredentialsRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	now := s.now()

	existing, err := s.users.First(ctx)
	switch {
	case err == nil:
		existing.Email = email
		existing.PasswordHash = string(hash)
		existing.UpdatedAt = now
		updated, err := s.users.Update(ctx, existing)
		if err != nil {
			return nil, err
		}
		s.logger.Info("auth.admin.updated", "user_id", updated.ID.String(), "email", email)
		return updated, nil
	case IsNotFound(err):
	default:
		return nil, err
	}

	created, err := s.users.Create(ctx, &User{
		ID:           identity.AdminUUID(email),
		Email:        email,
		Name:         adminName(email),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("auth.admin.created", "user_id", created.ID.String(), "email", email)
	return created, nil
}

// Authenticate returns the user for valid credentials and
// ErrInvalidCredentials otherwise, without saying which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("auth.login.rejected", "email", NormalizeEmail(email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: compare password: %w", err)
	}
	return user, nil
}

// EnsureAdmin runs Service.EnsureAdmin with default options.
func EnsureAdmin(ctx context.Context, users UserStore, email, password string) (*User, error) {
	return NewService(users).EnsureAdmin(ctx, email, password)
}

func adminName(email string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "admin"
}
