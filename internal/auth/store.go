package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-mdpages/internal/adapters/sqlerr"
)

// UserStore persists admin users.
type UserStore interface {
	First(ctx context.Context) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUserStore keeps users in memory.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
	order []uuid.UUID
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*User)}
}

func (m *MemoryUserStore) First(_ context.Context) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return nil, &NotFoundError{}
	}
	return cloneUser(m.users[m.order[0]]), nil
}

func (m *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	return cloneUser(user), nil
}

func (m *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := NormalizeEmail(email)
	for _, user := range m.users {
		if user.Email == key {
			return cloneUser(user), nil
		}
	}
	return nil, &NotFoundError{Key: key}
}

func (m *MemoryUserStore) Create(_ context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return nil, ErrEmailExists
		}
	}
	copied := cloneUser(user)
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	m.users[copied.ID] = copied
	m.order = append(m.order, copied.ID)
	return cloneUser(copied), nil
}

func (m *MemoryUserStore) Update(_ context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return nil, &NotFoundError{Key: user.ID.String()}
	}
	for id, existing := range m.users {
		if id != user.ID && existing.Email == user.Email {
			return nil, ErrEmailExists
		}
	}
	m.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

// BunUserStore stores users through go-repository-bun.
type BunUserStore struct {
	db   *bun.DB
	repo repository.Repository[*User]
}

func NewBunUserStore(db *bun.DB) *BunUserStore {
	return &BunUserStore{
		db: db,
		repo: repository.MustNewRepository(db, repository.ModelHandlers[*User]{
			NewRecord: func() *User { return &User{} },
			GetID: func(u *User) uuid.UUID {
				return u.ID
			},
			SetID: func(u *User, id uuid.UUID) {
				u.ID = id
			},
			GetIdentifier: func() string {
				return "email"
			},
			GetIdentifierValue: func(u *User) string {
				return u.Email
			},
		}),
	}
}

func (s *BunUserStore) First(ctx context.Context) (*User, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.created_at ASC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	if len(records) == 0 {
		return nil, &NotFoundError{}
	}
	return records[0], nil
}

func (s *BunUserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return user, nil
}

func (s *BunUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	key := NormalizeEmail(email)
	user, err := s.repo.GetByIdentifier(ctx, key)
	if err != nil {
		return nil, mapRepositoryError(err, key)
	}
	return user, nil
}

func (s *BunUserStore) Create(ctx context.Context, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("user repository error: %w", err)
	}
	return s.GetByID(ctx, user.ID)
}

func (s *BunUserStore) Update(ctx context.Context, user *User) (*User, error) {
	updated, err := s.repo.Update(ctx, user,
		repository.UpdateByID(user.ID.String()),
		repository.UpdateColumns("email", "name", "password_hash", "updated_at"),
	)
	if err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, mapRepositoryError(err, user.ID.String())
	}
	return updated, nil
}

func mapRepositoryError(err error, key string) error {
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: key}
	}
	return fmt.Errorf("user repository error: %w", err)
}
