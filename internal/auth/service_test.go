package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-mdpages/pkg/testsupport"
)

func newTestService(store UserStore) *Service {
	return NewService(store, WithBcryptCost(bcrypt.MinCost))
}

func TestEnsureAdminRequiresCredentials(t *testing.T) {
	svc := newTestService(NewMemoryUserStore())
	for _, pair := range [][2]string{{"", "secret"}, {"admin@example.com", ""}, {"  ", "x"}} {
		if _, err := svc.EnsureAdmin(context.Background(), pair[0], pair[1]); !errors.Is(err, ErrAdminCredentialsRequired) {
			t.Fatalf("expected ErrAdminCredentialsRequired for %q, got %v", pair, err)
		}
	}
}

func TestEnsureAdminCreatesThenUpdates(t *testing.T) {
	store := NewMemoryUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, " Admin@Example.com ", "first-password")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if created.Email != "admin@example.com" || created.Name != "admin" {
		t.Fatalf("unexpected user %#v", created)
	}
	if created.PasswordHash == "first-password" {
		t.Fatal("password must be hashed")
	}

	updated, err := svc.EnsureAdmin(ctx, "owner@example.com", "second-password")
	if err != nil {
		t.Fatalf("EnsureAdmin update: %v", err)
	}
	if updated.ID != created.ID || updated.Email != "owner@example.com" {
		t.Fatalf("expected first user to be updated, got %#v", updated)
	}

	if _, err := svc.Authenticate(ctx, "owner@example.com", "first-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "owner@example.com", "second-password"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := newTestService(NewMemoryUserStore())
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestEnsureAdminWithBunStore(t *testing.T) {
	db := testsupport.NewBunDB(t, (*User)(nil))
	store := NewBunUserStore(db)
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin@example.com", "pw-one")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	again, err := svc.EnsureAdmin(ctx, "admin@example.com", "pw-two")
	if err != nil {
		t.Fatalf("EnsureAdmin second run: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected same user, got %s and %s", created.ID, again.ID)
	}
	user, err := svc.Authenticate(ctx, "ADMIN@example.com", "pw-two")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("unexpected user %s", user.ID)
	}
	if _, err := store.Create(ctx, &User{Email: "admin@example.com", PasswordHash: "x"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}
