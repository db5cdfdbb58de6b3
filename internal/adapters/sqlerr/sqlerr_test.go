package sqlerr

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"postgres wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"postgres other", &pq.Error{Code: "23502"}, false},
		{"message", errors.New("UNIQUE constraint failed: markdown_pages.slug"), true},
		{"repository duplicate", goerrors.NewNonRetryable("duplicate", repository.CategoryDatabaseDuplicate).WithTextCode("DUPLICATE_KEY"), true},
		{"repository constraint", goerrors.NewNonRetryable("Not null constraint violation", repository.CategoryDatabaseConstraint), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}) {
		t.Fatal("expected sqlite foreign key violation")
	}
	if !IsForeignKeyViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("expected postgres foreign key violation")
	}
	mapped := goerrors.NewNonRetryable("Foreign key constraint violation", repository.CategoryDatabaseConstraint).
		WithTextCode("FOREIGN_KEY_VIOLATION")
	if !IsForeignKeyViolation(fmt.Errorf("insert asset: %w", mapped)) {
		t.Fatal("expected mapped foreign key violation")
	}
	if IsForeignKeyViolation(goerrors.NewNonRetryable("Not null constraint violation", repository.CategoryDatabaseConstraint)) {
		t.Fatal("unexpected match for not null violation")
	}
	if IsForeignKeyViolation(errors.New("boom")) {
		t.Fatal("unexpected match")
	}
}
