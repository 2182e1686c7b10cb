package memrepo

import (
	"context"
	"testing"
	"time"

	"rocr/backend/internal/db"
	sessiondomain "rocr/backend/internal/session/domain"
	"rocr/backend/internal/user/domain"
)

func TestUsers_DuplicateEmailIsUniqueViolation(t *testing.T) {
	repo := NewUsers()
	ctx := context.Background()
	if err := repo.Create(ctx, &domain.User{ID: "a", Email: "x@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, &domain.User{ID: "b", Email: "x@example.com"})
	if !db.IsUniqueViolation(err) {
		t.Fatalf("err = %v, want unique violation", err)
	}
}

func TestUsers_ReturnsCopies(t *testing.T) {
	repo := NewUsers()
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.User{ID: "a", Email: "x@example.com", Name: "X"})
	u, _ := repo.GetByID(ctx, "a")
	u.Name = "changed"
	again, _ := repo.GetByID(ctx, "a")
	if again.Name != "X" {
		t.Errorf("stored user mutated through returned pointer")
	}
	if missing, err := repo.GetByID(ctx, "nope"); missing != nil || err != nil {
		t.Errorf("missing = %v, %v; want nil, nil", missing, err)
	}
}

func TestUsers_ListOrder(t *testing.T) {
	repo := NewUsers()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, &domain.User{ID: "late", Email: "b@x", CreatedAt: base.Add(time.Hour)})
	_ = repo.Create(ctx, &domain.User{ID: "early", Email: "a@x", CreatedAt: base})
	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].ID != "early" {
		t.Errorf("List order = %v", list)
	}
}

func TestSessions_Lifecycle(t *testing.T) {
	repo := NewSessions()
	ctx := context.Background()
	_ = repo.Create(ctx, &sessiondomain.Session{ID: "s1", UserID: "u1", RefreshToken: "t1"})
	_ = repo.Create(ctx, &sessiondomain.Session{ID: "s2", UserID: "u1", RefreshToken: "t2"})
	_ = repo.Create(ctx, &sessiondomain.Session{ID: "s3", UserID: "u2", RefreshToken: "t3"})

	if s, _ := repo.FindByToken(ctx, "t1"); s == nil || s.ID != "s1" {
		t.Fatalf("FindByToken(t1) = %v", s)
	}
	_ = repo.DeleteByToken(ctx, "t1")
	if s, _ := repo.FindByToken(ctx, "t1"); s != nil {
		t.Error("t1 should be gone")
	}
	_ = repo.DeleteAllForUser(ctx, "u1")
	if n := repo.CountForUser("u1"); n != 0 {
		t.Errorf("u1 sessions = %d", n)
	}
	_ = repo.Delete(ctx, "s3")
	if n := repo.CountForUser("u2"); n != 0 {
		t.Errorf("u2 sessions = %d", n)
	}
}
