package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rocr/backend/internal/audit/domain"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

type chanPublisher struct {
	ch chan *domain.AuditLog
}

func (p *chanPublisher) Publish(ctx context.Context, entry *domain.AuditLog) error {
	p.ch <- entry
	return nil
}

func TestLogger_LogEvent_PersistsEntry(t *testing.T) {
	repo := &mockAuditRepo{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logger := NewLogger(repo, func(context.Context) string { return "192.168.1.1" },
		WithClock(func() time.Time { return fixed }))

	logger.LogEvent(context.Background(), "user-1", "test_action", "test_resource", "metadata")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.UserID != "user-1" {
		t.Errorf("user_id = %q, want %q", entry.UserID, "user-1")
	}
	if entry.Action != "test_action" || entry.Resource != "test_resource" {
		t.Errorf("action/resource = %q/%q", entry.Action, entry.Resource)
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.Metadata != "metadata" {
		t.Errorf("metadata = %q, want %q", entry.Metadata, "metadata")
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if !entry.CreatedAt.Equal(fixed) {
		t.Errorf("created_at = %v, want %v", entry.CreatedAt, fixed)
	}
}

func TestLogger_LogEvent_NilIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)

	logger.LogEvent(context.Background(), "", domain.ActionLoginFailure, "session", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
	if repo.entries[0].UserID != "" {
		t.Errorf("user_id = %q, want empty for anonymous event", repo.entries[0].UserID)
	}
}

func TestLogger_LogEvent_EmptyExtractedIP(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(context.Context) string { return "" })

	logger.LogEvent(context.Background(), "user-1", "action", "resource", "")

	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
}

func TestLogger_LogEvent_Publishes(t *testing.T) {
	repo := &mockAuditRepo{}
	pub := &chanPublisher{ch: make(chan *domain.AuditLog, 1)}
	logger := NewLogger(repo, nil, WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	logger.LogEvent(ctx, "user-1", domain.ActionLogout, "session", "")
	cancel()

	select {
	case got := <-pub.ch:
		if got.Action != domain.ActionLogout || got.UserID != "user-1" {
			t.Errorf("published %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not published")
	}
}

func TestLogger_LogEvent_RepositoryErrorSkipsPublish(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	pub := &chanPublisher{ch: make(chan *domain.AuditLog, 1)}
	logger := NewLogger(repo, nil, WithPublisher(pub))

	// Best-effort: no panic, no error.
	logger.LogEvent(context.Background(), "user-1", "action", "resource", "")

	select {
	case got := <-pub.ch:
		t.Errorf("unexpected publish of %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	logger := NewLogger(nil, nil)
	logger.LogEvent(context.Background(), "user-1", "action", "resource", "")
}

func TestNop(t *testing.T) {
	var l AuditLogger = Nop{}
	l.LogEvent(context.Background(), "user-1", "action", "resource", "")
}
