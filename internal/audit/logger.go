package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rocr/backend/internal/audit/domain"
	auditrepo "rocr/backend/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by auth and admin code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Publisher forwards persisted audit events to an external sink such as Kafka.
type Publisher interface {
	Publish(ctx context.Context, entry *domain.AuditLog) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) LogEvent(context.Context, string, string, string, string) {}

// Logger implements AuditLogger using the audit repository, an optional IP extractor and an optional publisher.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	publisher   Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithPublisher forwards every persisted event to p in the background.
func WithPublisher(p Publisher) Option {
	return func(l *Logger) { l.publisher = p }
}

// WithLogger sets where persistence and publish failures are reported.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Logger) { l.logger = logger }
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, opts ...Option) *Logger {
	l := &Logger{repo: repo, ipExtractor: ipExtractor, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.Error().Err(err).Str("action", action).Str("resource", resource).Msg("audit: failed to log event")
		return
	}
	if l.publisher != nil {
		go func() {
			if err := l.publisher.Publish(context.WithoutCancel(ctx), entry); err != nil {
				l.logger.Warn().Err(err).Str("action", action).Msg("audit: publish failed")
			}
		}()
	}
}
