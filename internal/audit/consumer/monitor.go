// Package consumer reads the audit topic and flags suspicious activity.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"rocr/backend/internal/audit/domain"
	"rocr/backend/internal/ratelimit"
)

// MessageReader is the subset of *kafka.Reader used by Run.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Monitor logs every audit event it consumes and warns once per window when one
// address accumulates Threshold login failures.
type Monitor struct {
	store     ratelimit.Store
	threshold int
	window    time.Duration
	logger    zerolog.Logger
}

// NewMonitor returns a Monitor that counts failures in store.
func NewMonitor(store ratelimit.Store, threshold int, window time.Duration, logger zerolog.Logger) *Monitor {
	if threshold <= 0 {
		threshold = 10
	}
	return &Monitor{store: store, threshold: threshold, window: window, logger: logger}
}

// Handle processes one message value. It reports whether the event crossed the alert threshold.
func (m *Monitor) Handle(ctx context.Context, value []byte) (bool, error) {
	var entry domain.AuditLog
	if err := json.Unmarshal(value, &entry); err != nil {
		return false, fmt.Errorf("audit monitor: decode: %w", err)
	}
	m.logger.Info().
		Str("audit_id", entry.ID).
		Str("user_id", entry.UserID).
		Str("action", entry.Action).
		Str("resource", entry.Resource).
		Str("ip", entry.IP).
		Time("at", entry.CreatedAt).
		Msg("audit event")

	if entry.Action != domain.ActionLoginFailure {
		return false, nil
	}
	w, err := m.store.Hit(ctx, "login_failure:"+entry.IP, m.window)
	if err != nil {
		return false, err
	}
	if w.Count != m.threshold {
		return false, nil
	}
	m.logger.Warn().
		Str("ip", entry.IP).
		Int("failures", w.Count).
		Dur("window", m.window).
		Time("window_ends", w.ResetAt).
		Msg("repeated login failures from one address")
	return true, nil
}

// Run consumes messages until ctx is done or the reader is closed. Undecodable messages are logged and skipped.
func (m *Monitor) Run(ctx context.Context, r MessageReader) error {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			m.logger.Error().Err(err).Msg("kafka read")
			continue
		}
		if _, err := m.Handle(ctx, msg.Value); err != nil {
			m.logger.Warn().Err(err).Int64("offset", msg.Offset).Int("partition", msg.Partition).Msg("skipping audit message")
		}
	}
}
