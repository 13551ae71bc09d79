package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// AuditBus writes immutable audit events. A failed write is logged locally
// and swallowed: the audit trail must never abort the operation that
// produced the event.
type AuditBus struct {
	sink ports.AuditSink
	log  zerolog.Logger
}

func NewAuditBus(sink ports.AuditSink, log zerolog.Logger) *AuditBus {
	return &AuditBus{sink: sink, log: log}
}

// Event records a business event attributed to an actor.
func (b *AuditBus) Event(ctx context.Context, actorID, action, entityType, entityID string, details map[string]any) {
	b.record(ctx, &domain.AuditEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	})
}

// SecurityEvent records a platform security event with an explicit severity.
func (b *AuditBus) SecurityEvent(ctx context.Context, actorID, action, entityType, entityID, severity string, details map[string]any) {
	b.record(ctx, &domain.AuditEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Severity:   severity,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	})
}

func (b *AuditBus) record(ctx context.Context, ev *domain.AuditEvent) {
	if b.sink == nil {
		return
	}
	if err := b.sink.Insert(ctx, ev); err != nil {
		b.log.Warn().Err(err).Str("action", ev.Action).Msg("audit write failed")
		return
	}
	b.log.Debug().Str("action", ev.Action).Str("actor", ev.ActorID).Msg("audit event recorded")
}
