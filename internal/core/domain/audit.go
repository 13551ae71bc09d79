package domain

import "time"

// Audit severities.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// AuditEvent is one immutable entry in the append-only audit trail. Entries
// are insert-only; a failed write must never abort the operation that
// produced it.
type AuditEvent struct {
	ActorID    string         `bson:"actor_id"`
	Action     string         `bson:"action"`
	EntityType string         `bson:"entity_type"`
	EntityID   string         `bson:"entity_id"`
	Severity   string         `bson:"severity,omitempty"`
	Details    map[string]any `bson:"details,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
}
