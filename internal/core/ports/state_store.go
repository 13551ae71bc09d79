package ports

import (
	"context"
	"time"
)

// SecurityStateStore is the shared fast state store holding the global
// security level, the transition history, and the blocked-IP set. Reads are
// on the hot request path and must be cheap; implementations degrade
// gracefully (callers apply the YELLOW fail-safe on error).
type SecurityStateStore interface {
	GetLevel(ctx context.Context) (string, error)
	SetLevel(ctx context.Context, level string, ttl time.Duration) error
	AppendHistory(ctx context.Context, entry string) error
	AddBlockedIP(ctx context.Context, ip string) error
	IsBlockedIP(ctx context.Context, ip string) (bool, error)
	Healthy(ctx context.Context) error
}

// ParamSource provides read-only access to live tunable parameters with a
// safe fallback: any read failure yields the supplied default.
type ParamSource interface {
	Float(ctx context.Context, key string, fallback float64) float64
	Int(ctx context.Context, key string, fallback int) int
}

// Live parameter keys understood by the ParamSource.
const (
	ParamTerritorialBonus    = "territorial_bonus"
	ParamShadowBanThreshold  = "shadow_ban_threshold"
	ParamGlobalMean          = "global_mean"
	ParamConfidenceThreshold = "confidence_threshold"
	ParamVolumeSaturation    = "volume_saturation"
)

// PulseEvent is the payload fanned out to real-time observers of an entity.
// The channel is strictly one-way; clients can never inject data through it.
type PulseEvent struct {
	Type           string  `json:"type"`
	EntityID       string  `json:"entity_id"`
	NewScore       float64 `json:"new_score"`
	TotalVotes     int     `json:"total_votes"`
	IntegrityIndex float64 `json:"integrity_index"`
	IsGoldVerdict  bool    `json:"is_gold_verdict"`
	VoterRank      string  `json:"voter_rank"`
	Timestamp      string  `json:"timestamp"`
}

// PulsePublisher fans a pulse event out to the per-entity channel.
// Publishing is fire-and-forget: failures must never fail the vote write.
type PulsePublisher interface {
	Publish(ctx context.Context, ev PulseEvent) error
}

// PulseSubscriber delivers raw pulse payloads for one entity. The returned
// cancel function releases the subscription.
type PulseSubscriber interface {
	Subscribe(ctx context.Context, entityID string) (<-chan []byte, func(), error)
}
