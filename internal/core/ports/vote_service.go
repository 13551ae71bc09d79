package ports

import (
	"context"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

// GateMetadata is the request metadata analysed by the identity gate.
type GateMetadata struct {
	FillDuration float64 // seconds between form load and submit
	UserAgent    string
	IP           string
	Webdriver    bool
	// GeoIPCommuneID is the commune inferred from the client IP, resolved
	// upstream. Never coordinates.
	GeoIPCommuneID *int
}

// GateResult is the verdict of the identity gate for one request.
type GateResult struct {
	Score          int
	Classification domain.GateClassification
	Alerts         []string
}

// SubmitVoteInput carries everything the vote engine needs for one submission.
// CitizenID comes from the authenticated session; the engine trusts it.
type SubmitVoteInput struct {
	CitizenID string
	EntityID  string
	Sliders   map[string]int
	// Gate is the identity-gate verdict computed for the submitting request.
	Gate GateResult
	// GeoIPCommuneID is the commune inferred from the client IP, used as the
	// territorial fallback when the profile carries none.
	GeoIPCommuneID *int
}

// VoteResult is returned to the caller of the vote engine. It reflects the
// true internal outcome; the end citizen only ever sees a success message.
type VoteResult struct {
	Success          bool
	CitizenID        string
	EntityID         string
	RawAverage       float64
	IsCounted        bool
	IsLocal          bool
	TerritorialBonus float64
	EffectiveWeight  float64
	WasUpdated       bool
	ShadowReason     string
	Alerts           []string
}

// VoteService validates, weighs, and upserts votes.
type VoteService interface {
	Submit(ctx context.Context, in SubmitVoteInput) (*VoteResult, error)
}

// ScoreBreakdown exposes every parameter of a score computation so the result
// can be reconstructed exactly.
type ScoreBreakdown struct {
	FinalScore       float64 `json:"final_score"`
	ShrinkageScore   float64 `json:"shrinkage_score"`
	VolumeFactor     float64 `json:"volume_factor"`
	ReputationWeight float64 `json:"reputation_weight"`
	IsLocal          bool    `json:"is_local"`
	NVotes           int     `json:"n_votes"`
	RawAverage       float64 `json:"raw_average"`
	ConfidenceLabel  string  `json:"confidence_label"`
}

// RankedEntity is one row of a public ranking.
type RankedEntity struct {
	EntityID     string `json:"entity_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	RankPosition int    `json:"rank_position"`
	ScoreBreakdown
}

// RankingService aggregates counted votes into stable public scores.
type RankingService interface {
	Score(ctx context.Context, nVotes int, rawAverage, reputationWeight float64, isLocal bool) ScoreBreakdown
	Rank(ctx context.Context, entities []*domain.Entity) []RankedEntity
	// RecomputeEntity re-aggregates the counted votes of an entity and
	// persists the new reputation snapshot. Safe to run concurrently with
	// submissions; results are eventually consistent.
	RecomputeEntity(ctx context.Context, entityID string) (*ScoreBreakdown, error)
}
