package service

import (
	"math"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

// PivotStrategy selects the weighting profile applied to an entity category
// in full multi-factor ranking.
type PivotStrategy string

const (
	PivotVolumeSpeed        PivotStrategy = "volume_speed"  // events: fast vote volume
	PivotIntegritySeniority PivotStrategy = "integrity"     // persons: voter integrity + seniority
	PivotServiceDiversity   PivotStrategy = "diversity"     // companies: breadth of evaluated services
	PivotTotalParticipation PivotStrategy = "participation" // polls: total participation
)

var entityPivotMap = map[domain.EntityType]PivotStrategy{
	domain.EntityPerson:  PivotIntegritySeniority,
	domain.EntityCompany: PivotServiceDiversity,
	domain.EntityEvent:   PivotVolumeSpeed,
	domain.EntityPoll:    PivotTotalParticipation,
}

// strategyWeights defines the named-factor weights of each profile. Each
// profile's weights sum to a positive total.
var strategyWeights = map[PivotStrategy]map[string]float64{
	PivotVolumeSpeed: {
		"reputation_score":   0.3,
		"total_votes_24h":    0.4,
		"integrity_index":    0.15,
		"account_age_factor": 0.05,
		"vote_diversity":     0.1,
	},
	PivotIntegritySeniority: {
		"reputation_score":   0.25,
		"integrity_index":    0.30,
		"account_age_factor": 0.25,
		"total_votes":        0.10,
		"gold_ratio":         0.10,
	},
	PivotServiceDiversity: {
		"reputation_score": 0.25,
		"service_coverage": 0.25,
		"integrity_index":  0.20,
		"total_votes":      0.15,
		"recency_factor":   0.15,
	},
	PivotTotalParticipation: {
		"reputation_score": 0.20,
		"total_votes":      0.35,
		"vote_diversity":   0.20,
		"integrity_index":  0.15,
		"is_active":        0.10,
	},
}

// PivotStrategyFor returns the weighting profile for an entity type. Unknown
// types fall back to the PERSON profile.
func PivotStrategyFor(t domain.EntityType) PivotStrategy {
	if s, ok := entityPivotMap[t]; ok {
		return s
	}
	return PivotIntegritySeniority
}

// PivotWeights returns the named-factor weights for an entity type.
func PivotWeights(t domain.EntityType) map[string]float64 {
	return strategyWeights[PivotStrategyFor(t)]
}

// PivotScore computes the weighted average of the supplied factor values
// under the entity type's profile, normalized to [0, 5]. Missing factors
// contribute zero.
func PivotScore(t domain.EntityType, factors map[string]float64) float64 {
	weights := PivotWeights(t)

	weightedSum := 0.0
	totalWeight := 0.0
	for name, w := range weights {
		weightedSum += factors[name] * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0.0
	}

	raw := weightedSum / totalWeight
	normalized := math.Max(0.0, math.Min(5.0, raw))
	return round3(normalized)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
