package domain

import (
	"errors"
	"time"
)

// Shadow filter reasons. A shadow-filtered vote is persisted and visible to
// its author but excluded from public aggregation.
const (
	ShadowReasonDNAScore      = "DNA_SCORE_BELOW_THRESHOLD"
	ShadowReasonExplicitBan   = "EXPLICIT_SHADOW_BAN"
	ShadowReasonLowIntegrity  = "LOW_INTEGRITY_SCORE"
	ShadowReasonDNADisplaced  = "DNA_DISPLACED"
	ShadowReasonDNASuspicious = "DNA_HIGHLY_SUSPICIOUS"
	ShadowReasonInactive      = "ACCOUNT_DEACTIVATED"
)

var ErrVoteNotFound = errors.New("vote not found")
var ErrForbidden = errors.New("access forbidden")

// Vote is the single live evaluation of one citizen on one entity. The pair
// (CitizenID, EntityID) is unique; a resubmission overwrites the prior record.
type Vote struct {
	CitizenID        string         `json:"citizen_id" bson:"citizen_id"`
	EntityID         string         `json:"entity_id" bson:"entity_id"`
	EntityType       EntityType     `json:"entity_type" bson:"entity_type"`
	Sliders          map[string]int `json:"sliders" bson:"sliders"`
	RawAverage       float64        `json:"raw_average" bson:"raw_average"`
	IsCounted        bool           `json:"is_counted" bson:"is_counted"`
	ShadowReason     string         `json:"shadow_reason,omitempty" bson:"shadow_reason,omitempty"`
	IsLocal          bool           `json:"is_local" bson:"is_local"`
	TerritorialBonus float64        `json:"territorial_bonus" bson:"territorial_bonus"`
	EffectiveWeight  float64        `json:"effective_weight" bson:"effective_weight"`
	DNAScore         int            `json:"dna_score" bson:"dna_score"`
	Timestamp        time.Time      `json:"timestamp" bson:"timestamp"`
}

// Key returns the upsert key for the (citizen, entity) pair.
func (v *Vote) Key() string {
	return v.CitizenID + ":" + v.EntityID
}
