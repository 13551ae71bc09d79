package domain

import (
	"errors"
	"time"
)

// EntityType discriminates the public entities citizens can evaluate.
type EntityType string

const (
	EntityPerson  EntityType = "PERSON"  // politicians, public figures
	EntityCompany EntityType = "COMPANY" // evaluated per service line
	EntityEvent   EntityType = "EVENT"   // festivals, candidacies
	EntityPoll    EntityType = "POLL"    // open polls
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerson, EntityCompany, EntityEvent, EntityPoll:
		return true
	}
	return false
}

var ErrEntityNotFound = errors.New("entity not found")

// Entity is a public subject of evaluation. JurisdictionID is only meaningful
// for PERSON entities; ReputationScore and TotalReviews are written exclusively
// by the ranking recomputation pass.
type Entity struct {
	ID              string     `json:"id" bson:"_id,omitempty"`
	Name            string     `json:"name" bson:"name"`
	Type            EntityType `json:"type" bson:"type"`
	JurisdictionID  *int       `json:"jurisdiction_id,omitempty" bson:"jurisdiction_id,omitempty"`
	ServiceTags     []string   `json:"service_tags,omitempty" bson:"service_tags,omitempty"`
	ReputationScore float64    `json:"reputation_score" bson:"reputation_score"`
	TotalReviews    int        `json:"total_reviews" bson:"total_reviews"`
	IsActive        bool       `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}
