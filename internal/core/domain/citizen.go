package domain

import (
	"errors"
	"time"
)

// Rank is the ordered trust tier of a citizen. Higher tiers carry a larger
// base vote weight in public aggregation.
type Rank string

const (
	RankBronze  Rank = "BRONZE"
	RankSilver  Rank = "SILVER"
	RankGold    Rank = "GOLD"
	RankDiamond Rank = "DIAMOND"
)

// rankOrder defines the explicit tier ordering used for comparisons.
// BRONZE < SILVER < GOLD < DIAMOND.
var rankOrder = map[Rank]int{
	RankBronze:  0,
	RankSilver:  1,
	RankGold:    2,
	RankDiamond: 3,
}

// rankWeights maps each tier to its base vote weight.
var rankWeights = map[Rank]float64{
	RankBronze:  1.0,
	RankSilver:  1.5,
	RankGold:    2.5,
	RankDiamond: 5.0,
}

// Valid reports whether r is one of the four known tiers.
func (r Rank) Valid() bool {
	_, ok := rankOrder[r]
	return ok
}

// AtLeast reports whether r is equal to or above other in the tier ordering.
// Unknown ranks always compare below BRONZE.
func (r Rank) AtLeast(other Rank) bool {
	return rankOrder[r] >= rankOrder[other]
}

// VoteWeight returns the base vote weight for the tier. Unknown ranks fall
// back to the BRONZE weight.
func (r Rank) VoteWeight() float64 {
	if w, ok := rankWeights[r]; ok {
		return w
	}
	return rankWeights[RankBronze]
}

// VerificationLevel is the certainty of a citizen's identity.
type VerificationLevel int

const (
	VerificationEmail VerificationLevel = 1 // email confirmed only
	VerificationRUT   VerificationLevel = 2 // national credential validated
	VerificationAdmin VerificationLevel = 3 // manually verified by an admin
)

var ErrCitizenNotFound = errors.New("citizen not found")
var ErrCitizenExists = errors.New("citizen already exists")
var ErrInvalidRank = errors.New("invalid rank")
var ErrInvalidCredential = errors.New("invalid identity credential")
var ErrDuplicateCredential = errors.New("credential already registered")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Citizen is a registered member of the platform. Demographic fields are
// optional and only ever stored as opaque identifiers, never coordinates.
type Citizen struct {
	ID                string            `json:"id" bson:"_id,omitempty"`
	Username          string            `json:"username" bson:"username"`
	Email             string            `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash      string            `json:"-" bson:"password_hash"`
	Role              string            `json:"role" bson:"role"`
	Rank              Rank              `json:"rank" bson:"rank"`
	VerificationLevel VerificationLevel `json:"verification_level" bson:"verification_level"`
	IntegrityScore    float64           `json:"integrity_score" bson:"integrity_score"`
	IsShadowBanned    bool              `json:"-" bson:"is_shadow_banned"`
	IsActive          bool              `json:"is_active" bson:"is_active"`
	CredentialHash    string            `json:"-" bson:"credential_hash,omitempty"`
	CommuneID         *int              `json:"commune_id,omitempty" bson:"commune_id,omitempty"`
	Region            string            `json:"region,omitempty" bson:"region,omitempty"`
	AgeRange          string            `json:"age_range,omitempty" bson:"age_range,omitempty"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" bson:"updated_at"`
}

const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)
