package ports

import (
	"context"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

// VerifyCredentialResult reports the outcome of a credential verification.
type VerifyCredentialResult struct {
	CitizenID         string                   `json:"citizen_id"`
	Rank              domain.Rank              `json:"rank"`
	VerificationLevel domain.VerificationLevel `json:"verification_level"`
	IntegrityScore    float64                  `json:"integrity_score"`
}

// ProfileInput carries the optional demographic fields a citizen may supply.
// Nil / empty fields are left untouched.
type ProfileInput struct {
	CommuneID *int
	Region    string
	AgeRange  string
}

// ProfileResult reports the profile update outcome.
type ProfileResult struct {
	CitizenID      string  `json:"citizen_id"`
	FieldsAdded    int     `json:"fields_added"`
	IntegrityScore float64 `json:"integrity_score"`
}

// IdentityService manages identity verification and tier ascension.
type IdentityService interface {
	// VerifyCredential validates the national credential, hashes it, rejects
	// duplicates, and promotes the citizen to SILVER. The plain credential is
	// discarded immediately after hashing.
	VerifyCredential(ctx context.Context, citizenID, credential string) (*VerifyCredentialResult, error)
	// UpdateProfile stores newly supplied demographic fields and raises the
	// integrity score by 0.02 per new field, capped at 1.0.
	UpdateProfile(ctx context.Context, citizenID string, in ProfileInput) (*ProfileResult, error)
}
