package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// integrityPerProfileField is the integrity bump for each newly supplied
// demographic field, capped at 1.0 overall.
const integrityPerProfileField = 0.02

// verifiedIntegrityScore is assigned on credential verification.
const verifiedIntegrityScore = 0.75

// IdentityService handles credential verification and tier ascension. The
// plain credential only ever exists in memory during validation; storage sees
// the salted hash exclusively.
type IdentityService struct {
	citizens ports.CitizenRepository
	audit    *AuditBus
	salt     string
	log      zerolog.Logger
}

func NewIdentityService(citizens ports.CitizenRepository, audit *AuditBus, salt string, log zerolog.Logger) *IdentityService {
	return &IdentityService{citizens: citizens, audit: audit, salt: salt, log: log}
}

// VerifyCredential validates the national credential check digit, hashes it,
// rejects duplicate identities, and promotes the citizen BRONZE → SILVER.
// Duplicate details go to the audit trail only; the caller receives a generic
// error that never reveals the conflicting identity.
func (s *IdentityService) VerifyCredential(ctx context.Context, citizenID, credential string) (*ports.VerifyCredentialResult, error) {
	if !ValidateRUT(credential) {
		s.audit.Event(ctx, citizenID, "RUT_VALIDATION_FAILED", "USER", citizenID, map[string]any{
			"reason": "INVALID_CHECK_DIGIT",
		})
		return nil, domain.ErrInvalidCredential
	}

	hash := HashRUT(credential, s.salt)

	existing, err := s.citizens.FindByCredentialHash(ctx, hash)
	if err != nil && !errors.Is(err, domain.ErrCitizenNotFound) {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	if existing != nil {
		s.audit.Event(ctx, citizenID, "RUT_DUPLICATE_ATTEMPT", "USER", citizenID, map[string]any{
			"existing_citizen_id": existing.ID,
			"alert":               "POSSIBLE_MULTI_ACCOUNT",
		})
		return nil, domain.ErrDuplicateCredential
	}

	citizen, err := s.citizens.FindByID(ctx, citizenID)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}

	previousRank := citizen.Rank
	citizen.CredentialHash = hash
	citizen.VerificationLevel = domain.VerificationRUT
	if !citizen.Rank.AtLeast(domain.RankSilver) {
		citizen.Rank = domain.RankSilver
	}
	citizen.IntegrityScore = verifiedIntegrityScore
	citizen.UpdatedAt = time.Now().UTC()

	if err := s.citizens.Update(ctx, citizen); err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}

	s.audit.Event(ctx, citizenID, "USER_VERIFIED_RUT", "USER", citizenID, map[string]any{
		"previous_rank": string(previousRank),
		"new_rank":      string(citizen.Rank),
	})
	s.log.Info().Str("citizen_id", citizenID).Str("rank", string(citizen.Rank)).Msg("credential verified")

	return &ports.VerifyCredentialResult{
		CitizenID:         citizen.ID,
		Rank:              citizen.Rank,
		VerificationLevel: citizen.VerificationLevel,
		IntegrityScore:    citizen.IntegrityScore,
	}, nil
}

// UpdateProfile stores newly supplied demographic fields. Each field that was
// previously empty raises the integrity score by 0.02, capped at 1.0.
func (s *IdentityService) UpdateProfile(ctx context.Context, citizenID string, in ports.ProfileInput) (*ports.ProfileResult, error) {
	citizen, err := s.citizens.FindByID(ctx, citizenID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	added := 0
	if in.CommuneID != nil && citizen.CommuneID == nil {
		citizen.CommuneID = in.CommuneID
		added++
	}
	if in.Region != "" && citizen.Region == "" {
		citizen.Region = in.Region
		added++
	}
	if in.AgeRange != "" && citizen.AgeRange == "" {
		citizen.AgeRange = in.AgeRange
		added++
	}

	if added > 0 {
		citizen.IntegrityScore = math.Min(1.0, round2(citizen.IntegrityScore+float64(added)*integrityPerProfileField))
		citizen.UpdatedAt = time.Now().UTC()
		if err := s.citizens.Update(ctx, citizen); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		s.audit.Event(ctx, citizenID, "PROFILE_UPDATED", "USER", citizenID, map[string]any{
			"fields_added":    added,
			"integrity_score": citizen.IntegrityScore,
		})
	}

	return &ports.ProfileResult{
		CitizenID:      citizen.ID,
		FieldsAdded:    added,
		IntegrityScore: citizen.IntegrityScore,
	}, nil
}

// NormalizeRUT strips dots and dashes and uppercases the check digit, leaving
// only digits and K.
func NormalizeRUT(rut string) string {
	var b strings.Builder
	for _, r := range rut {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'k' || r == 'K':
			b.WriteRune('K')
		}
	}
	return b.String()
}

// ValidateRUT verifies the modulo-11 check digit of a Chilean RUT in any
// textual format.
func ValidateRUT(rut string) bool {
	normalized := NormalizeRUT(rut)
	if len(normalized) < 2 {
		return false
	}

	body, dv := normalized[:len(normalized)-1], normalized[len(normalized)-1:]

	factors := []int{2, 3, 4, 5, 6, 7}
	sum := 0
	for i := 0; i < len(body); i++ {
		d := body[len(body)-1-i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * factors[i%6]
	}

	var expected string
	switch v := 11 - (sum % 11); v {
	case 11:
		expected = "0"
	case 10:
		expected = "K"
	default:
		expected = fmt.Sprintf("%d", v)
	}

	return expected == dv
}

// HashRUT returns the salted SHA-256 hash of the normalized credential. Two
// textual representations of the same credential hash identically, and the
// credential never appears inside its own hash.
func HashRUT(rut, salt string) string {
	payload := salt + ":" + NormalizeRUT(rut)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
