package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// dnaCountThreshold: votes submitted with a gate score below this value are
// processed in shadow mode, independent of every other check.
const dnaCountThreshold = 70

// neutralSliderAverage is used when a vote carries no sliders: a neutral
// midpoint score, not an error.
const neutralSliderAverage = 3.0

// VoteEngine validates, weighs, and upserts one vote per (citizen, entity)
// pair. Shadow filtering is a documented outcome, never an error: the voter
// always perceives success.
type VoteEngine struct {
	voteRepo    ports.VoteRepository
	citizenRepo ports.CitizenRepository
	entityRepo  ports.EntityRepository
	territory   *TerritoryResolver
	stealth     *StealthPolicy
	pulse       ports.PulsePublisher
	audit       *AuditBus
	log         zerolog.Logger
}

func NewVoteEngine(
	voteRepo ports.VoteRepository,
	citizenRepo ports.CitizenRepository,
	entityRepo ports.EntityRepository,
	territory *TerritoryResolver,
	stealth *StealthPolicy,
	pulse ports.PulsePublisher,
	audit *AuditBus,
	log zerolog.Logger,
) *VoteEngine {
	return &VoteEngine{
		voteRepo:    voteRepo,
		citizenRepo: citizenRepo,
		entityRepo:  entityRepo,
		territory:   territory,
		stealth:     stealth,
		pulse:       pulse,
		audit:       audit,
		log:         log,
	}
}

// Submit processes one vote end to end:
//
//  1. shadow decision (gate score, then counted-vote policy)
//  2. territorial eligibility gate, resolver only when eligible
//  3. slider average
//  4. effective weight = rank weight × territorial bonus
//  5. atomic upsert on the (citizen, entity) key
//
// The vote record is persisted even when shadow-filtered.
func (e *VoteEngine) Submit(ctx context.Context, in ports.SubmitVoteInput) (*ports.VoteResult, error) {
	if in.CitizenID == "" || in.EntityID == "" {
		return nil, fmt.Errorf("submit vote: missing identifiers: %w", domain.ErrVoteNotFound)
	}

	citizen, err := e.citizenRepo.FindByID(ctx, in.CitizenID)
	if err != nil {
		return nil, fmt.Errorf("submit vote: %w", err)
	}
	if !citizen.Rank.Valid() {
		return nil, fmt.Errorf("submit vote: rank %q: %w", citizen.Rank, domain.ErrInvalidRank)
	}

	entity, err := e.entityRepo.FindByID(ctx, in.EntityID)
	if err != nil {
		return nil, fmt.Errorf("submit vote: %w", err)
	}

	// Shadow decision. The gate-score rule is evaluated first and is
	// independent of the policy rules; the union decides countedness.
	isCounted := true
	shadowReason := ""
	var alerts []string

	if in.Gate.Score < dnaCountThreshold {
		isCounted = false
		shadowReason = domain.ShadowReasonDNAScore
		e.log.Warn().
			Str("citizen_id", citizen.ID).
			Str("entity_id", entity.ID).
			Int("dna_score", in.Gate.Score).
			Msg("shadow mode: gate score below threshold")
		if e.audit != nil {
			e.audit.Event(ctx, citizen.ID, "VOTE_SHADOW_FILTERED", "VOTE", entity.ID, map[string]any{
				"reason":    domain.ShadowReasonDNAScore,
				"dna_score": in.Gate.Score,
			})
		}
	}

	decision := e.stealth.ShouldCount(ctx, citizen, &in.Gate)
	alerts = append(alerts, decision.Alerts...)
	if !decision.IsCounted {
		isCounted = false
		if shadowReason == "" {
			shadowReason = decision.Reason
		}
	}

	// Territorial eligibility gate. All three conditions must hold before the
	// resolver is even consulted; otherwise the bonus is forced to 1.0.
	isLocal := false
	bonus := 1.0
	if entity.Type == domain.EntityPerson &&
		citizen.Rank.AtLeast(domain.RankSilver) &&
		entity.JurisdictionID != nil {
		res := e.territory.Resolve(ctx, citizen.CommuneID, entity.JurisdictionID, in.GeoIPCommuneID)
		isLocal = res.IsLocal
		bonus = res.Bonus
	}

	rawAverage := sliderAverage(in.Sliders)
	effectiveWeight := citizen.Rank.VoteWeight() * bonus

	vote := &domain.Vote{
		CitizenID:        citizen.ID,
		EntityID:         entity.ID,
		EntityType:       entity.Type,
		Sliders:          in.Sliders,
		RawAverage:       rawAverage,
		IsCounted:        isCounted,
		ShadowReason:     shadowReason,
		IsLocal:          isLocal,
		TerritorialBonus: bonus,
		EffectiveWeight:  effectiveWeight,
		DNAScore:         in.Gate.Score,
		Timestamp:        time.Now().UTC(),
	}

	wasUpdated, err := e.voteRepo.Upsert(ctx, vote)
	if err != nil {
		return nil, fmt.Errorf("submit vote: upsert: %w", err)
	}

	e.log.Info().
		Str("citizen_id", citizen.ID).
		Str("entity_id", entity.ID).
		Float64("raw_average", rawAverage).
		Bool("counted", isCounted).
		Bool("local", isLocal).
		Float64("weight", effectiveWeight).
		Bool("updated", wasUpdated).
		Msg("vote upserted")

	// Fire-and-forget fan-out. A publish failure never fails the write.
	if e.pulse != nil && isCounted {
		ev := ports.PulseEvent{
			Type:          "vote_pulse",
			EntityID:      entity.ID,
			TotalVotes:    entity.TotalReviews + 1,
			IsGoldVerdict: citizen.Rank.AtLeast(domain.RankGold),
			VoterRank:     string(citizen.Rank),
			Timestamp:     vote.Timestamp.Format(time.RFC3339),
		}
		if pubErr := e.pulse.Publish(ctx, ev); pubErr != nil {
			e.log.Warn().Err(pubErr).Str("entity_id", entity.ID).Msg("pulse publish failed")
		}
	}

	return &ports.VoteResult{
		Success:          true,
		CitizenID:        citizen.ID,
		EntityID:         entity.ID,
		RawAverage:       rawAverage,
		IsCounted:        isCounted,
		IsLocal:          isLocal,
		TerritorialBonus: bonus,
		EffectiveWeight:  effectiveWeight,
		WasUpdated:       wasUpdated,
		ShadowReason:     shadowReason,
		Alerts:           alerts,
	}, nil
}

// sliderAverage returns the arithmetic mean of the slider values rounded to
// two decimals, or the neutral midpoint when no sliders were supplied.
func sliderAverage(sliders map[string]int) float64 {
	if len(sliders) == 0 {
		return neutralSliderAverage
	}
	sum := 0
	for _, v := range sliders {
		sum += v
	}
	return math.Round(float64(sum)/float64(len(sliders))*100) / 100
}
