package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// Default ranking parameters. m=30 is the usual minimum-sample threshold, and
// the volume curve saturates at 100 votes.
const (
	DefaultConfidenceThreshold = 30
	DefaultGlobalMean          = 3.0
	DefaultVolumeSaturation    = 100
)

// Confidence labels shown alongside a score. Informational only; never used
// for sorting.
const (
	ConfidenceNoData       = "SIN_DATOS"
	ConfidenceInsufficient = "INSUFICIENTE"
	ConfidencePreliminary  = "PRELIMINAR"
	ConfidenceReliable     = "CONFIABLE"
	ConfidenceStable       = "ESTABLE"
)

// RankingParams holds the process-wide defaults; the live ParamSource may
// override them per call.
type RankingParams struct {
	ConfidenceThreshold int
	GlobalMean          float64
	VolumeSaturation    int
}

// RankingService converts raw counted votes into a stable public score using
// Bayesian shrinkage toward the global mean plus a volume confidence factor.
// A handful of 5.0 votes cannot outrank an entity with hundreds of consistent
// ones.
type RankingService struct {
	voteRepo   ports.VoteRepository
	entityRepo ports.EntityRepository
	pulse      ports.PulsePublisher
	params     ports.ParamSource
	defaults   RankingParams
	log        zerolog.Logger
}

func NewRankingService(
	voteRepo ports.VoteRepository,
	entityRepo ports.EntityRepository,
	pulse ports.PulsePublisher,
	params ports.ParamSource,
	defaults RankingParams,
	log zerolog.Logger,
) *RankingService {
	if defaults.ConfidenceThreshold <= 0 {
		defaults.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if defaults.GlobalMean <= 0 {
		defaults.GlobalMean = DefaultGlobalMean
	}
	if defaults.VolumeSaturation <= 0 {
		defaults.VolumeSaturation = DefaultVolumeSaturation
	}
	return &RankingService{
		voteRepo:   voteRepo,
		entityRepo: entityRepo,
		pulse:      pulse,
		params:     params,
		defaults:   defaults,
		log:        log,
	}
}

// Shrinkage pulls a low-sample average toward the global mean:
//
//	W = (N/(N+m))·R + (m/(N+m))·C
//
// With N=0 the prior C is returned; as N grows the result converges to R.
func (s *RankingService) Shrinkage(ctx context.Context, nVotes int, rawAverage float64) float64 {
	m, c, _ := s.tunables(ctx)
	if nVotes <= 0 {
		return c
	}
	weightReal := float64(nVotes) / float64(nVotes+m)
	weightPrior := float64(m) / float64(nVotes+m)
	return round4(weightReal*rawAverage + weightPrior*c)
}

// VolumeFactor is the confidence multiplier √(N/saturation), capped at 1.0.
// Concave growth: early votes add stability fast, later ones less so.
func (s *RankingService) VolumeFactor(ctx context.Context, nVotes int) float64 {
	_, _, sat := s.tunables(ctx)
	if nVotes <= 0 {
		return 0.0
	}
	return round4(math.Min(1.0, math.Sqrt(float64(nVotes)/float64(sat))))
}

// Score combines shrinkage, volume and the reputation weight into the final
// public score, with the full breakdown for exact reconstruction.
func (s *RankingService) Score(ctx context.Context, nVotes int, rawAverage, reputationWeight float64, isLocal bool) ports.ScoreBreakdown {
	shrinkage := s.Shrinkage(ctx, nVotes, rawAverage)
	volume := s.VolumeFactor(ctx, nVotes)

	effectiveWeight := reputationWeight
	if isLocal {
		effectiveWeight *= s.territorialMultiplier(ctx)
	}

	m, _, sat := s.tunables(ctx)
	return ports.ScoreBreakdown{
		FinalScore:       round4(shrinkage * volume * effectiveWeight),
		ShrinkageScore:   shrinkage,
		VolumeFactor:     volume,
		ReputationWeight: reputationWeight,
		IsLocal:          isLocal,
		NVotes:           nVotes,
		RawAverage:       rawAverage,
		ConfidenceLabel:  confidenceLabel(nVotes, m, sat),
	}
}

// Rank scores every entity and orders them descending by final score.
// The sort is stable: ties keep their input order.
func (s *RankingService) Rank(ctx context.Context, entities []*domain.Entity) []ports.RankedEntity {
	ranked := make([]ports.RankedEntity, 0, len(entities))
	for _, e := range entities {
		breakdown := s.Score(ctx, e.TotalReviews, e.ReputationScore, 1.0, false)
		ranked = append(ranked, ports.RankedEntity{
			EntityID:       e.ID,
			Name:           e.Name,
			Type:           string(e.Type),
			ScoreBreakdown: breakdown,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	for i := range ranked {
		ranked[i].RankPosition = i + 1
	}
	return ranked
}

// RecomputeEntity re-aggregates the counted votes of an entity and persists
// the new reputation snapshot. The pass may run concurrently with new
// submissions; the result is an eventually consistent snapshot.
func (s *RankingService) RecomputeEntity(ctx context.Context, entityID string) (*ports.ScoreBreakdown, error) {
	votes, err := s.voteRepo.ListByEntity(ctx, entityID, true)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", entityID, err)
	}

	n := len(votes)
	rawAverage := 0.0
	if n > 0 {
		// Weighted mean: each vote contributes proportionally to its
		// effective weight (rank × territorial bonus).
		sum, weight := 0.0, 0.0
		for _, v := range votes {
			w := v.EffectiveWeight
			if w <= 0 {
				w = 1.0
			}
			sum += v.RawAverage * w
			weight += w
		}
		rawAverage = round2(sum / weight)
	}

	if err := s.entityRepo.UpdateReputation(ctx, entityID, rawAverage, n); err != nil {
		return nil, fmt.Errorf("recompute %s: update reputation: %w", entityID, err)
	}

	breakdown := s.Score(ctx, n, rawAverage, 1.0, false)

	if s.pulse != nil {
		ev := ports.PulseEvent{
			Type:       "score_update",
			EntityID:   entityID,
			NewScore:   breakdown.FinalScore,
			TotalVotes: n,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.pulse.Publish(ctx, ev); err != nil {
			s.log.Warn().Err(err).Str("entity_id", entityID).Msg("pulse publish failed")
		}
	}

	s.log.Info().
		Str("entity_id", entityID).
		Int("n_votes", n).
		Float64("raw_average", rawAverage).
		Float64("final_score", breakdown.FinalScore).
		Msg("entity reputation recomputed")

	return &breakdown, nil
}

func (s *RankingService) tunables(ctx context.Context) (m int, c float64, sat int) {
	m = s.defaults.ConfidenceThreshold
	c = s.defaults.GlobalMean
	sat = s.defaults.VolumeSaturation
	if s.params != nil {
		m = s.params.Int(ctx, ports.ParamConfidenceThreshold, m)
		c = s.params.Float(ctx, ports.ParamGlobalMean, c)
		sat = s.params.Int(ctx, ports.ParamVolumeSaturation, sat)
	}
	return m, c, sat
}

func (s *RankingService) territorialMultiplier(ctx context.Context) float64 {
	if s.params == nil {
		return DefaultTerritorialBonus
	}
	return s.params.Float(ctx, ports.ParamTerritorialBonus, DefaultTerritorialBonus)
}

func confidenceLabel(nVotes, m, saturation int) string {
	switch {
	case nVotes == 0:
		return ConfidenceNoData
	case nVotes < 10:
		return ConfidenceInsufficient
	case nVotes < m:
		return ConfidencePreliminary
	case nVotes < saturation:
		return ConfidenceReliable
	default:
		return ConfidenceStable
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
