package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// DefaultShadowBanThreshold is the integrity score below which votes stop
// counting, unless overridden by a live parameter.
const DefaultShadowBanThreshold = 0.2

// UserFacingMessage is the only message the voter ever receives, regardless of
// the internal outcome.
const UserFacingMessage = "Tu voto ha sido registrado exitosamente."

// CountDecision is the internal outcome of the counted-vote policy.
type CountDecision struct {
	IsCounted bool
	Reason    string
	Alerts    []string
	UserSees  string
}

// StealthPolicy decides whether a vote participates in public aggregation.
// A filtered vote is still persisted and visible to its author; the author
// is never told it was filtered.
type StealthPolicy struct {
	params           ports.ParamSource
	defaultThreshold float64
	audit            *AuditBus
	log              zerolog.Logger
}

// NewStealthPolicy builds the policy with the process-wide threshold default;
// the live ParamSource may override it per call. A non-positive
// defaultThreshold falls back to DefaultShadowBanThreshold.
func NewStealthPolicy(params ports.ParamSource, defaultThreshold float64, audit *AuditBus, log zerolog.Logger) *StealthPolicy {
	if defaultThreshold <= 0 {
		defaultThreshold = DefaultShadowBanThreshold
	}
	return &StealthPolicy{params: params, defaultThreshold: defaultThreshold, audit: audit, log: log}
}

// ShouldCount evaluates every exclusion rule. The first matching rule supplies
// the reason; all triggered alerts are recorded regardless.
func (p *StealthPolicy) ShouldCount(ctx context.Context, citizen *domain.Citizen, gate *ports.GateResult) CountDecision {
	var alerts []string
	reason := ""

	if citizen.IsShadowBanned {
		reason = domain.ShadowReasonExplicitBan
		alerts = append(alerts, "USER_IS_SHADOW_BANNED")
	}

	threshold := p.threshold(ctx)
	if citizen.IntegrityScore < threshold {
		if reason == "" {
			reason = domain.ShadowReasonLowIntegrity
		}
		alerts = append(alerts, fmt.Sprintf("INTEGRITY_BELOW_THRESHOLD_%.2f", threshold))
	}

	if gate != nil {
		switch gate.Classification {
		case domain.GateDisplaced:
			if reason == "" {
				reason = domain.ShadowReasonDNADisplaced
			}
			alerts = append(alerts, "DNA_SCANNER_DISPLACED")
		case domain.GateSuspicious:
			if gate.Score < 40 {
				if reason == "" {
					reason = domain.ShadowReasonDNASuspicious
				}
				alerts = append(alerts, fmt.Sprintf("DNA_SCORE_CRITICAL_%d", gate.Score))
			}
		}
	}

	if !citizen.IsActive {
		if reason == "" {
			reason = domain.ShadowReasonInactive
		}
		alerts = append(alerts, "ACCOUNT_INACTIVE")
	}

	counted := reason == ""
	if !counted && p.audit != nil {
		p.audit.Event(ctx, citizen.ID, "VOTE_SHADOW_FILTERED", "VOTE", citizen.ID, map[string]any{
			"reason":          reason,
			"alerts":          alerts,
			"integrity_score": citizen.IntegrityScore,
		})
	}

	return CountDecision{
		IsCounted: counted,
		Reason:    reason,
		Alerts:    alerts,
		UserSees:  UserFacingMessage,
	}
}

// ApplyShadowBan silently flags a citizen. The citizen is never notified.
func (p *StealthPolicy) ApplyShadowBan(ctx context.Context, repo ports.CitizenRepository, citizenID, reason string) error {
	c, err := repo.FindByID(ctx, citizenID)
	if err != nil {
		return err
	}
	c.IsShadowBanned = true
	if err := repo.Update(ctx, c); err != nil {
		return err
	}
	p.audit.SecurityEvent(ctx, "SYSTEM", "SHADOW_BAN_APPLIED", "USER", citizenID, domain.SeverityHigh, map[string]any{
		"reason": reason,
	})
	return nil
}

// LiftShadowBan rehabilitates a citizen.
func (p *StealthPolicy) LiftShadowBan(ctx context.Context, repo ports.CitizenRepository, citizenID, liftedBy string) error {
	c, err := repo.FindByID(ctx, citizenID)
	if err != nil {
		return err
	}
	c.IsShadowBanned = false
	if err := repo.Update(ctx, c); err != nil {
		return err
	}
	p.audit.SecurityEvent(ctx, liftedBy, "SHADOW_BAN_LIFTED", "USER", citizenID, domain.SeverityMedium, nil)
	return nil
}

// FilterCounted returns only the votes eligible for public aggregation.
func FilterCounted(votes []*domain.Vote) []*domain.Vote {
	counted := make([]*domain.Vote, 0, len(votes))
	for _, v := range votes {
		if v.IsCounted {
			counted = append(counted, v)
		}
	}
	return counted
}

func (p *StealthPolicy) threshold(ctx context.Context) float64 {
	if p.params == nil {
		return p.defaultThreshold
	}
	return p.params.Float(ctx, ports.ParamShadowBanThreshold, p.defaultThreshold)
}
