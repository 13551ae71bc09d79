package service

import (
	"context"
	"fmt"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// tierValuesUSD is the base market value of a citizen profile per tier.
var tierValuesUSD = map[domain.Rank]float64{
	domain.RankBronze:  1.00,
	domain.RankSilver:  15.00,
	domain.RankGold:    150.00,
	domain.RankDiamond: 500.00,
}

// CitizenValuation is the USD-value breakdown of one profile.
type CitizenValuation struct {
	CitizenID string  `json:"citizen_id"`
	Rank      string  `json:"rank"`
	ValueUSD  float64 `json:"value_usd"`
}

// PortfolioReport aggregates the platform's citizen valuation.
type PortfolioReport struct {
	TotalUSD     float64            `json:"total_usd"`
	CitizenCount int                `json:"citizen_count"`
	AvgValue     float64            `json:"avg_value"`
	ByTier       map[string]float64 `json:"by_tier"`
}

// ValuationService prices citizen profiles from their tier, behavioral
// integrity, and demographic data density.
type ValuationService struct {
	citizens ports.CitizenRepository
}

func NewValuationService(citizens ports.CitizenRepository) *ValuationService {
	return &ValuationService{citizens: citizens}
}

// Value computes the USD value of one profile:
//
//	value = base_tier × (integrity × 1.2) + data_bonus + credential_bonus
//
// Full demographic segmentation (commune + age range) is worth more than a
// partial one; a verified credential hash adds a fixed bonus.
func (s *ValuationService) Value(c *domain.Citizen) float64 {
	base, ok := tierValuesUSD[c.Rank]
	if !ok {
		base = tierValuesUSD[domain.RankBronze]
	}

	multiplier := c.IntegrityScore * 1.2

	dataBonus := 0.0
	switch {
	case c.CommuneID != nil && c.AgeRange != "":
		dataBonus = 5.0
	case c.CommuneID != nil || c.AgeRange != "":
		dataBonus = 2.0
	}
	if c.Region != "" {
		dataBonus += 1.0
	}

	credentialBonus := 0.0
	if c.CredentialHash != "" {
		credentialBonus = 3.0
	}

	return round2(base*multiplier + dataBonus + credentialBonus)
}

// Portfolio values every active citizen and aggregates by tier.
func (s *ValuationService) Portfolio(ctx context.Context) (*PortfolioReport, error) {
	citizens, err := s.citizens.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio valuation: %w", err)
	}

	report := &PortfolioReport{
		ByTier: map[string]float64{
			string(domain.RankBronze):  0,
			string(domain.RankSilver):  0,
			string(domain.RankGold):    0,
			string(domain.RankDiamond): 0,
		},
	}
	for _, c := range citizens {
		v := s.Value(c)
		report.TotalUSD += v
		report.ByTier[string(c.Rank)] += v
	}
	report.CitizenCount = len(citizens)
	report.TotalUSD = round2(report.TotalUSD)
	if report.CitizenCount > 0 {
		report.AvgValue = round2(report.TotalUSD / float64(report.CitizenCount))
	}
	return report, nil
}
