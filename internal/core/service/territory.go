package service

import (
	"context"

	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// DefaultTerritorialBonus is the multiplier applied to a confirmed local vote
// when no live override is configured.
const DefaultTerritorialBonus = 1.5

// Territorial resolution sources.
const (
	TerritorySourceProfile = "PROFILE"
	TerritorySourceGeoIP   = "GEOIP"
	TerritorySourceUnknown = "UNKNOWN"
)

// TerritorialResult is the outcome of one territorial resolution.
type TerritorialResult struct {
	IsLocal bool
	Source  string
	Bonus   float64
}

// TerritoryResolver decides whether a vote is local to an entity's
// jurisdiction. Resolution is unconditional and side-effect-free; eligibility
// gating happens in the vote engine. Only opaque commune identifiers are ever
// handled, never coordinates.
type TerritoryResolver struct {
	params       ports.ParamSource
	defaultBonus float64
}

// NewTerritoryResolver builds a resolver with the process-wide bonus default;
// the live ParamSource may override it per call. A non-positive defaultBonus
// falls back to DefaultTerritorialBonus.
func NewTerritoryResolver(params ports.ParamSource, defaultBonus float64) *TerritoryResolver {
	if defaultBonus <= 0 {
		defaultBonus = DefaultTerritorialBonus
	}
	return &TerritoryResolver{params: params, defaultBonus: defaultBonus}
}

// Resolve compares the citizen's effective commune against the entity's
// jurisdiction. The profile commune takes priority over the GeoIP-inferred
// one; with neither present the vote cannot be local.
func (t *TerritoryResolver) Resolve(ctx context.Context, userCommuneID, entityJurisdictionID, geoipCommuneID *int) TerritorialResult {
	if entityJurisdictionID == nil {
		return TerritorialResult{IsLocal: false, Source: TerritorySourceUnknown, Bonus: 1.0}
	}

	var effective *int
	source := TerritorySourceUnknown
	switch {
	case userCommuneID != nil:
		effective = userCommuneID
		source = TerritorySourceProfile
	case geoipCommuneID != nil:
		effective = geoipCommuneID
		source = TerritorySourceGeoIP
	}

	if effective == nil {
		return TerritorialResult{IsLocal: false, Source: TerritorySourceUnknown, Bonus: 1.0}
	}

	if *effective != *entityJurisdictionID {
		return TerritorialResult{IsLocal: false, Source: source, Bonus: 1.0}
	}

	return TerritorialResult{IsLocal: true, Source: source, Bonus: t.bonus(ctx)}
}

// bonus reads the live multiplier, falling back to the configured default on
// any read failure.
func (t *TerritoryResolver) bonus(ctx context.Context) float64 {
	if t.params == nil {
		return t.defaultBonus
	}
	return t.params.Float(ctx, ports.ParamTerritorialBonus, t.defaultBonus)
}
