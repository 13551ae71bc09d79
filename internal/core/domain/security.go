package domain

import "errors"

// SecurityLevel is the platform-wide defensive posture. It is stored in the
// shared fast state store and read on every request path.
type SecurityLevel string

const (
	SecurityGreen  SecurityLevel = "GREEN"  // standard filters
	SecurityYellow SecurityLevel = "YELLOW" // elevated scrutiny, fail-safe default
	SecurityRed    SecurityLevel = "RED"    // global CAPTCHA, datacenter blocking
)

// Valid reports whether l is a known security level.
func (l SecurityLevel) Valid() bool {
	switch l {
	case SecurityGreen, SecurityYellow, SecurityRed:
		return true
	}
	return false
}

// Severity returns the audit severity recorded when the platform transitions
// into this level.
func (l SecurityLevel) Severity() string {
	switch l {
	case SecurityGreen:
		return SeverityLow
	case SecurityYellow:
		return SeverityMedium
	default:
		return SeverityCritical
	}
}

var ErrInvalidSecurityLevel = errors.New("invalid security level")

// Anomaly-rate thresholds driving automatic level transitions.
const (
	YellowAnomalyThreshold = 0.05
	RedAnomalyThreshold    = 0.15
)

// GateClassification is the verdict of the request identity gate.
type GateClassification string

const (
	GateHuman      GateClassification = "HUMAN"
	GateSuspicious GateClassification = "SUSPICIOUS"
	GateDisplaced  GateClassification = "DISPLACED"
)
