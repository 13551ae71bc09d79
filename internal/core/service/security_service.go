package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// datacenterUAPatterns are user-agent fragments typical of datacenter-origin
// clients. Matching requests are blocked while the platform is RED.
var datacenterUAPatterns = []string{
	"python-requests", "python-urllib", "go-http-client", "java/",
	"curl/", "wget/", "httpie/", "postman", "insomnia",
}

// datacenterISPKeywords identify hosting providers by ISP/ASN name.
var datacenterISPKeywords = []string{
	"amazon", "aws", "google cloud", "digitalocean", "linode",
	"vultr", "hetzner", "ovh", "azure", "cloudflare workers",
}

// CaptchaPolicy is the CAPTCHA requirement for one request.
type CaptchaPolicy struct {
	RequireCaptcha bool   `json:"require_captcha"`
	CaptchaType    string `json:"captcha_type,omitempty"`
	Reason         string `json:"reason"`
}

// ThreatEvaluation is the outcome of one anomaly-rate evaluation window.
type ThreatEvaluation struct {
	Action        string               `json:"action"`
	AnomalyRate   float64              `json:"anomaly_rate"`
	PreviousLevel domain.SecurityLevel `json:"previous_level"`
	CurrentLevel  domain.SecurityLevel `json:"current_level"`
}

// SecurityService is the global defensive-posture state machine. The level
// lives in the shared fast state store so every worker reads the same value;
// when the store is unreachable, reads fail safe to YELLOW, never GREEN and
// never RED.
type SecurityService struct {
	store ports.SecurityStateStore
	audit *AuditBus
	log   zerolog.Logger
}

func NewSecurityService(store ports.SecurityStateStore, audit *AuditBus, log zerolog.Logger) *SecurityService {
	return &SecurityService{store: store, audit: audit, log: log}
}

// Level returns the current security level, degrading to YELLOW on any store
// failure. A missing value initialises the store to GREEN.
func (s *SecurityService) Level(ctx context.Context) domain.SecurityLevel {
	if s.store == nil {
		return domain.SecurityYellow
	}
	raw, err := s.store.GetLevel(ctx)
	if err != nil {
		return domain.SecurityYellow
	}
	level := domain.SecurityLevel(raw)
	if level.Valid() {
		return level
	}
	if err := s.store.SetLevel(ctx, string(domain.SecurityGreen), 0); err != nil {
		return domain.SecurityYellow
	}
	return domain.SecurityGreen
}

// Switch changes the global level, persists it, appends an immutable history
// entry, and emits an audit event whose severity tracks the new level.
func (s *SecurityService) Switch(ctx context.Context, newLevel domain.SecurityLevel, triggeredBy, reason string) error {
	if !newLevel.Valid() {
		return fmt.Errorf("switch security level %q: %w", newLevel, domain.ErrInvalidSecurityLevel)
	}

	previous := s.Level(ctx)

	if s.store == nil {
		return nil // degraded: the fail-safe level applies
	}
	if err := s.store.SetLevel(ctx, string(newLevel), 0); err != nil {
		s.log.Error().Err(err).Str("level", string(newLevel)).Msg("security level write failed")
		return nil // degrade gracefully, never raise to the caller
	}

	entry := fmt.Sprintf("%s|%s->%s|%s|%s",
		time.Now().UTC().Format(time.RFC3339), previous, newLevel, triggeredBy, reason)
	if err := s.store.AppendHistory(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("security history append failed")
	}

	s.audit.SecurityEvent(ctx, triggeredBy, "SECURITY_LEVEL_CHANGED", "SYSTEM", "GLOBAL",
		newLevel.Severity(), map[string]any{
			"previous_level": string(previous),
			"new_level":      string(newLevel),
			"reason":         reason,
		})

	s.log.Info().
		Str("previous", string(previous)).
		Str("new", string(newLevel)).
		Str("triggered_by", triggeredBy).
		Msg("security level changed")
	return nil
}

// Evaluate computes the anomaly rate over an evaluation window and switches
// the level when a threshold is crossed. Idempotent: evaluating the same rate
// twice yields the same target state.
func (s *SecurityService) Evaluate(ctx context.Context, totalRequests, suspiciousRequests int) ThreatEvaluation {
	current := s.Level(ctx)
	if totalRequests <= 0 {
		return ThreatEvaluation{Action: "NONE", AnomalyRate: 0.0, PreviousLevel: current, CurrentLevel: current}
	}

	rate := float64(suspiciousRequests) / float64(totalRequests)

	target := domain.SecurityGreen
	switch {
	case rate >= domain.RedAnomalyThreshold:
		target = domain.SecurityRed
	case rate >= domain.YellowAnomalyThreshold:
		target = domain.SecurityYellow
	}

	action := "NONE"
	if target != current {
		reason := fmt.Sprintf("anomaly rate %.2f%% (%d/%d)", rate*100, suspiciousRequests, totalRequests)
		if err := s.Switch(ctx, target, "THREAT_EVALUATOR", reason); err == nil {
			action = "SWITCHED_TO_" + string(target)
		}
	}

	return ThreatEvaluation{
		Action:        action,
		AnomalyRate:   round4(rate),
		PreviousLevel: current,
		CurrentLevel:  target,
	}
}

// Captcha decides whether a request must solve a CAPTCHA given the current
// level and the request's gate score.
func (s *SecurityService) Captcha(level domain.SecurityLevel, dnaScore int) CaptchaPolicy {
	switch level {
	case domain.SecurityGreen:
		if dnaScore <= 30 {
			return CaptchaPolicy{RequireCaptcha: true, CaptchaType: "simple", Reason: "DNA_SCORE_LOW_IN_GREEN"}
		}
		return CaptchaPolicy{Reason: "GREEN_MODE"}
	case domain.SecurityYellow:
		if dnaScore < 70 {
			return CaptchaPolicy{RequireCaptcha: true, CaptchaType: "simple", Reason: "YELLOW_SUSPICIOUS_DNA"}
		}
		return CaptchaPolicy{Reason: "YELLOW_CLEAN"}
	default: // RED: mandatory for everyone
		captchaType := "simple"
		if dnaScore < 50 {
			captchaType = "advanced"
		}
		return CaptchaPolicy{RequireCaptcha: true, CaptchaType: captchaType, Reason: "RED_GLOBAL_ENFORCEMENT"}
	}
}

// IsDatacenterRequest reports whether the request looks like it originates
// from a hosting provider rather than a residential connection.
func (s *SecurityService) IsDatacenterRequest(userAgent, ispName string) bool {
	ua := strings.ToLower(userAgent)
	for _, p := range datacenterUAPatterns {
		if strings.Contains(ua, p) {
			return true
		}
	}
	isp := strings.ToLower(ispName)
	if isp == "" {
		return false
	}
	for _, kw := range datacenterISPKeywords {
		if strings.Contains(isp, kw) {
			return true
		}
	}
	return false
}

// BlockIP adds an address to the shared blocklist. Only used while RED.
func (s *SecurityService) BlockIP(ctx context.Context, ip, reason string) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.AddBlockedIP(ctx, ip); err != nil {
		return fmt.Errorf("block ip %s: %w", ip, err)
	}
	s.audit.SecurityEvent(ctx, "PANIC_GATE", "IP_BLOCKED", "NETWORK", ip, domain.SeverityHigh, map[string]any{
		"reason": reason,
	})
	return nil
}

// IsIPBlocked checks blocklist membership; store failures fail open.
func (s *SecurityService) IsIPBlocked(ctx context.Context, ip string) bool {
	if s.store == nil {
		return false
	}
	blocked, err := s.store.IsBlockedIP(ctx, ip)
	if err != nil {
		return false
	}
	return blocked
}
