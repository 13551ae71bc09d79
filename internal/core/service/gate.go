package service

import (
	"strings"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// Gate alerts raised by individual rules.
const (
	AlertBotSpeed       = "BOT_SPEED_DETECTED"
	AlertFastSubmission = "UNUSUALLY_FAST_SUBMISSION"
	AlertAutomationTool = "AUTOMATION_TOOL_DETECTED"
	AlertGenericUA      = "GENERIC_OR_MISSING_UA"
	AlertWebdriver      = "WEBDRIVER_DETECTED"
)

// automationKeywords are user-agent substrings that betray automation tools.
var automationKeywords = []string{
	"headless", "selenium", "puppeteer", "python-requests",
	"scrapy", "bot", "crawler", "spider", "phantomjs",
	"playwright", "httpx", "urllib", "wget", "curl",
}

// Gate scores request metadata to classify the submitter before any state is
// touched. Classify is a pure function: no side effects, no early exit, all
// deductions are additive in a single pass.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// Classify analyses the metadata of one request. The score starts at 100 and
// each triggered rule deducts independently; the result is clamped to [0,100].
//
//	score > 70  → HUMAN
//	score > 30  → SUSPICIOUS
//	otherwise   → DISPLACED
//
// A DISPLACED verdict must never be revealed to the submitter.
func (g *Gate) Classify(md ports.GateMetadata) ports.GateResult {
	score := 100
	var alerts []string

	if md.FillDuration < 2.0 {
		score -= 50
		alerts = append(alerts, AlertBotSpeed)
	} else if md.FillDuration < 4.0 {
		score -= 20
		alerts = append(alerts, AlertFastSubmission)
	}

	ua := strings.ToLower(md.UserAgent)
	for _, kw := range automationKeywords {
		if strings.Contains(ua, kw) {
			score -= 80
			alerts = append(alerts, AlertAutomationTool)
			break
		}
	}

	if ua == "" || ua == "mozilla/5.0" {
		score -= 30
		alerts = append(alerts, AlertGenericUA)
	}

	if md.Webdriver {
		score -= 60
		alerts = append(alerts, AlertWebdriver)
	}

	if score < 0 {
		score = 0
	}

	var classification domain.GateClassification
	switch {
	case score > 70:
		classification = domain.GateHuman
	case score > 30:
		classification = domain.GateSuspicious
	default:
		classification = domain.GateDisplaced
	}

	return ports.GateResult{
		Score:          score,
		Classification: classification,
		Alerts:         alerts,
	}
}
