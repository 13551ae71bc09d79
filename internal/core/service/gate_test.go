package service

import (
	"testing"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

func TestGate_Classify_CleanHuman(t *testing.T) {
	g := NewGate()
	res := g.Classify(ports.GateMetadata{FillDuration: 12.5, UserAgent: browserUA})

	if res.Score != 100 {
		t.Errorf("expected score 100, got %d", res.Score)
	}
	if res.Classification != domain.GateHuman {
		t.Errorf("expected HUMAN, got %s", res.Classification)
	}
	if len(res.Alerts) != 0 {
		t.Errorf("expected no alerts, got %v", res.Alerts)
	}
}

func TestGate_Classify_BotSpeed(t *testing.T) {
	g := NewGate()
	res := g.Classify(ports.GateMetadata{FillDuration: 1.2, UserAgent: browserUA})

	if res.Score != 50 {
		t.Errorf("expected score 50, got %d", res.Score)
	}
	if res.Classification != domain.GateSuspicious {
		t.Errorf("expected SUSPICIOUS, got %s", res.Classification)
	}
	if len(res.Alerts) != 1 || res.Alerts[0] != AlertBotSpeed {
		t.Errorf("expected bot speed alert, got %v", res.Alerts)
	}
}

func TestGate_Classify_FastButPlausible(t *testing.T) {
	g := NewGate()
	res := g.Classify(ports.GateMetadata{FillDuration: 3.0, UserAgent: browserUA})

	if res.Score != 80 {
		t.Errorf("expected score 80, got %d", res.Score)
	}
	if res.Classification != domain.GateHuman {
		t.Errorf("expected HUMAN at 80, got %s", res.Classification)
	}
}

func TestGate_Classify_AutomationUA(t *testing.T) {
	g := NewGate()
	for _, ua := range []string{
		"python-requests/2.31",
		"Mozilla/5.0 HeadlessChrome/120.0",
		"curl/8.4.0",
		"Scrapy/2.11 (+https://scrapy.org)",
	} {
		res := g.Classify(ports.GateMetadata{FillDuration: 10, UserAgent: ua})
		if res.Score != 20 {
			t.Errorf("ua %q: expected score 20, got %d", ua, res.Score)
		}
		if res.Classification != domain.GateDisplaced {
			t.Errorf("ua %q: expected DISPLACED, got %s", ua, res.Classification)
		}
	}
}

func TestGate_Classify_EmptyAndGenericUA(t *testing.T) {
	g := NewGate()

	res := g.Classify(ports.GateMetadata{FillDuration: 10, UserAgent: ""})
	if res.Score != 70 {
		t.Errorf("empty UA: expected score 70, got %d", res.Score)
	}
	// 70 is not strictly greater than 70
	if res.Classification != domain.GateSuspicious {
		t.Errorf("empty UA: expected SUSPICIOUS, got %s", res.Classification)
	}

	res = g.Classify(ports.GateMetadata{FillDuration: 10, UserAgent: "Mozilla/5.0"})
	if res.Score != 70 {
		t.Errorf("generic UA: expected score 70, got %d", res.Score)
	}
}

func TestGate_Classify_Webdriver(t *testing.T) {
	g := NewGate()
	res := g.Classify(ports.GateMetadata{FillDuration: 10, UserAgent: browserUA, Webdriver: true})

	if res.Score != 40 {
		t.Errorf("expected score 40, got %d", res.Score)
	}
	if res.Classification != domain.GateSuspicious {
		t.Errorf("expected SUSPICIOUS, got %s", res.Classification)
	}
}

func TestGate_Classify_DeductionsAreAdditive(t *testing.T) {
	g := NewGate()
	// Instant fill + automation UA + webdriver:
	// 100 - 50 - 80 - 60 clamps to 0; every rule still reports its alert.
	res := g.Classify(ports.GateMetadata{
		FillDuration: 0.3,
		UserAgent:    "selenium/4.16",
		Webdriver:    true,
	})

	if res.Score != 0 {
		t.Errorf("expected clamped score 0, got %d", res.Score)
	}
	if res.Classification != domain.GateDisplaced {
		t.Errorf("expected DISPLACED, got %s", res.Classification)
	}
	if len(res.Alerts) != 3 {
		t.Errorf("expected 3 alerts, got %v", res.Alerts)
	}
}
