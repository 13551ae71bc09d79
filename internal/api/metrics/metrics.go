// Package metrics defines and registers all custom Prometheus metrics for the
// civic reputation API. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics use promauto, so importing the package registers them with the
// default Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "civic"

// VotesProcessedTotal counts vote submissions that completed processing.
// Labels:
//   - outcome: "counted" or "shadow"
//   - updated: "true" when the submission replaced a previous vote
var VotesProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_processed_total",
		Help:      "Total number of vote submissions processed, by outcome.",
	},
	[]string{"outcome", "updated"},
)

// VotesShadowedTotal counts silently discarded votes by filter reason.
// Label:
//   - reason: the shadow reason code (e.g. "DNA_SCORE_BELOW_THRESHOLD")
var VotesShadowedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_shadowed_total",
		Help:      "Total number of votes silently excluded from aggregation, by reason.",
	},
	[]string{"reason"},
)

// GateClassificationsTotal counts identity gate verdicts.
// Label:
//   - classification: "HUMAN", "SUSPICIOUS", or "DISPLACED"
var GateClassificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_classifications_total",
		Help:      "Total number of identity gate verdicts, by classification.",
	},
	[]string{"classification"},
)

// VoteQueueDepth tracks the number of submissions waiting in the dispatcher.
var VoteQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vote_queue_depth",
		Help:      "Current number of vote submissions pending in the dispatcher.",
	},
)

// RecomputeDuration measures how long one entity recomputation takes.
// Label:
//   - result: "ok" or "error"
var RecomputeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recompute_duration_seconds",
		Help:      "Duration of entity reputation recomputation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// SecurityLevel exposes the active security level as a numeric gauge.
// 0 = GREEN, 1 = YELLOW, 2 = RED.
var SecurityLevel = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "security_level",
		Help:      "Active security level (0=GREEN, 1=YELLOW, 2=RED).",
	},
)

// CaptchaChallengesTotal counts captcha challenges issued.
// Label:
//   - type: "simple" or "advanced"
var CaptchaChallengesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captcha_challenges_total",
		Help:      "Total number of captcha challenges issued, by type.",
	},
	[]string{"type"},
)
