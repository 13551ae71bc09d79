package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/civicbeacon/reputation-system/internal/api/metrics"
	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
	"github.com/civicbeacon/reputation-system/internal/core/service"
)

// geoIPCommuneHeader carries the commune resolved from the client IP by the
// edge proxy. Never raw coordinates.
const geoIPCommuneHeader = "X-GeoIP-Commune"

// defaultFillDuration, in seconds, is assumed when a client omits the
// behavioral metadata block entirely.
const defaultFillDuration = 10.0

// VoteDispatcher is the interface the handler uses to enqueue submissions.
type VoteDispatcher interface {
	Enqueue(in ports.SubmitVoteInput)
	EnqueueBatch(inputs []ports.SubmitVoteInput)
	Depth() int
}

// BatchDeduper provides idempotency checks for the bulk import path.
type BatchDeduper interface {
	IsDuplicate(ctx context.Context, citizenID, entityID string, ts time.Time) (bool, error)
	Mark(ctx context.Context, citizenID, entityID string, ts time.Time) error
}

// VoteHandler handles vote ingestion.
type VoteHandler struct {
	gate       *service.Gate
	security   *service.SecurityService
	dispatcher VoteDispatcher
	dedup      BatchDeduper
}

// NewVoteHandler creates a VoteHandler backed by the given dispatcher.
func NewVoteHandler(gate *service.Gate, security *service.SecurityService, dispatcher VoteDispatcher, dedup BatchDeduper) *VoteHandler {
	return &VoteHandler{gate: gate, security: security, dispatcher: dispatcher, dedup: dedup}
}

// Submit handles POST /v1/votes. The response never reveals whether the vote
// will count; every accepted submission gets the same success message.
//
// @Summary      Submit a vote
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submitVoteRequest  true  "Vote payload with behavioral metadata"
// @Success      202   {object}  voteAcceptedResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  captchaChallengeResponse
// @Failure      422   {object}  map[string]string
// @Router       /v1/votes [post]
func (h *VoteHandler) Submit(c echo.Context) error {
	_, citizenID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req submitVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	ip := c.RealIP()
	if h.security.IsIPBlocked(ctx, ip) {
		return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
	}

	fillDuration := defaultFillDuration
	if req.Metadata.FillDuration != nil {
		fillDuration = *req.Metadata.FillDuration
	}

	gate := h.gate.Classify(ports.GateMetadata{
		FillDuration:   fillDuration,
		UserAgent:      c.Request().UserAgent(),
		IP:             ip,
		Webdriver:      req.Metadata.Webdriver,
		GeoIPCommuneID: geoIPCommune(c),
	})
	metrics.GateClassificationsTotal.WithLabelValues(string(gate.Classification)).Inc()

	level := h.security.Level(ctx)
	policy := h.security.Captcha(level, gate.Score)
	if policy.RequireCaptcha && req.Metadata.CaptchaToken == "" {
		metrics.CaptchaChallengesTotal.WithLabelValues(policy.CaptchaType).Inc()
		return c.JSON(http.StatusForbidden, captchaChallengeResponse{
			CaptchaRequired: true,
			CaptchaType:     policy.CaptchaType,
			Reason:          policy.Reason,
		})
	}

	h.dispatcher.Enqueue(ports.SubmitVoteInput{
		CitizenID:      citizenID,
		EntityID:       req.EntityID,
		Sliders:        req.Sliders,
		Gate:           gate,
		GeoIPCommuneID: geoIPCommune(c),
	})
	metrics.VoteQueueDepth.Set(float64(h.dispatcher.Depth()))

	return c.JSON(http.StatusAccepted, voteAcceptedResponse{
		Success: true,
		Message: service.UserFacingMessage,
	})
}

// SubmitBatch handles POST /v1/votes/batch. Administrative bulk import; rows
// skip the identity gate and enter the pipeline as pre-classified humans.
//
// @Summary      Import a batch of votes
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []batchVoteRequest  true  "Array of vote rows"
// @Success      202   {object}  voteAcceptedResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/votes/batch [post]
func (h *VoteHandler) SubmitBatch(c echo.Context) error {
	var reqs []batchVoteRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	ctx := c.Request().Context()
	inputs := make([]ports.SubmitVoteInput, 0, len(reqs))
	skipped := 0
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				"vote["+strconv.Itoa(i)+"]: "+err.Error())
		}
		if h.dedup != nil {
			dup, err := h.dedup.IsDuplicate(ctx, req.CitizenID, req.EntityID, req.Timestamp)
			if err == nil && dup {
				skipped++
				continue
			}
			_ = h.dedup.Mark(ctx, req.CitizenID, req.EntityID, req.Timestamp)
		}
		inputs = append(inputs, ports.SubmitVoteInput{
			CitizenID: req.CitizenID,
			EntityID:  req.EntityID,
			Sliders:   req.Sliders,
			Gate: ports.GateResult{
				Score:          100,
				Classification: domain.GateHuman,
			},
		})
	}

	h.dispatcher.EnqueueBatch(inputs)
	metrics.VoteQueueDepth.Set(float64(h.dispatcher.Depth()))

	return c.JSON(http.StatusAccepted, voteAcceptedResponse{
		Success: true,
		Message: "votes accepted",
		Count:   len(inputs),
		Skipped: skipped,
	})
}

// geoIPCommune parses the edge-resolved commune header, nil when absent.
func geoIPCommune(c echo.Context) *int {
	raw := c.Request().Header.Get(geoIPCommuneHeader)
	if raw == "" {
		return nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &id
}
