package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicbeacon/reputation-system/internal/api/metrics"
	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
	"github.com/civicbeacon/reputation-system/internal/core/service"
)

// SecurityHandler exposes the administrative security surface.
type SecurityHandler struct {
	security  *service.SecurityService
	stealth   *service.StealthPolicy
	valuation *service.ValuationService
	citizens  ports.CitizenRepository
}

func NewSecurityHandler(
	security *service.SecurityService,
	stealth *service.StealthPolicy,
	valuation *service.ValuationService,
	citizens ports.CitizenRepository,
) *SecurityHandler {
	return &SecurityHandler{
		security:  security,
		stealth:   stealth,
		valuation: valuation,
		citizens:  citizens,
	}
}

type securityStatusResponse struct {
	Level    string `json:"level"`
	Severity string `json:"severity"`
}

type switchLevelRequest struct {
	Level  string `json:"level" validate:"required,oneof=GREEN YELLOW RED"`
	Reason string `json:"reason" validate:"required"`
}

type evaluateRequest struct {
	TotalRequests      int `json:"total_requests" validate:"min=0"`
	SuspiciousRequests int `json:"suspicious_requests" validate:"min=0"`
}

type blockIPRequest struct {
	IP     string `json:"ip" validate:"required,ip"`
	Reason string `json:"reason" validate:"required"`
}

type shadowBanRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Status handles GET /v1/admin/security.
//
// @Summary      Current security level
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  securityStatusResponse
// @Router       /v1/admin/security [get]
func (h *SecurityHandler) Status(c echo.Context) error {
	level := h.security.Level(c.Request().Context())
	return c.JSON(http.StatusOK, securityStatusResponse{
		Level:    string(level),
		Severity: level.Severity(),
	})
}

// Switch handles PUT /v1/admin/security.
//
// @Summary      Switch security level
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      switchLevelRequest  true  "Target level and reason"
// @Success      200   {object}  securityStatusResponse
// @Failure      422   {object}  map[string]string
// @Router       /v1/admin/security [put]
func (h *SecurityHandler) Switch(c echo.Context) error {
	_, adminID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req switchLevelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	level := domain.SecurityLevel(req.Level)
	if err := h.security.Switch(ctx, level, adminID, req.Reason); err != nil {
		return err
	}
	metrics.SecurityLevel.Set(securityLevelGaugeValue(level))

	return c.JSON(http.StatusOK, securityStatusResponse{
		Level:    string(level),
		Severity: level.Severity(),
	})
}

// Evaluate handles POST /v1/admin/security/evaluate, feeding one traffic
// window into the anomaly-rate state machine.
//
// @Summary      Evaluate an anomaly window
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      evaluateRequest  true  "Window counters"
// @Success      200   {object}  service.ThreatEvaluation
// @Failure      422   {object}  map[string]string
// @Router       /v1/admin/security/evaluate [post]
func (h *SecurityHandler) Evaluate(c echo.Context) error {
	var req evaluateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	eval := h.security.Evaluate(c.Request().Context(), req.TotalRequests, req.SuspiciousRequests)
	metrics.SecurityLevel.Set(securityLevelGaugeValue(eval.CurrentLevel))
	return c.JSON(http.StatusOK, eval)
}

// BlockIP handles POST /v1/admin/ips/block.
//
// @Summary      Block an IP address
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      blockIPRequest  true  "IP and reason"
// @Success      204   "blocked"
// @Failure      422   {object}  map[string]string
// @Router       /v1/admin/ips/block [post]
func (h *SecurityHandler) BlockIP(c echo.Context) error {
	var req blockIPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.security.BlockIP(c.Request().Context(), req.IP, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ApplyShadowBan handles POST /v1/admin/citizens/:id/shadowban.
//
// @Summary      Silently exclude a citizen from aggregation
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Citizen ID"
// @Param        body  body      shadowBanRequest  true  "Reason"
// @Success      204   "applied"
// @Failure      404   {object}  map[string]string
// @Router       /v1/admin/citizens/{id}/shadowban [post]
func (h *SecurityHandler) ApplyShadowBan(c echo.Context) error {
	var req shadowBanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.stealth.ApplyShadowBan(c.Request().Context(), h.citizens, c.Param("id"), req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// LiftShadowBan handles DELETE /v1/admin/citizens/:id/shadowban.
//
// @Summary      Rehabilitate a shadow-banned citizen
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Citizen ID"
// @Success      204  "lifted"
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/citizens/{id}/shadowban [delete]
func (h *SecurityHandler) LiftShadowBan(c echo.Context) error {
	_, adminID, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.stealth.LiftShadowBan(c.Request().Context(), h.citizens, c.Param("id"), adminID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Portfolio handles GET /v1/admin/portfolio.
//
// @Summary      Citizen portfolio valuation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.PortfolioReport
// @Router       /v1/admin/portfolio [get]
func (h *SecurityHandler) Portfolio(c echo.Context) error {
	report, err := h.valuation.Portfolio(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func securityLevelGaugeValue(level domain.SecurityLevel) float64 {
	switch level {
	case domain.SecurityYellow:
		return 1
	case domain.SecurityRed:
		return 2
	default:
		return 0
	}
}
