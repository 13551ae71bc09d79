package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// IdentityHandler handles credential verification and profile enrichment.
type IdentityHandler struct {
	identity ports.IdentityService
}

func NewIdentityHandler(identity ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

type verifyCredentialRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type updateProfileRequest struct {
	CommuneID *int   `json:"commune_id,omitempty"`
	Region    string `json:"region,omitempty"`
	AgeRange  string `json:"age_range,omitempty" validate:"omitempty,oneof=18-24 25-34 35-44 45-54 55-64 65+"`
}

// Verify handles POST /v1/identity/verify. The plain credential is hashed and
// discarded; only the hash is ever stored.
//
// @Summary      Verify a national credential
// @Tags         identity
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verifyCredentialRequest  true  "Credential to verify"
// @Success      200   {object}  ports.VerifyCredentialResult
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/identity/verify [post]
func (h *IdentityHandler) Verify(c echo.Context) error {
	_, citizenID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req verifyCredentialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.identity.VerifyCredential(c.Request().Context(), citizenID, req.Credential)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// UpdateProfile handles PUT /v1/identity/profile.
//
// @Summary      Add demographic profile fields
// @Tags         identity
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields to add"
// @Success      200   {object}  ports.ProfileResult
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/identity/profile [put]
func (h *IdentityHandler) UpdateProfile(c echo.Context) error {
	_, citizenID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.identity.UpdateProfile(c.Request().Context(), citizenID, ports.ProfileInput{
		CommuneID: req.CommuneID,
		Region:    req.Region,
		AgeRange:  req.AgeRange,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
