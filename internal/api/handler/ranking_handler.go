package handler

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
	"github.com/civicbeacon/reputation-system/internal/core/service"
)

// RankingHandler serves public rankings and score breakdowns.
type RankingHandler struct {
	ranking  ports.RankingService
	entities ports.EntityRepository
}

func NewRankingHandler(ranking ports.RankingService, entities ports.EntityRepository) *RankingHandler {
	return &RankingHandler{ranking: ranking, entities: entities}
}

type rankingResponse struct {
	Type     string               `json:"type"`
	Strategy string               `json:"strategy"`
	Count    int                  `json:"count"`
	Ranking  []ports.RankedEntity `json:"ranking"`
}

type scoreResponse struct {
	ports.ScoreBreakdown
	Strategy  string  `json:"strategy"`
	Composite float64 `json:"composite_score"`
}

// List handles GET /v1/rankings?type=PERSON.
//
// @Summary      Public ranking for an entity type
// @Tags         rankings
// @Produce      json
// @Param        type  query     string  true  "Entity type: PERSON, COMPANY, EVENT, POLL"
// @Success      200   {object}  rankingResponse
// @Failure      400   {object}  map[string]string
// @Router       /v1/rankings [get]
func (h *RankingHandler) List(c echo.Context) error {
	entityType := domain.EntityType(c.QueryParam("type"))
	if !entityType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown entity type")
	}

	ctx := c.Request().Context()
	entities, err := h.entities.ListByType(ctx, entityType)
	if err != nil {
		return err
	}

	ranked := h.ranking.Rank(ctx, entities)
	return c.JSON(http.StatusOK, rankingResponse{
		Type:     string(entityType),
		Strategy: string(service.PivotStrategyFor(entityType)),
		Count:    len(ranked),
		Ranking:  ranked,
	})
}

// Score handles GET /v1/entities/:id/score, returning the full breakdown so
// the published number can be reconstructed exactly.
//
// @Summary      Score breakdown for one entity
// @Tags         rankings
// @Produce      json
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  scoreResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/entities/{id}/score [get]
func (h *RankingHandler) Score(c echo.Context) error {
	ctx := c.Request().Context()
	entity, err := h.entities.FindByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	breakdown := h.ranking.Score(ctx, entity.TotalReviews, entity.ReputationScore, 1.0, false)

	// Composite view under the type's pivot profile, from snapshot factors
	// normalized to the 0..5 band.
	factors := map[string]float64{
		"reputation_score": entity.ReputationScore,
		"total_votes":      math.Min(5.0, float64(entity.TotalReviews)/20.0),
		"service_coverage": math.Min(5.0, float64(len(entity.ServiceTags))),
	}
	if entity.IsActive {
		factors["is_active"] = 5.0
	}

	return c.JSON(http.StatusOK, scoreResponse{
		ScoreBreakdown: breakdown,
		Strategy:       string(service.PivotStrategyFor(entity.Type)),
		Composite:      service.PivotScore(entity.Type, factors),
	})
}

// Recompute handles POST /v1/admin/entities/:id/recompute. Admin only.
//
// @Summary      Re-aggregate an entity's counted votes
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  ports.ScoreBreakdown
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/entities/{id}/recompute [post]
func (h *RankingHandler) Recompute(c echo.Context) error {
	breakdown, err := h.ranking.RecomputeEntity(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, breakdown)
}
