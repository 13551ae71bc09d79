package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicbeacon/reputation-system/internal/api/handler"
	"github.com/civicbeacon/reputation-system/internal/api/middleware"
	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
	"github.com/civicbeacon/reputation-system/internal/core/service"
)

// Deps carries everything the router needs. Services are constructed once in
// main and shared with the background dispatcher.
type Deps struct {
	Mongo *mongo.Database
	Redis *redis.Client

	Gate       *service.Gate
	Security   *service.SecurityService
	Stealth    *service.StealthPolicy
	Valuation  *service.ValuationService
	Ranking    ports.RankingService
	Identity   ports.IdentityService
	Auth       ports.AuthService
	Citizens   ports.CitizenRepository
	Entities   ports.EntityRepository
	Pulse      ports.PulseSubscriber
	Dispatcher handler.VoteDispatcher
	Dedup      handler.BatchDeduper

	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("civic"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	voteHandler := handler.NewVoteHandler(d.Gate, d.Security, d.Dispatcher, d.Dedup)
	rankingHandler := handler.NewRankingHandler(d.Ranking, d.Entities)
	identityHandler := handler.NewIdentityHandler(d.Identity)
	securityHandler := handler.NewSecurityHandler(d.Security, d.Stealth, d.Valuation, d.Citizens)
	realtimeHandler := handler.NewRealtimeHandler(d.Pulse)

	authMW := middleware.Auth(d.JWTSecret)
	citizenOnly := middleware.RBAC(domain.RoleCitizen, domain.RoleAdmin)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Redis)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	v1 := e.Group("/v1")

	// --- Public read surface ---
	v1.GET("/rankings", rankingHandler.List)
	v1.GET("/entities/:id/score", rankingHandler.Score)
	v1.GET("/realtime/:entity_id", realtimeHandler.Stream)

	// --- Citizen surface ---
	v1.POST("/votes", voteHandler.Submit, authMW, citizenOnly)
	v1.POST("/identity/verify", identityHandler.Verify, authMW, citizenOnly)
	v1.PUT("/identity/profile", identityHandler.UpdateProfile, authMW, citizenOnly)

	// --- Administrative surface ---
	admin := v1.Group("", authMW, adminOnly)
	admin.POST("/votes/batch", voteHandler.SubmitBatch)
	admin.GET("/admin/security", securityHandler.Status)
	admin.PUT("/admin/security", securityHandler.Switch)
	admin.POST("/admin/security/evaluate", securityHandler.Evaluate)
	admin.POST("/admin/ips/block", securityHandler.BlockIP)
	admin.POST("/admin/citizens/:id/shadowban", securityHandler.ApplyShadowBan)
	admin.DELETE("/admin/citizens/:id/shadowban", securityHandler.LiftShadowBan)
	admin.POST("/admin/entities/:id/recompute", rankingHandler.Recompute)
	admin.GET("/admin/portfolio", securityHandler.Portfolio)

	return e
}
