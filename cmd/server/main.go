// Command server runs the civic reputation API: vote ingestion, trust
// scoring, public rankings, and the administrative security surface.
//
//	@title          Civic Reputation API
//	@version        1.0
//	@description    Vote aggregation and trust-scoring pipeline.
//	@BasePath       /
//	@securityDefinitions.apikey  BearerAuth
//	@in             header
//	@name           Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/civicbeacon/reputation-system/docs"
	"github.com/civicbeacon/reputation-system/internal/api"
	"github.com/civicbeacon/reputation-system/internal/core/service"
	"github.com/civicbeacon/reputation-system/internal/infrastructure/config"
	mongodb "github.com/civicbeacon/reputation-system/internal/infrastructure/db/mongo"
	redisdb "github.com/civicbeacon/reputation-system/internal/infrastructure/db/redis"
	"github.com/civicbeacon/reputation-system/internal/infrastructure/queue"
	"github.com/civicbeacon/reputation-system/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories and shared state ---
	voteRepo := mongodb.NewVoteRepository(db)
	citizenRepo := mongodb.NewCitizenRepository(db)
	entityRepo := mongodb.NewEntityRepository(db)
	auditSink := mongodb.NewAuditRepository(db)

	stateStore := redisdb.NewStateStore(rdb)
	paramStore := redisdb.NewParamStore(rdb)
	pulseBus := redisdb.NewPulseBus(rdb)
	dedup := redisdb.NewDedupChecker(rdb)

	// --- Services ---
	auditBus := service.NewAuditBus(auditSink, logger.Component("audit"))
	gate := service.NewGate()
	territory := service.NewTerritoryResolver(paramStore, cfg.Tuning.TerritorialBonus)
	stealth := service.NewStealthPolicy(paramStore, cfg.Tuning.ShadowBanThreshold, auditBus, logger.Component("stealth"))
	security := service.NewSecurityService(stateStore, auditBus, logger.Component("security"))
	valuation := service.NewValuationService(citizenRepo)
	identity := service.NewIdentityService(citizenRepo, auditBus, cfg.CredentialSalt, logger.Component("identity"))
	auth := service.NewAuthService(citizenRepo, auditBus, cfg.JWTSecret, 24*time.Hour)

	ranking := service.NewRankingService(voteRepo, entityRepo, pulseBus, paramStore, service.RankingParams{
		ConfidenceThreshold: cfg.Tuning.ConfidenceThreshold,
		GlobalMean:          cfg.Tuning.GlobalMean,
		VolumeSaturation:    cfg.Tuning.VolumeSaturation,
	}, logger.Component("ranking"))

	votes := service.NewVoteEngine(
		voteRepo, citizenRepo, entityRepo,
		territory, stealth, pulseBus, auditBus,
		logger.Component("votes"),
	)

	// --- Vote dispatcher ---
	dispatcher := queue.NewDispatcher(cfg.Tuning.VoteWorkers, votes, ranking, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Mongo:      db,
		Redis:      rdb,
		Gate:       gate,
		Security:   security,
		Stealth:    stealth,
		Valuation:  valuation,
		Ranking:    ranking,
		Identity:   identity,
		Auth:       auth,
		Citizens:   citizenRepo,
		Entities:   entityRepo,
		Pulse:      pulseBus,
		Dispatcher: dispatcher,
		Dedup:      dedup,
		JWTSecret:  cfg.JWTSecret,
		Log:        logger.Component("http"),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
