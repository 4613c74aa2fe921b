package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/LeeYoungMin22/SW-Design/internal/adapters/assistant"
	server "github.com/LeeYoungMin22/SW-Design/internal/adapters/http_server"
	"github.com/LeeYoungMin22/SW-Design/internal/adapters/observability"
	redisad "github.com/LeeYoungMin22/SW-Design/internal/adapters/redis"
	"github.com/LeeYoungMin22/SW-Design/internal/adapters/sentiment"
	"github.com/LeeYoungMin22/SW-Design/internal/app"
	"github.com/LeeYoungMin22/SW-Design/internal/domain"
	"github.com/LeeYoungMin22/SW-Design/internal/interpret"
	"github.com/LeeYoungMin22/SW-Design/internal/scoring"
	"github.com/LeeYoungMin22/SW-Design/internal/shared"
	mysqlrepo "github.com/LeeYoungMin22/SW-Design/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	guard := redisad.NewGuard(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.DedupeWindow)

	analyzer := buildAnalyzer(cfg)
	assist := buildAssistant(cfg)

	reviews := app.NewReviewService(repo, analyzer, guard, cache, cfg.SentimentTimeout, cfg.SpamKeywords)
	retriever := app.NewCandidateRetriever(repo.Venues())
	engine := scoring.NewEngine(scoring.DefaultWeights(), cfg.TopK)
	history := app.NewHistoryService(repo.History())
	recommender := app.NewRecommenderService(interpret.New(), retriever, engine, history, assist, cfg.AssistantTimeout)
	q := app.NewVenueQueryService(repo.Venues(), repo.Reviews(), cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.HTTPTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Recommender: recommender,
		Reviews:     reviews,
		History:     history,
		Q:           q,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// buildAnalyzer picks the sentiment backend: the HTTP service when a
// base URL is configured, the built-in lexicon otherwise.
func buildAnalyzer(cfg shared.Config) domain.SentimentAnalyzer {
	if cfg.SentimentBase == "" {
		return sentiment.NewLexicon()
	}
	c, err := sentiment.NewClient(cfg.SentimentBase, cfg.SentimentKey, cfg.SentimentRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sentiment client")
	}
	return c
}

// buildAssistant returns nil when no key is configured; the
// recommender treats nil as "rule-based only".
func buildAssistant(cfg shared.Config) domain.Assistant {
	if cfg.AnthropicKey == "" {
		return nil
	}
	a, err := assistant.NewClient(cfg.AnthropicKey, cfg.AnthropicModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize assistant")
	}
	return a
}
