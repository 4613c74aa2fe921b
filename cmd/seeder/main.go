package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/LeeYoungMin22/SW-Design/internal/adapters/observability"
	redisad "github.com/LeeYoungMin22/SW-Design/internal/adapters/redis"
	"github.com/LeeYoungMin22/SW-Design/internal/app"
	"github.com/LeeYoungMin22/SW-Design/internal/shared"
	mysqlrepo "github.com/LeeYoungMin22/SW-Design/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("file", cfg.SeedFile).
		Int("workers", cfg.Workers).
		Msg("seeder starting")

	raw, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("read seed file failed")
	}
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Fatal().Err(err).Msg("seed file is not a JSON array of objects")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	catalog := app.NewCatalogService(repo.Venues(), cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var imported, failed atomic.Int64

	for i, entry := range entries {
		i, entry := i, entry

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(int64(1))

			id, err := catalog.ImportPayload(ctx, entry)
			if err != nil {
				failed.Add(1)
				log.Warn().Int("entry", i).Err(err).Msg("import failed")
				return
			}
			imported.Add(1)
			log.Info().Int("entry", i).Int64("venue_id", id).Msg("import ok")
		}()
	}

	wg.Wait()
	log.Info().
		Int64("imported", imported.Load()).
		Int64("failed", failed.Load()).
		Msg("seeding completed")
}
