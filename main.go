// main.go
//
// Entry point for the Jeopardy board server.
// Startup:
//   - Load .env (if present) and configure the global zerolog level.
//   - Read and validate configuration from the environment.
//   - Pick the trivia source: the local SQLite archive when ARCHIVE_DSN is
//     set (optionally seeded from ARCHIVE_SEED_FILE), otherwise the remote
//     jService API.
//   - Serve HTTP until SIGINT/SIGTERM, reaping idle sessions meanwhile.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/archive"
	"github.com/robalobadob/jeopardy/internal/config"
	"github.com/robalobadob/jeopardy/internal/httpserver"
	"github.com/robalobadob/jeopardy/internal/jservice"
	"github.com/robalobadob/jeopardy/internal/loader"
	"github.com/robalobadob/jeopardy/internal/session"
	"github.com/robalobadob/jeopardy/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open trivia source")
	}
	defer closeSrc()

	l := loader.New(src, loader.Options{
		BatchSize:   cfg.CategoryBatch,
		OffsetPages: cfg.CategoryOffsets,
	})

	mem := store.NewMemoryStore()
	reaper, err := store.ScheduleReaper(mem, max(cfg.SessionTTL/4, time.Second), cfg.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule session reaper")
	}
	reaper.Start()
	defer reaper.Stop()

	// One listing plus one fetch per category, each bounded by HTTP_TIMEOUT.
	loadTimeout := time.Duration(cfg.Categories+2) * cfg.HTTPTimeout

	srv := httpserver.New(mem, l, httpserver.Options{
		Shape:          session.Shape{Categories: cfg.Categories, Clues: cfg.CluesPerCat},
		Secret:         cfg.SessionSecret,
		TokenTTL:       cfg.TokenTTL,
		ClientOrigin:   cfg.ClientOrigin,
		Secure:         cfg.Production(),
		RequestTimeout: loadTimeout,
	})

	log.Info().Str("port", cfg.Port).Int("categories", cfg.Categories).Int("clues", cfg.CluesPerCat).Msg("starting jeopardy server")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// openSource returns the configured loader.Source and a func that releases it.
func openSource(ctx context.Context, cfg config.Config) (loader.Source, func(), error) {
	if cfg.ArchiveDSN == "" {
		log.Info().Str("url", cfg.JServiceURL).Dur("timeout", cfg.HTTPTimeout).Msg("using remote trivia service")
		return jservice.New(cfg.JServiceURL, nil, cfg.HTTPTimeout), func() {}, nil
	}

	a, err := archive.Open(cfg.ArchiveDSN)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close archive")
		}
	}

	if cfg.ArchiveSeedFile != "" {
		f, err := os.Open(cfg.ArchiveSeedFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		n, err := a.ImportJSON(ctx, f)
		f.Close()
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info().Int("categories", n).Str("file", cfg.ArchiveSeedFile).Msg("seeded archive")
	}

	total, err := a.CategoryTotal(ctx)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	log.Info().Str("dsn", cfg.ArchiveDSN).Int("categories", total).Msg("using local archive")
	return a, closeFn, nil
}
