package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	echoapi "github.com/walletgate/origo/api/echo"
	"github.com/walletgate/origo/cache"
	redisledger "github.com/walletgate/origo/cache/redis"
	"github.com/walletgate/origo/config"
	"github.com/walletgate/origo/domain"
	"github.com/walletgate/origo/internal/server"
	"github.com/walletgate/origo/mongodb"
	"github.com/walletgate/origo/platform"
	"github.com/walletgate/origo/platform/httpapi"
	"github.com/walletgate/origo/platform/memapi"
	"github.com/walletgate/origo/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := buildPlatform(cfg)

	ledger := buildLedger(cfg)
	defer ledger.Close()

	mirror, cleanup := buildMirror(ctx, cfg)
	defer cleanup()

	pipeline := services.NewEventPipeline(ledger, mirror, api)

	if cfg.CallbackURL != "" {
		registerCallback(ctx, services.NewCallbackService(api), cfg)
	}

	webhook := echoapi.NewWebhookAPI(pipeline, cfg.CallbackHeader, cfg.CallbackSecret)
	srv := server.NewHTTPServer(cfg, webhook)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("webhook receiver listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// buildPlatform selects the networked client or the in-memory fake. Both
// implement the same interface, so nothing downstream can tell them apart.
func buildPlatform(cfg *config.Config) platform.API {
	if cfg.PlatformMode == "memory" {
		return memapi.New()
	}

	apiCfg := httpapi.Config{
		BaseURL:        cfg.BaseURL,
		OrganizationID: cfg.OrganizationID,
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
	}
	tokens := services.NewTokenManager(httpapi.NewTokenEndpoint(apiCfg), cfg.ApplicationID, cfg.ApplicationVersion)
	return httpapi.NewClient(apiCfg, tokens)
}

func buildLedger(cfg *config.Config) cache.Ledger {
	retention := time.Duration(cfg.LedgerRetentionMin) * time.Minute
	if cfg.RedisAddr == "" {
		return cache.NewMemoryLedger(retention)
	}
	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	log.Info().Str("addr", cfg.RedisAddr).Msg("using redis dedup ledger")
	return redisledger.NewEventLedger(client, "origo", retention)
}

func buildMirror(ctx context.Context, cfg *config.Config) (domain.StateStore, func()) {
	if cfg.MongoURI == "" {
		return cache.NewMemoryStateStore(), func() {}
	}
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	repo := mongodb.NewPassStateRepository(client.Database(cfg.MongoDBName))
	return repo, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}
}

func registerCallback(ctx context.Context, callbacks *services.CallbackService, cfg *config.Config) {
	reg, err := callbacks.Register(ctx, cfg.CallbackURL, domain.AllEventsFilter(), cfg.CallbackHeader, cfg.CallbackSecret)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.CallbackURL).Msg("callback registration failed")
	}
	log.Info().Str("registration_id", reg.ID).Msg("callback registration ensured")
}
