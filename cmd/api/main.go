package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	server "tna_gateway/internal/adapters/http_server"
	"tna_gateway/internal/adapters/observability"
	redisad "tna_gateway/internal/adapters/redis"
	"tna_gateway/internal/adapters/tna"
	"tna_gateway/internal/app"
	"tna_gateway/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	client, err := tna.New(cfg.TNABase, cfg.TNAKey, cfg.TNARPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize TNA client")
	}

	avail := app.NewAvailabilityService(client)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	cached := app.NewCachedAvailability(avail, cache, cfg.CacheTTL)
	prices := app.NewPriceService(client, cfg.PriceWorkers)
	bundle := app.NewBundleService(cached, prices)

	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Avail: cached, Prices: prices, Bundle: bundle})

	log.Info().Str("addr", cfg.HTTPAddr).Str("upstream", cfg.TNABase).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
