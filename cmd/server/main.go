// Command server runs the shared context server: the tool dispatch
// surface, real-time notification bus, and background sweeps, all wired
// to a single SQLite or PostgreSQL store.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sharedcontext/server/internal/api"
	"github.com/sharedcontext/server/internal/audit"
	"github.com/sharedcontext/server/internal/auth"
	"github.com/sharedcontext/server/internal/config"
	"github.com/sharedcontext/server/internal/dispatch"
	"github.com/sharedcontext/server/internal/live"
	"github.com/sharedcontext/server/internal/logger"
	"github.com/sharedcontext/server/internal/memory"
	"github.com/sharedcontext/server/internal/metrics"
	"github.com/sharedcontext/server/internal/ratelimit"
	"github.com/sharedcontext/server/internal/search"
	"github.com/sharedcontext/server/internal/sessioncore"
	"github.com/sharedcontext/server/internal/store"
	"github.com/sharedcontext/server/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.LogLevel, cfg.LogPretty)
	log := logger.GetLogger()

	st, err := store.Open(store.Config{
		DatabaseURL:  cfg.DatabaseURL,
		PoolBaseline: cfg.DBPoolBaseline,
		PoolBurst:    cfg.DBPoolBurst,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap schema")
	}

	keyring, err := auth.NewKeyring(cfg.SigningKey, cfg.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build keyring")
	}
	policy := auth.NewPolicy(adminAgentTypes())
	newManager := func() *auth.Manager {
		return auth.NewManager(keyring, st, policy, cfg.CapabilityTokenTTL)
	}

	hub := live.NewHub()
	go hub.Run()

	redisBridge := live.NewRedisBridge(live.RedisConfig{
		Addr:    cfg.RedisURL,
		Enabled: cfg.RedisURL != "",
	}, hub)
	defer redisBridge.Close()

	bridgeCtx, cancelBridge := context.WithCancel(ctx)
	defer cancelBridge()
	go redisBridge.Run(bridgeCtx)

	notifier := redisBridge.Notifier()

	auditLogger := audit.New(st)
	sessions := sessioncore.New(st, auditLogger, notifier)
	mem := memory.New(st)
	searchCore := search.New(st)
	metricsRegistry := metrics.New()
	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)

	registry := dispatch.NewRegistry(limiter)
	dispatch.RegisterAll(registry, dispatch.Deps{
		APIKey:     cfg.APIKey,
		Sessions:   sessions,
		Memory:     mem,
		Search:     searchCore,
		Audit:      auditLogger,
		Metrics:    metricsRegistry,
		NewManager: newManager,
	})

	scheduler := sweep.New()
	if err := scheduler.Register("memory_ttl_sweep", "* * * * *", mem); err != nil {
		log.Fatal().Err(err).Msg("failed to register memory sweep")
	}
	if err := scheduler.Register("protected_token_sweep", "*/5 * * * *", newManager()); err != nil {
		log.Fatal().Err(err).Msg("failed to register token sweep")
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	srv := &api.Server{
		Registry:           registry,
		Hub:                hub,
		NewManager:         newManager,
		BridgeSharedSecret: cfg.BridgeSharedSecret,
		RequestTimeout:     30 * time.Second,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("shared context server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server did not shut down cleanly")
	}
}

// adminAgentTypes reads the comma-free single-flag ADMIN_AGENT_TYPES
// environment variable's configured agent types eligible to hold the admin
// permission. Left unset, no agent type may request admin — only direct
// database provisioning can promote one.
func adminAgentTypes() []string {
	v := os.Getenv("ADMIN_AGENT_TYPES")
	if v == "" {
		return nil
	}
	var types []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				types = append(types, v[start:i])
			}
			start = i + 1
		}
	}
	return types
}
