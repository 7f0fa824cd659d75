package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/owasp-blt/lettuce/internal/catalog"
	"github.com/owasp-blt/lettuce/internal/config"
	"github.com/owasp-blt/lettuce/internal/conversation"
	"github.com/owasp-blt/lettuce/internal/health"
	"github.com/owasp-blt/lettuce/internal/metrics"
	"github.com/owasp-blt/lettuce/internal/mgmt"
	"github.com/owasp-blt/lettuce/internal/poll"
	"github.com/owasp-blt/lettuce/internal/recommend"
	"github.com/owasp-blt/lettuce/internal/slackbot"
	"github.com/owasp-blt/lettuce/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("ENVIRONMENT") == "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Str("mgmt_addr", cfg.MgmtListenAddr).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting lettuce")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Metrics registry
	m := metrics.New()

	// Health checker
	checker := health.NewChecker(logger)

	// Poll store (non-fatal — polls degrade to unavailable)
	var pollStore *store.Store
	if st, storeErr := store.New(cfg.DBPath, logger); storeErr != nil {
		logger.Warn().Err(storeErr).Str("path", cfg.DBPath).Msg("poll store unavailable (non-fatal)")
	} else {
		pollStore = st
		checker.Register("store", health.StoreCheck(st))
	}

	// Project catalog
	vocab := catalog.DefaultVocabulary()
	if cfg.VocabPath != "" {
		if v, vocabErr := catalog.LoadVocabulary(cfg.VocabPath); vocabErr != nil {
			logger.Warn().Err(vocabErr).Str("path", cfg.VocabPath).Msg("vocabulary overrides unreadable, using defaults")
		} else {
			vocab = v
		}
	}
	cat := catalog.Load(cfg.CatalogPath, vocab, logger)
	checker.Register("catalog", health.CatalogCheck(cat))

	fetcher := catalog.NewFetcher(cfg.GitHubToken, vocab, logger)

	// Recommendation engine and conversation state
	engine := recommend.New(cat, recommend.Config{StrictFilters: cfg.StrictFilters}, logger)
	machine := conversation.NewMachine(engine, cfg.RecommendLimit, logger)
	sessions := conversation.NewManager(cfg.SessionCapacity, cfg.SessionTTL, logger)

	var polls *poll.Service
	if pollStore != nil {
		polls = poll.NewService(pollStore, logger)
	}

	// HTTP server for probes and metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.LivenessHandler())
	mux.HandleFunc("/ready", checker.ReadinessHandler())
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// WaitGroup for in-flight work
	var wg sync.WaitGroup

	// --- Management API ---
	rtCfg := mgmt.RuntimeConfig{
		Environment:     cfg.Environment,
		LogLevel:        cfg.LogLevel,
		CatalogPath:     cfg.CatalogPath,
		SessionCapacity: cfg.SessionCapacity,
		SessionTTL:      cfg.SessionTTL,
		StrictFilters:   cfg.StrictFilters,
	}

	mgmtHandlers := mgmt.NewHandlers(cat, vocab, fetcher, sessions, checker, rtCfg, logger)
	mgmtServer := mgmt.NewServer(mgmt.ServerConfig{
		ListenAddr: cfg.MgmtListenAddr,
		AuthConfig: mgmt.AuthConfig{
			Mode:   cfg.MgmtAuthMode,
			APIKey: cfg.MgmtAPIKey,
		},
		CORSOrigins: cfg.MgmtCORSOrigins,
	}, mgmtHandlers, logger)

	// Start HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Start Management API server
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mgmtServer.Start(); err != nil {
			logger.Error().Err(err).Msg("management API server error")
		}
	}()

	// Start Slack Socket Mode (optional — only if tokens provided)
	if cfg.SlackEnabled() {
		middleware := slackbot.NewMiddleware(logger, cfg.RateLimitPerMinute, time.Minute)
		handler := slackbot.NewHandler(logger, middleware, cat, machine, sessions, polls, m, cfg.ContributeChannel)
		app, appErr := slackbot.NewApp(cfg.SlackBotToken, cfg.SlackAppToken, logger, handler)
		if appErr != nil {
			logger.Error().Err(appErr).Msg("failed to init Slack app (non-fatal)")
		} else {
			// Resolve bot identity for self-message filtering
			if authResp, authErr := app.AuthTest(); authErr == nil {
				handler.SetBotUserID(authResp.UserID)
				logger.Info().Str("bot_user_id", authResp.UserID).Msg("Slack bot identity resolved")
			}

			// Announce startup so deploys are visible in Slack
			if cfg.DeploysChannel != "" {
				if _, _, postErr := app.PostMessage(cfg.DeploysChannel, slack.MsgOptionText("Bot started", false)); postErr != nil {
					logger.Warn().Err(postErr).Str("channel", cfg.DeploysChannel).Msg("startup announcement failed")
				}
			}

			// Evict idle sessions on a fixed cadence
			wg.Add(1)
			go func() {
				defer wg.Done()
				ticker := time.NewTicker(time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if pruned := sessions.Prune(); pruned > 0 {
							logger.Debug().Int("pruned", pruned).Msg("idle sessions evicted")
						}
						m.SetActiveSessions(float64(sessions.Len()))
					}
				}
			}()

			logger.Info().Msg("Slack Socket Mode enabled")
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := app.Run(ctx); err != nil {
					logger.Error().Err(err).Msg("Slack Socket Mode error")
				}
			}()
		}
	} else {
		logger.Info().Msg("Slack not configured — running in API-only mode")
	}

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	// Cancel context to signal all goroutines
	cancel()

	// Shutdown servers
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := mgmtServer.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("management API server shutdown error")
	}

	if pollStore != nil {
		if err := pollStore.Close(); err != nil {
			logger.Error().Err(err).Msg("poll store close error")
		}
	}

	// Wait for in-flight work to complete
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("lettuce stopped")
}
