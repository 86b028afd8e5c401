package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"fabric-agent/internal/config"
	"fabric-agent/internal/handlers"
	"fabric-agent/internal/logging"
	"fabric-agent/internal/middleware"
	"fabric-agent/internal/router"
	"fabric-agent/internal/services"
	"fabric-agent/internal/web"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logging.Setup(cfg.IsDevelopment(), cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().Str("provider", cfg.Provider).Str("assistant_id", cfg.AssistantID).Msg("configuration loaded")

	// ──── Step 2: Initialize Assistant Client ────
	client, err := services.NewOpenAIAssistantClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("assistant client initialization failed")
	}
	assistantService := services.NewAssistantService(client, cfg.AssistantID, cfg.PollInterval, cfg.MaxPollAttempts)

	// ──── Step 3: Render UI ────
	page, err := web.RenderIndex(web.PageData{Title: cfg.UITitle, Subtitle: cfg.UISubtitle})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to render chat page")
	}

	// ──── Step 4: Initialize Handlers ────
	uiHandler := handlers.NewUIHandler(page)
	chatHandler := handlers.NewChatHandler(assistantService)
	healthHandler := handlers.NewHealthHandler(assistantService.AssistantID())

	var chatLimiter *middleware.RateLimiter
	if cfg.ChatRateLimit > 0 {
		chatLimiter = middleware.NewRateLimiter(cfg.ChatRateLimit, time.Minute)
		defer chatLimiter.Stop()
	}

	// ──── Step 5: Start HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(uiHandler, chatHandler, healthHandler, chatLimiter),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	// Graceful shutdown
	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		log.Info().Str("addr", server.Addr).Msgf("ready on http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
