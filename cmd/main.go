/*
Package main is the entry point for the chess room server.

It loads configuration, initializes the global logger, wires the rules engine, room
registry, websocket hub and session coordinator, serves HTTP and shuts everything down
gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"chessrooms/internal/app/gateway"
	"chessrooms/internal/app/room"
	"chessrooms/internal/app/rules"
	"chessrooms/internal/app/session"
	"chessrooms/internal/configs"
	"chessrooms/internal/handler"
	"chessrooms/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("chat_history_limit", cfg.ChatHistoryLimit).
		Str("reset_policy", cfg.ResetPolicy).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := room.NewRegistry(rules.NewChessEngine(), cfg.ChatHistoryLimit)
	hub := gateway.NewHub(gateway.Options{
		EventRate:  rate.Limit(cfg.EventRate),
		EventBurst: cfg.EventBurst,
	})
	coordinator := session.NewCoordinator(registry, hub, session.Options{
		ResetPolicy:     cfg.ResetPolicy,
		MaxMessageBytes: cfg.MaxMessageBytes,
	})
	hub.SetHandler(coordinator)

	router := handler.Router(&handler.AppDeps{
		Coordinator: coordinator,
		Hub:         hub,
		Config:      cfg,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info("Chess Rooms Server starting", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// hijacked websocket connections are not tracked by the server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Hub forced to shutdown")
	}

	logx.Info("Server gracefully stopped.", "rooms_left", registry.Codes())
}
