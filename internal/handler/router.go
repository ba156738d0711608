/*
Package handler provides the HTTP handlers and routing setup for the chess room server.

This file defines the main Router, applying the middleware for logging, CORS and
IP-based rate limiting before delegating requests to the API and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"chessrooms/internal/pkg/limiter"
	"chessrooms/internal/pkg/logx"
	"chessrooms/internal/pkg/resp"
)

const (
	CreateRate  = 0.2
	CreateBurst = 5
)

// Router sets up the main HTTP routing table for the application.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.ConnectRate), deps.Config.ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Chess Rooms Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api/rooms", func(rooms chi.Router) {
		rooms.With(createLimiter.Middleware).Post("/", HandleCreateRoomCode(deps))
		rooms.Get("/{code}", HandleGetRoom(deps))
	})

	r.Get("/ws", HandleWebSocket(deps.Hub, wsUpgrader, connectLimiter))

	return r
}
