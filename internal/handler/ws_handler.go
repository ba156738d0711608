package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chessrooms/internal/app/gateway"
	"chessrooms/internal/pkg/errs"
	"chessrooms/internal/pkg/limiter"
	"chessrooms/internal/pkg/logx"
	"chessrooms/internal/pkg/resp"
)

// HandleWebSocket upgrades the request and hands the connection to the hub. Rooms are
// chosen later through joinRoom events, so the upgrade itself carries no parameters.
func HandleWebSocket(hub *gateway.Hub, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		hub.Serve(conn)
	}
}
