package handler

import (
	"chessrooms/internal/app/gateway"
	"chessrooms/internal/app/session"
	"chessrooms/internal/configs"
)

type AppDeps struct {
	Coordinator *session.Coordinator
	Hub         *gateway.Hub
	Config      *configs.AppConfig
}
