/*
Package handler provides HTTP handler functions for room code generation and room lookups.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chessrooms/internal/pkg/errs"
	"chessrooms/internal/pkg/logx"
	"chessrooms/internal/pkg/resp"
)

// HandleCreateRoomCode returns a fresh room code. The room itself is created by the
// first player who joins it.
func HandleCreateRoomCode(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomCode, err := deps.Coordinator.FreshRoomCode()
		if err != nil {
			logx.Error(err, "Failed to generate room code")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"roomCode": roomCode,
		})
	}
}

// HandleGetRoom returns the public snapshot of a live room.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, customErr := deps.Coordinator.Snapshot(chi.URLParam(r, "code"))
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, view)
	}
}
