package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"studyroom/internal/api"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/v1/healthz", h.Health)

	r.Get("/api/v1/rooms", h.ListRooms)
	r.Get("/api/v1/rooms/{id}", h.GetRoom)
	r.Post("/api/v1/rooms/{id}/token", h.IssueToken)

	r.Get("/ws/room", h.RoomWS)

	return r
}
