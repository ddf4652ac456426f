package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"studyroom/internal/engine"
	"studyroom/internal/models"
	"studyroom/internal/utils"
)

type Handlers struct {
	log    *zap.Logger
	engine *engine.Engine
}

func NewHandlers(eng *engine.Engine, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{log: log, engine: eng}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// ListRooms returns summaries of every active room.
func (h *Handlers) ListRooms(w http.ResponseWriter, _ *http.Request) {
	utils.JSON(w, http.StatusOK, h.engine.Registry().Summaries())
}

type roomInfoResponse struct {
	models.RoomSummary
	Members []models.Member   `json:"members"`
	Roles   map[string]string `json:"roles"`
}

// GetRoom returns one room's summary with its roster and role map.
func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	room, ok := h.engine.Registry().Get(roomID)
	if !ok {
		utils.JSON(w, http.StatusNotFound, models.ErrorPayload{Message: "room not found"})
		return
	}
	utils.JSON(w, http.StatusOK, roomInfoResponse{
		RoomSummary: room.Summary(),
		Members:     room.Roster(),
		Roles:       room.Roles(),
	})
}

type tokenRequest struct {
	UserID string `json:"userId"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// IssueToken signs a room-join token for a user. Only available when a JWT
// secret is configured.
func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !utils.AuthEnabled() {
		utils.JSON(w, http.StatusNotImplemented, models.ErrorPayload{Message: "room tokens are not enabled"})
		return
	}
	roomID := chi.URLParam(r, "id")

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		utils.JSON(w, http.StatusBadRequest, models.ErrorPayload{Message: "userId is required"})
		return
	}

	token, err := utils.IssueRoomToken(roomID, req.UserID, 24*time.Hour)
	if err != nil {
		h.log.Error("failed to issue room token", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorPayload{Message: "failed to issue token"})
		return
	}
	utils.JSON(w, http.StatusOK, tokenResponse{Token: token})
}
