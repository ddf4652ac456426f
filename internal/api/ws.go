package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studyroom/internal/models"
	"studyroom/internal/session"
	"studyroom/internal/utils"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

/*** Study-room WebSocket: presence + shared workspace + chat + AI hooks ***/

func (h *Handlers) RoomWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(uuid.NewString(), conn)
	// The request context dies with the handler; cleanup gets its own.
	defer h.engine.Disconnect(context.Background(), client)

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.handleFrame(r, client, frame)
	}
}

// handleFrame dispatches one event. A panic in any handler is contained to
// this invocation: the caller gets an error frame and the loop keeps running.
func (h *Handlers) handleFrame(r *http.Request, client *session.Client, frame models.WSFrame) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("handler panic",
				zap.String("event", frame.Type),
				zap.Any("panic", rec))
			client.Send(errFrame("internal error", fmt.Errorf("%v", rec)))
		}
	}()

	ctx := r.Context()

	switch frame.Type {
	case "join_room":
		var req models.JoinRoomRequest
		if !h.decode(client, frame, &req) {
			return
		}
		if req.Token == "" {
			req.Token = r.URL.Query().Get("token")
		}
		if utils.AuthEnabled() {
			claims, err := utils.ValidateRoomToken(req.Token)
			if err != nil || claims.RoomID != req.RoomID || claims.UserID != req.User.ID {
				client.Send(errFrame("invalid room token", nil))
				return
			}
		}
		h.engine.Join(ctx, client, req)

	case "leave_room":
		h.engine.Leave(ctx, client)

	case "room_chat":
		var req models.RoomChat
		if h.decode(client, frame, &req) {
			h.engine.PostMessage(client, req)
		}

	case "shared_cursor":
		var req models.SharedCursor
		if h.decode(client, frame, &req) {
			h.engine.UpdateCursor(client, req)
		}

	case "code_edit":
		var req models.CodeEdit
		if h.decode(client, frame, &req) {
			h.engine.UpdateCode(client, req)
		}

	case "notes_update":
		var req models.NotesEdit
		if h.decode(client, frame, &req) {
			h.engine.UpdateNotes(client, req)
		}

	case "generate_group_quiz":
		var req models.GenerateGroupQuiz
		if h.decode(client, frame, &req) {
			h.engine.GenerateQuiz(ctx, client, req)
		}

	case "request_ai_facilitator":
		var req models.FacilitatorRequest
		if h.decode(client, frame, &req) {
			h.engine.Facilitate(ctx, client, req)
		}

	case "assign_roles":
		var req models.AssignRolesRequest
		if h.decode(client, frame, &req) {
			h.engine.AssignRoles(ctx, client, req)
		}

	case "request_summary":
		var req models.SummaryRequest
		if h.decode(client, frame, &req) {
			h.engine.RequestSummary(ctx, client, req)
		}

	case "submit_peer_review":
		var req models.PeerReview
		if h.decode(client, frame, &req) {
			h.engine.SubmitPeerReview(client, req)
		}

	default:
		client.Send(errFrame("unknown event type: "+frame.Type, nil))
	}
}

// decode re-marshals the frame payload into its typed form. Malformed
// payloads are rejected before they reach business logic.
func (h *Handlers) decode(client *session.Client, frame models.WSFrame, out interface{}) bool {
	b, err := json.Marshal(frame.Data)
	if err == nil {
		err = json.Unmarshal(b, out)
	}
	if err != nil {
		client.Send(errFrame("invalid payload for "+frame.Type, err))
		return false
	}
	return true
}

func errFrame(msg string, err error) models.WSFrame {
	payload := models.ErrorPayload{Message: msg}
	if err != nil {
		payload.Error = err.Error()
	}
	return models.WSFrame{Type: "error", Data: payload}
}
