package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studyroom/internal/ai"
	"studyroom/internal/mastery"
	"studyroom/internal/models"
	"studyroom/internal/session"
)

const (
	notInRoomMessage = "Not in a room"

	// autoSummaryEvery triggers a summarization pass on every Nth chat
	// message; the short delay batches rapid bursts.
	autoSummaryEvery = 15
	autoSummaryLastN = 20

	defaultSummaryDelay = 2 * time.Second
)

// aiUser attributes synthesized chat messages.
var aiUser = models.User{ID: "ai-facilitator", Name: "AI Facilitator"}

// Engine routes room events to the state they mutate. One instance owns the
// connection-to-room association table and every room mutation path.
type Engine struct {
	registry *session.Registry
	mastery  *mastery.Service
	provider ai.Provider
	fallback ai.Provider
	log      *zap.Logger

	mu    sync.RWMutex
	conns map[string]string // connection id -> room id

	summaryDelay time.Duration
}

func New(registry *session.Registry, masterySvc *mastery.Service, provider ai.Provider, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if provider == nil {
		provider = &ai.StaticProvider{}
	}
	return &Engine{
		registry:     registry,
		mastery:      masterySvc,
		provider:     provider,
		fallback:     &ai.StaticProvider{},
		log:          log,
		conns:        make(map[string]string),
		summaryDelay: defaultSummaryDelay,
	}
}

// SetSummaryDelay overrides the auto-summary batching delay (used in tests).
func (e *Engine) SetSummaryDelay(d time.Duration) { e.summaryDelay = d }

func (e *Engine) Registry() *session.Registry { return e.registry }

// roomFor resolves the caller's room. Handlers invoked without an active
// association get an error frame and a no-op, never a panic.
func (e *Engine) roomFor(c *session.Client) (*session.Room, bool) {
	e.mu.RLock()
	roomID, ok := e.conns[c.ID]
	e.mu.RUnlock()
	if !ok {
		e.sendError(c, notInRoomMessage, nil)
		return nil, false
	}
	room, ok := e.registry.Get(roomID)
	if !ok {
		e.sendError(c, notInRoomMessage, nil)
		return nil, false
	}
	return room, true
}

func (e *Engine) sendError(c *session.Client, message string, err error) {
	payload := models.ErrorPayload{Message: message}
	if err != nil {
		payload.Error = err.Error()
	}
	c.Send(models.WSFrame{Type: "error", Data: payload})
}

func newChatMessage(user models.User, text, msgType string) models.ChatMessage {
	if msgType == "" {
		msgType = "text"
	}
	return models.ChatMessage{
		ID:        uuid.NewString(),
		User:      user,
		Message:   text,
		Type:      msgType,
		Timestamp: time.Now(),
		Reactions: []string{},
	}
}

// postAIMessage appends and broadcasts a synthesized chat message.
func (e *Engine) postAIMessage(room *session.Room, text, msgType string) {
	msg := newChatMessage(aiUser, text, msgType)
	room.AppendChat(msg)
	room.BroadcastAll(models.WSFrame{Type: "chat_message", Data: msg})
}

// memberMasteries builds per-member generator context from the room's cached
// mastery; members without data get an empty map.
func memberMasteries(room *session.Room) []ai.MemberMastery {
	gm := room.GroupMastery()
	roster := room.Roster()
	out := make([]ai.MemberMastery, 0, len(roster))
	for _, m := range roster {
		mm := ai.MemberMastery{UserID: m.User.ID, UserName: m.User.Name, Mastery: map[string]float64{}}
		if gm != nil {
			if individual, ok := gm.Individual[m.User.ID]; ok {
				mm.Mastery = individual
			}
		}
		out = append(out, mm)
	}
	return out
}

// RefreshMastery queries mastery for the room's current members and applies
// the aggregate. The room is re-fetched before the write so a result arriving
// after deletion is dropped rather than resurrecting state.
func (e *Engine) RefreshMastery(ctx context.Context, roomID string) {
	room, ok := e.registry.Get(roomID)
	if !ok || e.mastery == nil {
		return
	}
	roster := room.Roster()
	if len(roster) == 0 {
		return
	}

	gm := e.mastery.Collect(ctx, roster, room.GroupMastery())

	room, ok = e.registry.Get(roomID)
	if !ok {
		return
	}
	room.SetGroupMastery(gm)
	room.BroadcastAll(models.WSFrame{Type: "group_mastery_updated", Data: gm})
}
