package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"studyroom/internal/models"
	"studyroom/internal/session"
)

// PostMessage appends a chat message and broadcasts it to the whole room,
// sender included. Every 15th message schedules an auto-summary pass.
func (e *Engine) PostMessage(c *session.Client, req models.RoomChat) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	member, _ := room.Member(c.ID)

	msgType := req.Type
	if msgType != "text" && msgType != "ai_facilitation" && msgType != "system" {
		msgType = "text"
	}

	msg := newChatMessage(member.User, req.Message, msgType)
	seq := room.AppendChat(msg)
	room.TouchMember(c.ID)
	room.LogActivity(member.User.Name + " sent a message")

	room.BroadcastAll(models.WSFrame{Type: "chat_message", Data: msg})

	if seq%autoSummaryEvery == 0 {
		roomID := room.ID
		time.AfterFunc(e.summaryDelay, func() {
			e.summarize(context.Background(), roomID, autoSummaryLastN)
		})
	}
}

// RequestSummary is the on-demand version of the periodic auto-summary.
func (e *Engine) RequestSummary(ctx context.Context, c *session.Client, req models.SummaryRequest) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	lastN := req.LastN
	if lastN <= 0 {
		lastN = autoSummaryLastN
	}
	e.summarize(ctx, room.ID, lastN)
}

// summarize runs the summarization pass over the most recent messages and
// posts the result back into chat as a system message. The room is re-fetched
// after the provider call; a room deleted mid-flight drops the result.
func (e *Engine) summarize(ctx context.Context, roomID string, lastN int) {
	room, ok := e.registry.Get(roomID)
	if !ok {
		return
	}
	messages := room.RecentChat(lastN)
	if len(messages) == 0 {
		return
	}

	summary, err := e.provider.Summarize(ctx, messages)
	if err != nil {
		e.log.Warn("summary generation failed, using fallback",
			zap.String("room", roomID), zap.Error(err))
		summary, err = e.fallback.Summarize(ctx, messages)
		if err != nil {
			return
		}
	}

	room, ok = e.registry.Get(roomID)
	if !ok {
		return
	}

	room.BroadcastAll(models.WSFrame{Type: "ai_summary", Data: models.SummaryBroadcast{
		Summary:     summary,
		MessageSpan: len(messages),
	}})
	e.postAIMessage(room, formatSummary(summary), "system")
}

func formatSummary(s models.ConversationSummary) string {
	var b strings.Builder
	b.WriteString("Session summary: ")
	b.WriteString(strings.Join(s.KeyPoints, "; "))
	if len(s.NextSteps) > 0 {
		b.WriteString(". Next steps: ")
		b.WriteString(strings.Join(s.NextSteps, "; "))
	}
	return b.String()
}
