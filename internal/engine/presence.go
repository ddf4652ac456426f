package engine

import (
	"context"

	"go.uber.org/zap"

	"studyroom/internal/models"
	"studyroom/internal/session"
)

// Join adds the connection to the room, creating it if needed. A connection
// still associated with another room is removed from it first, exactly as if
// it had left. The joiner gets a full room_state snapshot; everyone gets
// member_joined. A mastery refresh runs in the background and its failure
// never fails the join.
func (e *Engine) Join(ctx context.Context, c *session.Client, req models.JoinRoomRequest) {
	if req.RoomID == "" {
		e.sendError(c, "roomId is required", nil)
		return
	}

	e.mu.Lock()
	prev, moved := e.conns[c.ID]
	e.conns[c.ID] = req.RoomID
	e.mu.Unlock()
	if moved && prev != req.RoomID {
		e.departRoom(c, prev)
	}

	room := e.registry.GetOrCreate(req.RoomID)
	room.SeedConcept(req.LearningPath.CurrentConcept)

	c.SetUser(req.User)
	room.Join(c, req.User)

	room.LogActivity(req.User.Name + " joined the room")
	e.log.Info("member joined",
		zap.String("room", req.RoomID),
		zap.String("user", req.User.ID),
		zap.Int("members", room.MemberCount()))

	room.BroadcastAll(models.WSFrame{Type: "member_joined", Data: models.MemberJoined{
		User:         req.User,
		Members:      room.Roster(),
		GroupMastery: room.GroupMastery(),
	}})
	c.Send(models.WSFrame{Type: "room_state", Data: room.Snapshot()})

	// The refresh must outlive the caller: the websocket request context is
	// cancelled as soon as the read loop returns.
	go e.RefreshMastery(context.Background(), req.RoomID)
}

// Leave removes the connection from its room.
func (e *Engine) Leave(ctx context.Context, c *session.Client) {
	e.mu.Lock()
	roomID, ok := e.conns[c.ID]
	if ok {
		delete(e.conns, c.ID)
	}
	e.mu.Unlock()
	if !ok {
		e.sendError(c, notInRoomMessage, nil)
		return
	}
	e.departRoom(c, roomID)
}

// departRoom runs the post-leave bookkeeping for one room: member removal,
// member_left broadcast, and either the grace-period deletion check (last
// member out) or a mastery refresh (group composition changed). Callers must
// already have cleared or repointed the connection's association.
func (e *Engine) departRoom(c *session.Client, roomID string) {
	room, ok := e.registry.Get(roomID)
	if !ok {
		return
	}

	member, _ := room.Member(c.ID)
	remaining := room.Leave(c.ID)

	room.LogActivity(member.User.Name + " left the room")
	e.log.Info("member left",
		zap.String("room", roomID),
		zap.String("user", member.User.ID),
		zap.Int("remaining", remaining))

	room.BroadcastAll(models.WSFrame{Type: "member_left", Data: models.MemberLeft{
		User:    member.User,
		Members: room.Roster(),
	}})

	if remaining == 0 {
		e.registry.ScheduleExpiry(roomID)
		return
	}
	go e.RefreshMastery(context.Background(), roomID)
}

// Disconnect is Leave plus cleanup of the connection bookkeeping; it is safe
// to call for connections that never joined a room.
func (e *Engine) Disconnect(ctx context.Context, c *session.Client) {
	e.mu.RLock()
	_, joined := e.conns[c.ID]
	e.mu.RUnlock()
	if !joined {
		return
	}
	e.Leave(ctx, c)
}
