package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"studyroom/internal/models"
)

// DefaultGracePeriod is how long an empty room survives before deletion.
const DefaultGracePeriod = 5 * time.Minute

// Registry manages all active study rooms. Rooms are created lazily on join
// and removed after a grace period once empty.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	grace    time.Duration
	log      *zap.Logger
	onExpire func(*Room)
}

func NewRegistry(grace time.Duration, log *zap.Logger) *Registry {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		rooms: make(map[string]*Room),
		grace: grace,
		log:   log,
	}
}

// SetOnExpire registers a callback invoked after an expired room is removed.
func (reg *Registry) SetOnExpire(fn func(*Room)) {
	reg.mu.Lock()
	reg.onExpire = fn
	reg.mu.Unlock()
}

func (reg *Registry) GetOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := NewRoom(id)
	reg.rooms[id] = r
	reg.log.Info("room created", zap.String("room", id))
	return r
}

func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

func (reg *Registry) Summaries() []models.RoomSummary {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]models.RoomSummary, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r.Summary())
	}
	return out
}

// ScheduleExpiry arms the deletion check for a room that just became empty.
// Membership is re-validated when the timer fires, so a rejoin within the
// grace window keeps the room alive without any cancellation bookkeeping.
func (reg *Registry) ScheduleExpiry(id string) {
	time.AfterFunc(reg.grace, func() {
		reg.expire(id)
	})
}

func (reg *Registry) expire(id string) {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if !ok {
		reg.mu.Unlock()
		return
	}
	if room.MemberCount() > 0 {
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, id)
	onExpire := reg.onExpire
	reg.mu.Unlock()

	reg.log.Info("room expired", zap.String("room", id))
	if onExpire != nil {
		onExpire(room)
	}
}
