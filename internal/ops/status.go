package ops

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studyroom/internal/models"
)

const (
	roomKeyPrefix   = "room:"
	roomStatusTTL   = 24 * time.Hour
	sessionsChannel = "study_sessions"
)

// StatusCache mirrors room summaries into Redis for operational visibility
// and publishes session-ended events. Everything here is advisory: a nil
// Redis client disables the layer, and errors are logged, never propagated.
type StatusCache struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewStatusCache(rdb *redis.Client, log *zap.Logger) *StatusCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusCache{rdb: rdb, log: log}
}

// UpdateRoom writes the room summary hash with a TTL.
func (s *StatusCache) UpdateRoom(ctx context.Context, summary models.RoomSummary) {
	if s.rdb == nil {
		return
	}
	key := roomKeyPrefix + summary.ID
	err := s.rdb.HSet(ctx, key, map[string]interface{}{
		"id":            summary.ID,
		"memberCount":   summary.MemberCount,
		"activityCount": summary.ActivityCount,
		"createdAt":     summary.CreatedAt.Format(time.RFC3339),
	}).Err()
	if err != nil {
		s.log.Warn("failed to update room status in redis",
			zap.String("room", summary.ID), zap.Error(err))
		return
	}
	s.rdb.Expire(ctx, key, roomStatusTTL)
}

// RemoveRoom deletes the room's status hash.
func (s *StatusCache) RemoveRoom(ctx context.Context, roomID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, roomKeyPrefix+roomID).Err(); err != nil {
		s.log.Warn("failed to remove room status from redis",
			zap.String("room", roomID), zap.Error(err))
	}
}

// PublishSessionEnded announces an expired room on the sessions channel.
func (s *StatusCache) PublishSessionEnded(ctx context.Context, event models.SessionEndedEvent) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Warn("failed to marshal session-ended event", zap.Error(err))
		return
	}
	if err := s.rdb.Publish(ctx, sessionsChannel, payload).Err(); err != nil {
		s.log.Warn("failed to publish session-ended event",
			zap.String("room", event.RoomID), zap.Error(err))
	}
}
