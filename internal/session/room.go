package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyroom/internal/models"
)

const (
	maxChatHistory  = 500
	maxActivityLog  = 100
	joinHistorySize = 50
	joinQuizCount   = 3
)

// Room holds all shared state for one collaborative session.
type Room struct {
	ID string

	mu           sync.Mutex
	members      map[string]*models.Member // keyed by connection id
	clients      map[string]*Client
	sharedState  models.SharedState
	chatHistory  []models.ChatMessage
	activityLog  []models.ActivityEntry
	roles        map[string]string // userId -> role
	quizzes      []models.Quiz
	groupMastery *models.GroupMastery
	messageSeq   int
	createdAt    time.Time
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]*models.Member),
		clients: make(map[string]*Client),
		sharedState: models.SharedState{
			CursorPositions: make(map[string]models.CursorPosition),
		},
		roles:     make(map[string]string),
		createdAt: time.Now(),
	}
}

func (r *Room) CreatedAt() time.Time { return r.createdAt }

// SeedConcept sets the shared concept once, from the first joiner's learning path.
func (r *Room) SeedConcept(concept string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sharedState.CurrentConcept == "" && concept != "" {
		r.sharedState.CurrentConcept = concept
	}
}

// Join inserts or overwrites the member entry for the client's connection.
func (r *Room) Join(c *Client, user models.User) *models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	m := &models.Member{
		ConnectionID: c.ID,
		User:         user,
		JoinedAt:     now,
		LastActivity: now,
	}
	if prev, ok := r.members[c.ID]; ok {
		m.JoinedAt = prev.JoinedAt
		m.Role = prev.Role
	}
	r.members[c.ID] = m
	r.clients[c.ID] = c
	return m
}

// Leave removes the connection's member entry and returns the remaining count.
func (r *Room) Leave(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[connID]; ok {
		delete(r.sharedState.CursorPositions, m.User.ID)
	}
	delete(r.members, connID)
	delete(r.clients, connID)
	return len(r.members)
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Roster returns members ordered by join time. Role cycling and snapshots
// depend on this order being deterministic.
func (r *Room) Roster() []models.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked()
}

func (r *Room) rosterLocked() []models.Member {
	out := make([]models.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// Member returns a copy of the member entry for a connection.
func (r *Room) Member(connID string) (models.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[connID]
	if !ok {
		return models.Member{}, false
	}
	return *m, true
}

func (r *Room) TouchMember(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[connID]; ok {
		m.LastActivity = time.Now()
	}
}

/*** Shared workspace, last-write-wins ***/

func (r *Room) SetCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharedState.Code = code
}

func (r *Room) SetNotes(notes string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharedState.Notes = notes
}

func (r *Room) SetCursor(userID string, pos models.CursorPosition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sharedState.CursorPositions[userID] = pos
}

func (r *Room) SharedState() models.SharedState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sharedStateLocked()
}

func (r *Room) sharedStateLocked() models.SharedState {
	s := r.sharedState
	s.CursorPositions = make(map[string]models.CursorPosition, len(r.sharedState.CursorPositions))
	for k, v := range r.sharedState.CursorPositions {
		s.CursorPositions[k] = v
	}
	return s
}

/*** Chat and activity log ***/

// AppendChat records the message and returns its sequence number, counted
// from the first message ever posted in the room (the buffer itself is capped).
func (r *Room) AppendChat(msg models.ChatMessage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatHistory = append(r.chatHistory, msg)
	if len(r.chatHistory) > maxChatHistory {
		r.chatHistory = r.chatHistory[len(r.chatHistory)-maxChatHistory:]
	}
	r.messageSeq++
	return r.messageSeq
}

// RecentChat returns up to n of the most recent messages, oldest first.
func (r *Room) RecentChat(n int) []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentChatLocked(n)
}

func (r *Room) recentChatLocked(n int) []models.ChatMessage {
	if n <= 0 || n > len(r.chatHistory) {
		n = len(r.chatHistory)
	}
	out := make([]models.ChatMessage, n)
	copy(out, r.chatHistory[len(r.chatHistory)-n:])
	return out
}

func (r *Room) ChatLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chatHistory)
}

func (r *Room) LogActivity(activity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activityLog = append(r.activityLog, models.ActivityEntry{
		ID:        uuid.NewString(),
		Activity:  activity,
		Timestamp: time.Now(),
	})
	if len(r.activityLog) > maxActivityLog {
		r.activityLog = r.activityLog[len(r.activityLog)-maxActivityLog:]
	}
}

func (r *Room) ActivityCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activityLog)
}

func (r *Room) ActivityLog() []models.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ActivityEntry, len(r.activityLog))
	copy(out, r.activityLog)
	return out
}

/*** Mastery, roles, quizzes ***/

func (r *Room) SetGroupMastery(gm *models.GroupMastery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupMastery = gm
}

func (r *Room) GroupMastery() *models.GroupMastery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.groupMastery
}

func (r *Room) SetRoles(assignments []models.RoleAssignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range assignments {
		r.roles[a.UserID] = a.Role
	}
	for _, m := range r.members {
		if role, ok := r.roles[m.User.ID]; ok {
			m.Role = role
		}
	}
}

func (r *Room) Roles() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.roles))
	for k, v := range r.roles {
		out[k] = v
	}
	return out
}

func (r *Room) AddQuiz(q models.Quiz) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes = append(r.quizzes, q)
}

func (r *Room) RecentQuizzes(n int) []models.Quiz {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.quizzes) {
		n = len(r.quizzes)
	}
	out := make([]models.Quiz, n)
	copy(out, r.quizzes[len(r.quizzes)-n:])
	return out
}

func (r *Room) QuizCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quizzes)
}

// Snapshot builds the full room_state payload sent to a joining client.
func (r *Room) Snapshot() models.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make(map[string]string, len(r.roles))
	for k, v := range r.roles {
		roles[k] = v
	}
	quizzes := r.quizzes
	if len(quizzes) > joinQuizCount {
		quizzes = quizzes[len(quizzes)-joinQuizCount:]
	}
	qcopy := make([]models.Quiz, len(quizzes))
	copy(qcopy, quizzes)
	return models.RoomState{
		RoomID:       r.ID,
		SharedState:  r.sharedStateLocked(),
		ChatHistory:  r.recentChatLocked(joinHistorySize),
		Members:      r.rosterLocked(),
		Roles:        roles,
		GroupMastery: r.groupMastery,
		Quizzes:      qcopy,
	}
}

func (r *Room) Summary() models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RoomSummary{
		ID:            r.ID,
		MemberCount:   len(r.members),
		CreatedAt:     r.createdAt,
		ActivityCount: len(r.activityLog),
	}
}

/*** Broadcast ***/

// Broadcast sends the frame to every client except the sender.
func (r *Room) Broadcast(senderID string, frame models.WSFrame) {
	for _, c := range r.broadcastTargets(senderID) {
		c.Send(frame)
	}
}

// BroadcastAll sends the frame to every client, the sender included.
func (r *Room) BroadcastAll(frame models.WSFrame) {
	for _, c := range r.broadcastTargets("") {
		c.Send(frame)
	}
}

func (r *Room) broadcastTargets(excludeID string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		if excludeID != "" && id == excludeID {
			continue
		}
		out = append(out, c)
	}
	return out
}
