package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"studyroom/internal/models"
)

type frameCapture struct {
	mu     sync.Mutex
	frames []models.WSFrame
}

func newFrameCapture() *frameCapture { return &frameCapture{} }

func (c *frameCapture) hook(frame models.WSFrame) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
}

func (c *frameCapture) list() []models.WSFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.WSFrame, len(c.frames))
	copy(out, c.frames)
	return out
}

func TestClientSendWithHook(t *testing.T) {
	client := NewClient("c1", nil)
	capture := newFrameCapture()
	client.SetSendHook(capture.hook)

	frame := models.WSFrame{Type: "ping"}
	client.Send(frame)

	got := capture.list()
	if len(got) != 1 || got[0].Type != "ping" {
		t.Fatalf("expected frame captured, got %#v", got)
	}
}

func TestClientSendWithoutConnDoesNotPanic(t *testing.T) {
	client := NewClient("c1", nil)
	client.Send(models.WSFrame{Type: "noop"})
}

func TestClientSendWritesToConn(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan models.WSFrame, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err == nil {
			received <- frame
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	client := NewClient("c1", conn)
	client.Send(models.WSFrame{Type: "ping"})

	select {
	case frame := <-received:
		if frame.Type != "ping" {
			t.Fatalf("unexpected frame: %#v", frame)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected frame to be received")
	}
}

func TestRoomJoinLeaveAndRoster(t *testing.T) {
	room := NewRoom("room")
	if count := room.MemberCount(); count != 0 {
		t.Fatalf("expected empty room, got %d", count)
	}

	c1 := NewClient("c1", nil)
	c2 := NewClient("c2", nil)
	room.Join(c1, models.User{ID: "u1", Name: "Alice"})
	room.Join(c2, models.User{ID: "u2", Name: "Bob"})
	if count := room.MemberCount(); count != 2 {
		t.Fatalf("expected 2 members, got %d", count)
	}

	roster := room.Roster()
	if len(roster) != 2 || roster[0].User.ID != "u1" || roster[1].User.ID != "u2" {
		t.Fatalf("unexpected roster order: %#v", roster)
	}

	// Rejoining on the same connection replaces, never duplicates.
	room.Join(c1, models.User{ID: "u1", Name: "Alice"})
	if count := room.MemberCount(); count != 2 {
		t.Fatalf("rejoin duplicated member, got %d", count)
	}

	if left := room.Leave("c1"); left != 1 {
		t.Fatalf("expected 1 member after leave, got %d", left)
	}
	if left := room.Leave("c2"); left != 0 {
		t.Fatalf("expected empty room, got %d", left)
	}
}

func TestRoomSeedConceptOnlyOnce(t *testing.T) {
	room := NewRoom("r")
	room.SeedConcept("loops")
	room.SeedConcept("functions")
	if got := room.SharedState().CurrentConcept; got != "loops" {
		t.Fatalf("expected first concept to stick, got %q", got)
	}
}

func TestRoomSharedStateLastWriteWins(t *testing.T) {
	room := NewRoom("r")
	room.SetNotes("draft1")
	room.SetNotes("draft2")
	if got := room.SharedState().Notes; got != "draft2" {
		t.Fatalf("expected last write to win, got %q", got)
	}

	room.SetCode("v1")
	room.SetCode("v2")
	if got := room.SharedState().Code; got != "v2" {
		t.Fatalf("expected last code write to win, got %q", got)
	}

	room.SetCursor("u1", models.CursorPosition{Position: 5})
	room.SetCursor("u1", models.CursorPosition{Position: 9})
	if got := room.SharedState().CursorPositions["u1"].Position; got != 9 {
		t.Fatalf("expected cursor position 9, got %d", got)
	}
}

func TestRoomLeaveClearsCursor(t *testing.T) {
	room := NewRoom("r")
	c1 := NewClient("c1", nil)
	room.Join(c1, models.User{ID: "u1", Name: "Alice"})
	room.SetCursor("u1", models.CursorPosition{Position: 3})

	room.Leave("c1")
	if _, ok := room.SharedState().CursorPositions["u1"]; ok {
		t.Fatalf("expected cursor cleared on leave")
	}
}

func TestRoomChatHistoryCapped(t *testing.T) {
	room := NewRoom("r")
	for i := 0; i < maxChatHistory+25; i++ {
		seq := room.AppendChat(models.ChatMessage{ID: fmt.Sprintf("m%d", i)})
		if seq != i+1 {
			t.Fatalf("expected sequence %d, got %d", i+1, seq)
		}
	}
	if got := room.ChatLen(); got != maxChatHistory {
		t.Fatalf("expected history capped at %d, got %d", maxChatHistory, got)
	}

	recent := room.RecentChat(2)
	if len(recent) != 2 || recent[1].ID != fmt.Sprintf("m%d", maxChatHistory+24) {
		t.Fatalf("unexpected recent messages: %#v", recent)
	}
}

func TestRoomActivityLogCapped(t *testing.T) {
	room := NewRoom("r")
	for i := 0; i < maxActivityLog+10; i++ {
		room.LogActivity("event")
	}
	if got := room.ActivityCount(); got != maxActivityLog {
		t.Fatalf("expected activity log capped at %d, got %d", maxActivityLog, got)
	}
}

func TestRoomSnapshotLimits(t *testing.T) {
	room := NewRoom("r")
	c1 := NewClient("c1", nil)
	room.Join(c1, models.User{ID: "u1", Name: "Alice"})

	for i := 0; i < joinHistorySize+30; i++ {
		room.AppendChat(models.ChatMessage{ID: fmt.Sprintf("m%d", i)})
	}
	for i := 0; i < joinQuizCount+2; i++ {
		room.AddQuiz(models.Quiz{ID: fmt.Sprintf("q%d", i)})
	}

	snap := room.Snapshot()
	if len(snap.ChatHistory) != joinHistorySize {
		t.Fatalf("expected %d messages in snapshot, got %d", joinHistorySize, len(snap.ChatHistory))
	}
	if len(snap.Quizzes) != joinQuizCount {
		t.Fatalf("expected %d quizzes in snapshot, got %d", joinQuizCount, len(snap.Quizzes))
	}
	if snap.Quizzes[joinQuizCount-1].ID != fmt.Sprintf("q%d", joinQuizCount+1) {
		t.Fatalf("expected most recent quizzes, got %#v", snap.Quizzes)
	}
	if len(snap.Members) != 1 {
		t.Fatalf("expected 1 member in snapshot, got %d", len(snap.Members))
	}
}

func TestRoomSetRolesUpdatesMembers(t *testing.T) {
	room := NewRoom("r")
	c1 := NewClient("c1", nil)
	room.Join(c1, models.User{ID: "u1", Name: "Alice"})

	room.SetRoles([]models.RoleAssignment{{UserID: "u1", UserName: "Alice", Role: "Driver"}})

	if got := room.Roles()["u1"]; got != "Driver" {
		t.Fatalf("expected role map entry, got %q", got)
	}
	if m, _ := room.Member("c1"); m.Role != "Driver" {
		t.Fatalf("expected member role set, got %q", m.Role)
	}
}

func TestRoomBroadcastExcludesSender(t *testing.T) {
	room := NewRoom("r")
	frame := models.WSFrame{Type: "chat_message", Data: "hello"}

	c1 := NewClient("c1", nil)
	cap1 := newFrameCapture()
	c1.SetSendHook(cap1.hook)
	c2 := NewClient("c2", nil)
	cap2 := newFrameCapture()
	c2.SetSendHook(cap2.hook)
	sender := NewClient("sender", nil)
	sender.SetSendHook(func(models.WSFrame) { t.Fatal("sender should not receive broadcast") })

	room.Join(c1, models.User{ID: "u1"})
	room.Join(c2, models.User{ID: "u2"})
	room.Join(sender, models.User{ID: "u3"})

	room.Broadcast("sender", frame)

	if got := cap1.list(); len(got) != 1 || got[0].Type != "chat_message" {
		t.Fatalf("client1 missing frame: %#v", got)
	}
	if got := cap2.list(); len(got) != 1 || got[0].Type != "chat_message" {
		t.Fatalf("client2 missing frame: %#v", got)
	}
}

func TestRoomBroadcastAll(t *testing.T) {
	room := NewRoom("r")
	frame := models.WSFrame{Type: "ping"}

	c1 := NewClient("c1", nil)
	cap1 := newFrameCapture()
	c1.SetSendHook(cap1.hook)
	c2 := NewClient("c2", nil)
	cap2 := newFrameCapture()
	c2.SetSendHook(cap2.hook)

	room.Join(c1, models.User{ID: "u1"})
	room.Join(c2, models.User{ID: "u2"})

	room.BroadcastAll(frame)

	if len(cap1.list()) != 1 || len(cap2.list()) != 1 {
		t.Fatalf("expected broadcast to all clients")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(time.Minute, nil)
	roomA := reg.GetOrCreate("a")
	roomB := reg.GetOrCreate("a")
	if roomA != roomB {
		t.Fatalf("expected same room instance")
	}

	if _, ok := reg.Get("missing"); ok {
		t.Fatalf("expected missing room")
	}

	summaries := reg.Summaries()
	if len(summaries) != 1 || summaries[0].ID != "a" {
		t.Fatalf("unexpected summaries: %#v", summaries)
	}

	reg.Remove("a")
	if _, ok := reg.Get("a"); ok {
		t.Fatalf("expected room to be removed")
	}
}

func TestRegistryExpiryDeletesEmptyRoom(t *testing.T) {
	reg := NewRegistry(30*time.Millisecond, nil)
	reg.GetOrCreate("a")
	reg.ScheduleExpiry("a")

	// Still retrievable before the grace period elapses.
	if _, ok := reg.Get("a"); !ok {
		t.Fatalf("room should survive until the grace period elapses")
	}

	time.Sleep(100 * time.Millisecond)
	if _, ok := reg.Get("a"); ok {
		t.Fatalf("expected empty room to be deleted after grace period")
	}
}

func TestRegistryExpirySkipsReoccupiedRoom(t *testing.T) {
	reg := NewRegistry(30*time.Millisecond, nil)
	room := reg.GetOrCreate("a")
	reg.ScheduleExpiry("a")

	// A rejoin within the grace window keeps the room alive.
	room.Join(NewClient("c1", nil), models.User{ID: "u1"})

	time.Sleep(100 * time.Millisecond)
	if _, ok := reg.Get("a"); !ok {
		t.Fatalf("expected reoccupied room to survive expiry check")
	}
}

func TestRegistryExpiryCallback(t *testing.T) {
	reg := NewRegistry(10*time.Millisecond, nil)
	expired := make(chan string, 1)
	reg.SetOnExpire(func(r *Room) { expired <- r.ID })

	reg.GetOrCreate("a")
	reg.ScheduleExpiry("a")

	select {
	case id := <-expired:
		if id != "a" {
			t.Fatalf("unexpected expired room %q", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected expiry callback")
	}
}
