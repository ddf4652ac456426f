package engine

import (
	"time"

	"studyroom/internal/models"
	"studyroom/internal/session"
)

// Workspace updates are last-write-wins: no merge, no conflict detection.
// Conflicting concurrent edits overwrite one another, which is the intended
// behavior for small synchronous study groups. Updates go to every member
// except the editor to avoid echo.

func (e *Engine) UpdateCode(c *session.Client, req models.CodeEdit) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	member, _ := room.Member(c.ID)

	room.SetCode(req.Code)
	room.TouchMember(c.ID)
	room.LogActivity(member.User.Name + " edited code")

	room.Broadcast(c.ID, models.WSFrame{Type: "code_update", Data: models.CodeUpdate{
		Code:      req.Code,
		EditedBy:  member.User.Name,
		Timestamp: time.Now(),
	}})
}

func (e *Engine) UpdateNotes(c *session.Client, req models.NotesEdit) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	member, _ := room.Member(c.ID)

	room.SetNotes(req.Notes)
	room.TouchMember(c.ID)

	room.Broadcast(c.ID, models.WSFrame{Type: "notes_update", Data: models.NotesBroadcast{
		Notes:     req.Notes,
		EditedBy:  member.User.Name,
		Timestamp: time.Now(),
	}})
}

func (e *Engine) UpdateCursor(c *session.Client, req models.SharedCursor) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	member, _ := room.Member(c.ID)

	room.SetCursor(member.User.ID, models.CursorPosition{
		Position:  req.Position,
		Selection: req.Selection,
	})

	room.Broadcast(c.ID, models.WSFrame{Type: "cursor_update", Data: models.CursorUpdate{
		UserID:    member.User.ID,
		Position:  req.Position,
		Selection: req.Selection,
	}})
}
