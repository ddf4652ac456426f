package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studyroom/internal/ai"
	"studyroom/internal/models"
	"studyroom/internal/session"
)

// adaptiveThreshold splits members into hard/medium question tracks based on
// their mastery of the first requested concept.
const adaptiveThreshold = 0.7

var defaultRoles = []string{"Driver", "Navigator", "Researcher", "Reviewer"}

// GenerateQuiz builds a group quiz from the room's cached mastery. Members
// with no mastery data get an empty map rather than blocking generation.
func (e *Engine) GenerateQuiz(ctx context.Context, c *session.Client, req models.GenerateGroupQuiz) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	if len(req.Concepts) == 0 {
		e.sendError(c, "at least one concept is required", nil)
		return
	}
	member, _ := room.Member(c.ID)
	roomID := room.ID

	members := memberMasteries(room)
	for i := range members {
		members[i].Difficulty = resolveDifficulty(req.Difficulty, req.Concepts[0], members[i].Mastery)
	}

	quizReq := ai.QuizRequest{Concepts: req.Concepts, Difficulty: req.Difficulty, Members: members}
	content, err := e.provider.GenerateGroupQuiz(ctx, quizReq)
	if err != nil {
		e.log.Warn("quiz generation failed, using fallback",
			zap.String("room", roomID), zap.Error(err))
		content, err = e.fallback.GenerateGroupQuiz(ctx, quizReq)
		if err != nil {
			e.sendError(c, "failed to generate quiz", err)
			return
		}
	}

	quiz := models.Quiz{
		ID:                   uuid.NewString(),
		TeamChallenge:        content.TeamChallenge,
		IndividualQuestions:  content.IndividualQuestions,
		CollaborativeProblem: content.CollaborativeProblem,
		CreatedAt:            time.Now(),
	}

	room, ok = e.registry.Get(roomID)
	if !ok {
		return
	}
	room.AddQuiz(quiz)
	room.LogActivity(member.User.Name + " generated a group quiz")

	room.BroadcastAll(models.WSFrame{Type: "group_quiz_generated", Data: models.QuizGenerated{
		Quiz:        quiz,
		GeneratedBy: member.User.Name,
	}})
	e.postAIMessage(room, fmt.Sprintf("New group quiz ready: %s. Everyone has personalized questions waiting.",
		quiz.TeamChallenge.Title), "ai_facilitation")
}

// resolveDifficulty maps adaptive difficulty onto a member's mastery of the
// first listed concept; explicit difficulties pass through unchanged.
func resolveDifficulty(difficulty, firstConcept string, mastery map[string]float64) string {
	if difficulty != "adaptive" {
		return difficulty
	}
	if mastery[firstConcept] > adaptiveThreshold {
		return "hard"
	}
	return "medium"
}

// Facilitate produces a structured facilitation payload from the current room
// context and posts a human-readable version into chat.
func (e *Engine) Facilitate(ctx context.Context, c *session.Client, req models.FacilitatorRequest) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	roomID := room.ID

	facReq := ai.FacilitationRequest{
		Action:       req.Action,
		ChatHistory:  room.RecentChat(autoSummaryLastN),
		GroupMastery: room.GroupMastery(),
		Members:      room.Roster(),
	}
	facilitation, err := e.provider.Facilitate(ctx, facReq)
	if err != nil {
		e.log.Warn("facilitation failed, using fallback",
			zap.String("room", roomID), zap.Error(err))
		facilitation, err = e.fallback.Facilitate(ctx, facReq)
		if err != nil {
			e.sendError(c, "failed to generate facilitation", err)
			return
		}
	}

	room, ok = e.registry.Get(roomID)
	if !ok {
		return
	}
	room.LogActivity("AI facilitator provided guidance")

	room.BroadcastAll(models.WSFrame{Type: "ai_facilitator_update", Data: models.FacilitatorUpdate{
		Action:       req.Action,
		Facilitation: facilitation,
	}})
	e.postAIMessage(room, fmt.Sprintf("Suggested focus: %s. %s",
		facilitation.PriorityConcept, facilitation.Reasoning), "ai_facilitation")
}

// AssignRoles cycles the fixed role list across members in roster order. The
// strategy parameter is accepted but does not change the cycling; smarter
// mastery-based assignment needs a product decision first.
func (e *Engine) AssignRoles(ctx context.Context, c *session.Client, req models.AssignRolesRequest) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	roomID := room.ID

	assignments, err := e.provider.AssignRoles(ctx, ai.RoleRequest{
		Strategy:       req.Strategy,
		AvailableRoles: defaultRoles,
		Members:        memberMasteries(room),
	})
	if err != nil {
		e.sendError(c, "failed to assign roles", err)
		return
	}

	room, ok = e.registry.Get(roomID)
	if !ok {
		return
	}
	room.SetRoles(assignments)
	room.LogActivity("team roles assigned")

	room.BroadcastAll(models.WSFrame{Type: "roles_assigned", Data: models.RolesAssigned{
		Roles:    assignments,
		Strategy: req.Strategy,
	}})

	parts := make([]string, 0, len(assignments))
	for _, a := range assignments {
		parts = append(parts, a.UserName+" -> "+a.Role)
	}
	e.postAIMessage(room, "Roles assigned: "+strings.Join(parts, ", "), "ai_facilitation")
}

// SubmitPeerReview broadcasts a review event; it mutates no aggregate state.
func (e *Engine) SubmitPeerReview(c *session.Client, req models.PeerReview) {
	room, ok := e.roomFor(c)
	if !ok {
		return
	}
	member, _ := room.Member(c.ID)

	room.LogActivity(member.User.Name + " submitted a peer review")
	room.BroadcastAll(models.WSFrame{Type: "peer_review_received", Data: models.PeerReviewReceived{
		From:         member.User,
		TargetUserID: req.TargetUserID,
		Review:       req.Review,
		Rating:       req.Rating,
		Timestamp:    time.Now(),
	}})
}
