package models

import "time"

// User is the identity behind one or more connections.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Member is a connection's participation record within a room.
type Member struct {
	ConnectionID string    `json:"connectionId"`
	User         User      `json:"user"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastActivity time.Time `json:"lastActivity"`
	Role         string    `json:"role,omitempty"`
}

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Message   string    `json:"message"`
	Type      string    `json:"type"` // "text","ai_facilitation","system"
	Timestamp time.Time `json:"timestamp"`
	Reactions []string  `json:"reactions"`
}

type CursorPosition struct {
	Position  int    `json:"position"`
	Selection string `json:"selection,omitempty"`
}

// SharedState is the room's single mutable document, last-write-wins.
type SharedState struct {
	CurrentConcept  string                    `json:"currentConcept"`
	Code            string                    `json:"code"`
	Notes           string                    `json:"notes"`
	CursorPositions map[string]CursorPosition `json:"cursorPositions"`
}

// ConceptStats are per-concept aggregate statistics across room members.
type ConceptStats struct {
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Variance float64 `json:"variance"`
}

type GroupMastery struct {
	Individual map[string]map[string]float64 `json:"individual"`
	Aggregate  map[string]ConceptStats       `json:"aggregate"`
	UpdatedAt  time.Time                     `json:"updatedAt"`
}

type ActivityEntry struct {
	ID        string    `json:"id"`
	Activity  string    `json:"activity"`
	Timestamp time.Time `json:"timestamp"`
}

/*** Quiz payloads (shape supplied by the generation collaborator) ***/

type Question struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

type IndividualQuestions struct {
	MemberID   string     `json:"memberId"`
	MemberName string     `json:"memberName"`
	Questions  []Question `json:"questions"`
}

type TeamChallenge struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	SuccessCriteria []string `json:"successCriteria"`
	EstimatedTime   int      `json:"estimatedTime"`
}

type CollaborativeProblem struct {
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Hints        []string `json:"hints"`
}

type Quiz struct {
	ID                   string                `json:"id"`
	TeamChallenge        TeamChallenge         `json:"teamChallenge"`
	IndividualQuestions  []IndividualQuestions `json:"individualQuestions"`
	CollaborativeProblem CollaborativeProblem  `json:"collaborativeProblem"`
	CreatedAt            time.Time             `json:"createdAt"`
}

/*** Facilitation / role payloads ***/

type ActionItem struct {
	Task       string `json:"task"`
	AssignedTo string `json:"assignedTo,omitempty"`
	Reason     string `json:"reason"`
}

type Facilitation struct {
	Summary              []string     `json:"summary"`
	RecommendedNextSteps []string     `json:"recommendedNextSteps"`
	PriorityConcept      string       `json:"priorityConcept"`
	Reasoning            string       `json:"reasoning"`
	ActionItems          []ActionItem `json:"actionItems"`
}

type RoleAssignment struct {
	UserID           string   `json:"userId"`
	UserName         string   `json:"userName"`
	Role             string   `json:"role"`
	Reason           string   `json:"reason"`
	Responsibilities []string `json:"responsibilities"`
}

type ConversationSummary struct {
	KeyPoints []string `json:"keyPoints"`
	Decisions []string `json:"decisions"`
	Questions []string `json:"questions"`
	NextSteps []string `json:"nextSteps"`
}

// RoomSummary is the management-API view of a room.
type RoomSummary struct {
	ID            string    `json:"id"`
	MemberCount   int       `json:"memberCount"`
	CreatedAt     time.Time `json:"createdAt"`
	ActivityCount int       `json:"activityCount"`
}

/*** WebSocket protocol ***/

type WSFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type LearningPath struct {
	CurrentConcept string `json:"currentConcept"`
}

type JoinRoomRequest struct {
	RoomID       string       `json:"roomId"`
	User         User         `json:"user"`
	LearningPath LearningPath `json:"learningPath"`
	Token        string       `json:"token,omitempty"`
}

type RoomChat struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type SharedCursor struct {
	Position  int    `json:"position"`
	Selection string `json:"selection,omitempty"`
}

type CodeEdit struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursorPosition,omitempty"`
}

type NotesEdit struct {
	Notes string `json:"notes"`
}

type GenerateGroupQuiz struct {
	Concepts   []string `json:"concepts"`
	Difficulty string   `json:"difficulty"`
}

type FacilitatorRequest struct {
	Action string `json:"action"`
}

type AssignRolesRequest struct {
	Strategy string `json:"strategy"`
}

type SummaryRequest struct {
	LastN int `json:"lastN"`
}

type PeerReview struct {
	TargetUserID string `json:"targetUserId"`
	Review       string `json:"review"`
	Rating       int    `json:"rating"`
}

/*** Server -> client payloads ***/

type MemberJoined struct {
	User         User          `json:"user"`
	Members      []Member      `json:"members"`
	GroupMastery *GroupMastery `json:"groupMastery,omitempty"`
}

type MemberLeft struct {
	User    User     `json:"user"`
	Members []Member `json:"members"`
}

type RoomState struct {
	RoomID       string            `json:"roomId"`
	SharedState  SharedState       `json:"sharedState"`
	ChatHistory  []ChatMessage     `json:"chatHistory"`
	Members      []Member          `json:"members"`
	Roles        map[string]string `json:"roles"`
	GroupMastery *GroupMastery     `json:"groupMastery,omitempty"`
	Quizzes      []Quiz            `json:"quizzes"`
}

type CodeUpdate struct {
	Code      string    `json:"code"`
	EditedBy  string    `json:"editedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type NotesBroadcast struct {
	Notes     string    `json:"notes"`
	EditedBy  string    `json:"editedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type CursorUpdate struct {
	UserID    string `json:"userId"`
	Position  int    `json:"position"`
	Selection string `json:"selection,omitempty"`
}

type QuizGenerated struct {
	Quiz        Quiz   `json:"quiz"`
	GeneratedBy string `json:"generatedBy"`
}

type FacilitatorUpdate struct {
	Action       string       `json:"action"`
	Facilitation Facilitation `json:"facilitation"`
}

type RolesAssigned struct {
	Roles    []RoleAssignment `json:"roles"`
	Strategy string           `json:"strategy"`
}

type SummaryBroadcast struct {
	Summary     ConversationSummary `json:"summary"`
	MessageSpan int                 `json:"messageSpan"`
}

type PeerReviewReceived struct {
	From         User      `json:"from"`
	TargetUserID string    `json:"targetUserId"`
	Review       string    `json:"review"`
	Rating       int       `json:"rating"`
	Timestamp    time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// SessionEndedEvent is published when an expired room is removed.
type SessionEndedEvent struct {
	RoomID       string    `json:"roomId"`
	CreatedAt    time.Time `json:"createdAt"`
	EndedAt      time.Time `json:"endedAt"`
	MessageCount int       `json:"messageCount"`
	QuizCount    int       `json:"quizCount"`
	DurationSec  int       `json:"durationSeconds"`
}
