package ai

import (
	"context"
	"fmt"

	"studyroom/internal/models"
)

// MemberMastery is the per-member context handed to generators.
type MemberMastery struct {
	UserID     string
	UserName   string
	Mastery    map[string]float64
	Difficulty string // resolved question difficulty for this member
}

type QuizRequest struct {
	Concepts   []string
	Difficulty string
	Members    []MemberMastery
}

// QuizContent is the generated body of a quiz; id and timestamps are added by
// the caller.
type QuizContent struct {
	TeamChallenge        models.TeamChallenge
	IndividualQuestions  []models.IndividualQuestions
	CollaborativeProblem models.CollaborativeProblem
}

type FacilitationRequest struct {
	Action       string
	ChatHistory  []models.ChatMessage
	GroupMastery *models.GroupMastery
	Members      []models.Member
}

type RoleRequest struct {
	Strategy       string
	AvailableRoles []string
	Members        []MemberMastery
}

// Provider generates group-learning content. Implementations must be safe for
// concurrent use.
type Provider interface {
	GenerateGroupQuiz(ctx context.Context, req QuizRequest) (QuizContent, error)
	Facilitate(ctx context.Context, req FacilitationRequest) (models.Facilitation, error)
	AssignRoles(ctx context.Context, req RoleRequest) ([]models.RoleAssignment, error)
	Summarize(ctx context.Context, messages []models.ChatMessage) (models.ConversationSummary, error)
	Name() string
}

// ProviderFactory creates a new provider instance.
type ProviderFactory func() (Provider, error)

var providers = make(map[string]ProviderFactory)

// RegisterProvider registers a provider factory with the given name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a provider instance based on the given name.
func NewProvider(name string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return factory()
}
