package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"studyroom/internal/ai"
	"studyroom/internal/models"
)

// Client is a Gemini-backed content provider. Role assignment stays
// deterministic (round-robin) and is delegated to the static provider so the
// roster cycling behavior is identical across providers.
type Client struct {
	client *genai.Client
	config *Config
	static *ai.StaticProvider
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client: client,
		config: config,
		static: &ai.StaticProvider{},
	}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return fmt.Errorf("failed to generate content: %w", err)
	}
	if result == nil {
		return fmt.Errorf("no response generated")
	}

	text, err := result.Text()
	if err != nil {
		return fmt.Errorf("failed to extract response text: %w", err)
	}

	// Strip markdown fencing the model sometimes wraps JSON in.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), out); err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}
	return nil
}

func (c *Client) GenerateGroupQuiz(ctx context.Context, req ai.QuizRequest) (ai.QuizContent, error) {
	members := make([]string, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, fmt.Sprintf("%s (id %s, difficulty %s)", m.UserName, m.UserID, m.Difficulty))
	}

	prompt := fmt.Sprintf(`You are generating a group study quiz for a team of learners.
Concepts: %s
Members: %s
Respond with ONLY a JSON object with fields "teamChallenge" {"title","description","successCriteria","estimatedTime"},
"individualQuestions" [{"memberId","memberName","questions":[{"question","type","options","correctAnswer","explanation","difficulty"}]}],
and "collaborativeProblem" {"description","requirements","hints"}.
Each member gets one multiple_choice question per concept at their listed difficulty.`,
		strings.Join(req.Concepts, ", "), strings.Join(members, "; "))

	var out struct {
		TeamChallenge        models.TeamChallenge         `json:"teamChallenge"`
		IndividualQuestions  []models.IndividualQuestions `json:"individualQuestions"`
		CollaborativeProblem models.CollaborativeProblem  `json:"collaborativeProblem"`
	}
	if err := c.generateJSON(ctx, prompt, &out); err != nil {
		return ai.QuizContent{}, err
	}
	return ai.QuizContent{
		TeamChallenge:        out.TeamChallenge,
		IndividualQuestions:  out.IndividualQuestions,
		CollaborativeProblem: out.CollaborativeProblem,
	}, nil
}

func (c *Client) Facilitate(ctx context.Context, req ai.FacilitationRequest) (models.Facilitation, error) {
	history := make([]string, 0, len(req.ChatHistory))
	for _, msg := range req.ChatHistory {
		history = append(history, msg.User.Name+": "+msg.Message)
	}
	masteryJSON := "{}"
	if req.GroupMastery != nil {
		if b, err := json.Marshal(req.GroupMastery.Aggregate); err == nil {
			masteryJSON = string(b)
		}
	}

	prompt := fmt.Sprintf(`You are facilitating a group study session (%d members, action %q).
Recent chat:
%s
Aggregate mastery per concept: %s
Respond with ONLY a JSON object: {"summary":[],"recommendedNextSteps":[],"priorityConcept":"","reasoning":"","actionItems":[{"task","assignedTo","reason"}]}.
Pick the priority concept with the highest mastery variance.`,
		len(req.Members), req.Action, strings.Join(history, "\n"), masteryJSON)

	var out models.Facilitation
	if err := c.generateJSON(ctx, prompt, &out); err != nil {
		return models.Facilitation{}, err
	}
	if out.PriorityConcept == "" {
		out.PriorityConcept = ai.FallbackConcept
	}
	return out, nil
}

func (c *Client) AssignRoles(ctx context.Context, req ai.RoleRequest) ([]models.RoleAssignment, error) {
	return c.static.AssignRoles(ctx, req)
}

func (c *Client) Summarize(ctx context.Context, messages []models.ChatMessage) (models.ConversationSummary, error) {
	history := make([]string, 0, len(messages))
	for _, msg := range messages {
		history = append(history, msg.User.Name+": "+msg.Message)
	}

	prompt := fmt.Sprintf(`Summarize this study-group conversation.
%s
Respond with ONLY a JSON object: {"keyPoints":[],"decisions":[],"questions":[],"nextSteps":[]}.`,
		strings.Join(history, "\n"))

	var out models.ConversationSummary
	if err := c.generateJSON(ctx, prompt, &out); err != nil {
		return models.ConversationSummary{}, err
	}
	return out, nil
}
