package ai

import (
	"context"
	"testing"

	"studyroom/internal/models"
)

func TestStaticQuizPerMemberDifficulty(t *testing.T) {
	p := &StaticProvider{}
	content, err := p.GenerateGroupQuiz(context.Background(), QuizRequest{
		Concepts:   []string{"loops", "functions"},
		Difficulty: "adaptive",
		Members: []MemberMastery{
			{UserID: "u1", UserName: "Alice", Difficulty: "hard"},
			{UserID: "u2", UserName: "Bob", Difficulty: "medium"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(content.IndividualQuestions) != 2 {
		t.Fatalf("expected questions for both members, got %d", len(content.IndividualQuestions))
	}
	for _, iq := range content.IndividualQuestions {
		if len(iq.Questions) != 2 {
			t.Fatalf("expected one question per concept, got %d", len(iq.Questions))
		}
	}
	if got := content.IndividualQuestions[0].Questions[0].Difficulty; got != "hard" {
		t.Fatalf("expected hard question for Alice, got %q", got)
	}
	if got := content.IndividualQuestions[1].Questions[0].Difficulty; got != "medium" {
		t.Fatalf("expected medium question for Bob, got %q", got)
	}
	if content.TeamChallenge.Title == "" || content.CollaborativeProblem.Description == "" {
		t.Fatalf("expected team challenge and collaborative problem")
	}
}

func TestStaticQuizUnknownConceptFallsBack(t *testing.T) {
	p := &StaticProvider{}
	content, err := p.GenerateGroupQuiz(context.Background(), QuizRequest{
		Concepts: []string{"recursion"},
		Members:  []MemberMastery{{UserID: "u1", UserName: "Alice", Difficulty: "medium"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := content.IndividualQuestions[0].Questions[0]
	if q.Question == "" || len(q.Options) != 4 || q.CorrectAnswer == "" {
		t.Fatalf("expected generic generated question, got %#v", q)
	}
}

func TestStaticFacilitatePriorityConcept(t *testing.T) {
	p := &StaticProvider{}
	fac, err := p.Facilitate(context.Background(), FacilitationRequest{
		Members: []models.Member{{User: models.User{ID: "u1"}}},
		GroupMastery: &models.GroupMastery{
			Aggregate: map[string]models.ConceptStats{
				"loops":     {Variance: 0.01},
				"functions": {Variance: 0.09},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fac.PriorityConcept != "functions" {
		t.Fatalf("expected highest-variance concept, got %q", fac.PriorityConcept)
	}
	if len(fac.Summary) == 0 || len(fac.ActionItems) == 0 {
		t.Fatalf("expected summary and action items")
	}
}

func TestStaticFacilitateFallbackConcept(t *testing.T) {
	p := &StaticProvider{}
	fac, err := p.Facilitate(context.Background(), FacilitationRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fac.PriorityConcept != FallbackConcept {
		t.Fatalf("expected fallback concept, got %q", fac.PriorityConcept)
	}
}

func TestStaticAssignRolesCycles(t *testing.T) {
	p := &StaticProvider{}
	members := []MemberMastery{
		{UserID: "u1", UserName: "A"},
		{UserID: "u2", UserName: "B"},
		{UserID: "u3", UserName: "C"},
		{UserID: "u4", UserName: "D"},
		{UserID: "u5", UserName: "E"},
	}
	roles, err := p.AssignRoles(context.Background(), RoleRequest{
		Strategy:       "balanced",
		AvailableRoles: []string{"Driver", "Navigator", "Researcher", "Reviewer"},
		Members:        members,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Driver", "Navigator", "Researcher", "Reviewer", "Driver"}
	for i, w := range want {
		if roles[i].Role != w {
			t.Fatalf("member %d: expected %s, got %s", i, w, roles[i].Role)
		}
		if len(roles[i].Responsibilities) == 0 {
			t.Fatalf("expected responsibilities for role %s", roles[i].Role)
		}
	}
}

func TestStaticAssignRolesIgnoresStrategy(t *testing.T) {
	p := &StaticProvider{}
	members := []MemberMastery{
		{UserID: "u1", UserName: "A", Mastery: map[string]float64{"loops": 0.9}},
		{UserID: "u2", UserName: "B", Mastery: map[string]float64{"loops": 0.1}},
	}

	balanced, _ := p.AssignRoles(context.Background(), RoleRequest{Strategy: "balanced", Members: members})
	strengths, _ := p.AssignRoles(context.Background(), RoleRequest{Strategy: "strengths", Members: members})

	for i := range balanced {
		if balanced[i].Role != strengths[i].Role {
			t.Fatalf("strategy should not change role cycling: %#v vs %#v", balanced, strengths)
		}
	}
}

func TestStaticSummarize(t *testing.T) {
	p := &StaticProvider{}
	messages := []models.ChatMessage{
		{User: models.User{Name: "Alice"}, Message: "closures capture variables from enclosing scopes", Type: "text"},
		{User: models.User{Name: "Bob"}, Message: "closures seem tricky with closures everywhere", Type: "text"},
		{User: models.User{Name: "Bob"}, Message: "ok", Type: "text"},
	}
	summary, err := p.Summarize(context.Background(), messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.KeyPoints) == 0 || len(summary.NextSteps) == 0 {
		t.Fatalf("expected populated summary, got %#v", summary)
	}
}

func TestExtractTopics(t *testing.T) {
	messages := []models.ChatMessage{
		{Message: "closures closures closures", Type: "text"},
		{Message: "recursion recursion", Type: "text"},
		{Message: "short un mot", Type: "text"},
		{Message: "ignored because system", Type: "system"},
	}
	topics := extractTopics(messages)
	if len(topics) != 2 || topics[0] != "closures" || topics[1] != "recursion" {
		t.Fatalf("unexpected topics: %#v", topics)
	}
}

func TestProviderRegistry(t *testing.T) {
	p, err := NewProvider("static")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "static" {
		t.Fatalf("unexpected provider name %q", p.Name())
	}

	if _, err := NewProvider("nope"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
