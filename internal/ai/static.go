package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"studyroom/internal/models"
)

func init() {
	RegisterProvider("static", func() (Provider, error) {
		return &StaticProvider{}, nil
	})
}

// StaticProvider generates deterministic placeholder content. It is the
// default provider and the degradation target when an LLM-backed provider
// fails mid-call.
type StaticProvider struct{}

func (p *StaticProvider) Name() string { return "static" }

var questionTemplates = map[string]map[string]models.Question{
	"easy": {
		"functions": {
			Question: "What is the purpose of a function in programming?",
			Options: []string{
				"To reuse code and organize logic",
				"To store data permanently",
				"To create loops",
				"To define variables",
			},
			CorrectAnswer: "To reuse code and organize logic",
			Explanation:   "Functions allow you to encapsulate reusable logic and call it multiple times.",
		},
		"variables": {
			Question: "What is a variable?",
			Options: []string{
				"A named storage location for data",
				"A type of function",
				"A looping construct",
				"A programming language",
			},
			CorrectAnswer: "A named storage location for data",
			Explanation:   "Variables store data values that can be used and modified in your program.",
		},
		"loops": {
			Question: "What does a loop do?",
			Options: []string{
				"Repeats a block of code multiple times",
				"Stores data",
				"Defines functions",
				"Creates variables",
			},
			CorrectAnswer: "Repeats a block of code multiple times",
			Explanation:   "Loops allow you to execute code repeatedly until a condition is met.",
		},
	},
	"medium": {
		"functions": {
			Question: "What is the difference between parameters and arguments?",
			Options: []string{
				"Parameters are in the definition, arguments are passed when calling",
				"They are the same thing",
				"Arguments are in the definition, parameters are passed when calling",
				"Parameters are only for return values",
			},
			CorrectAnswer: "Parameters are in the definition, arguments are passed when calling",
			Explanation:   "Parameters are variables in the function definition; arguments are the actual values passed.",
		},
		"variables": {
			Question: "What is variable scope?",
			Options: []string{
				"The region where a variable can be accessed",
				"The size of a variable",
				"The type of a variable",
				"The speed of variable access",
			},
			CorrectAnswer: "The region where a variable can be accessed",
			Explanation:   "Scope determines where in the code a variable is visible and accessible.",
		},
		"loops": {
			Question: "What is the difference between 'for' and 'while' loops?",
			Options: []string{
				"'for' is for known iterations, 'while' is for unknown iterations",
				"They are exactly the same",
				"'while' is faster than 'for'",
				"'for' loops can't use conditions",
			},
			CorrectAnswer: "'for' is for known iterations, 'while' is for unknown iterations",
			Explanation:   "Use 'for' when you know how many times to iterate, 'while' when it depends on a condition.",
		},
	},
	"hard": {
		"functions": {
			Question: "What is a closure in programming?",
			Options: []string{
				"A function that captures variables from its outer scope",
				"A way to close files",
				"A type of loop",
				"A way to end programs",
			},
			CorrectAnswer: "A function that captures variables from its outer scope",
			Explanation:   "Closures allow functions to access variables from their enclosing scope even after that scope has finished executing.",
		},
		"variables": {
			Question: "What is the difference between shallow and deep copying?",
			Options: []string{
				"Shallow copies references, deep copies all nested objects",
				"They are the same",
				"Shallow is faster but deep is more secure",
				"Deep copies only work with primitives",
			},
			CorrectAnswer: "Shallow copies references, deep copies all nested objects",
			Explanation:   "Shallow copy creates a new object but references nested objects; deep copy recursively copies everything.",
		},
		"loops": {
			Question: "What is tail recursion optimization?",
			Options: []string{
				"Converting recursive calls into iterations to save stack space",
				"A way to speed up loops",
				"A method to break out of loops early",
				"A technique for nested loops",
			},
			CorrectAnswer: "Converting recursive calls into iterations to save stack space",
			Explanation:   "Tail recursion optimization allows recursive functions to execute without growing the call stack.",
		},
	},
}

var roleResponsibilities = map[string][]string{
	"Driver": {
		"Write the primary code implementation",
		"Execute team's technical decisions",
		"Maintain code quality and style",
	},
	"Navigator": {
		"Guide overall direction and strategy",
		"Suggest approaches and review logic",
		"Help catch errors and edge cases",
	},
	"Researcher": {
		"Find relevant documentation and resources",
		"Research best practices and patterns",
		"Investigate solution alternatives",
	},
	"Reviewer": {
		"Review code quality and correctness",
		"Test solutions thoroughly",
		"Provide constructive feedback",
	},
	"Facilitator": {
		"Coordinate team communication",
		"Ensure everyone participates",
		"Manage time and progress",
	},
}

func generateQuestion(concept, difficulty string) models.Question {
	if q, ok := questionTemplates[difficulty][concept]; ok {
		q.Type = "multiple_choice"
		q.Difficulty = difficulty
		return q
	}
	return models.Question{
		Question: fmt.Sprintf("Which of the following best describes %s?", concept),
		Type:     "multiple_choice",
		Options: []string{
			fmt.Sprintf("Primary characteristic of %s", concept),
			fmt.Sprintf("Secondary characteristic of %s", concept),
			fmt.Sprintf("Alternative approach to %s", concept),
			fmt.Sprintf("Common misconception about %s", concept),
		},
		CorrectAnswer: fmt.Sprintf("Primary characteristic of %s", concept),
		Explanation:   fmt.Sprintf("This question tests your understanding of %s at %s level.", concept, difficulty),
		Difficulty:    difficulty,
	}
}

func (p *StaticProvider) GenerateGroupQuiz(_ context.Context, req QuizRequest) (QuizContent, error) {
	conceptsStr := strings.Join(req.Concepts, ", ")

	individual := make([]models.IndividualQuestions, 0, len(req.Members))
	for _, m := range req.Members {
		difficulty := m.Difficulty
		if difficulty == "" {
			difficulty = req.Difficulty
		}
		questions := make([]models.Question, 0, len(req.Concepts))
		for _, concept := range req.Concepts {
			questions = append(questions, generateQuestion(concept, difficulty))
		}
		individual = append(individual, models.IndividualQuestions{
			MemberID:   m.UserID,
			MemberName: m.UserName,
			Questions:  questions,
		})
	}

	return QuizContent{
		TeamChallenge: models.TeamChallenge{
			Title:       "Team Challenge: " + strings.Join(req.Concepts, " & "),
			Description: fmt.Sprintf("Work together to build a project that demonstrates your understanding of %s. Each team member should contribute based on their assigned role.", conceptsStr),
			SuccessCriteria: []string{
				"All team members contribute to the solution",
				"Code demonstrates mastery of all target concepts",
				"Solution includes proper error handling and edge cases",
				"Team provides clear documentation of approach",
			},
			EstimatedTime: 30,
		},
		IndividualQuestions: individual,
		CollaborativeProblem: models.CollaborativeProblem{
			Description: fmt.Sprintf("Design and implement a solution that integrates %s. The solution should be practical and demonstrate real-world application of these concepts.", conceptsStr),
			Requirements: []string{
				"Must demonstrate all concepts: " + conceptsStr,
				"Include comprehensive test cases",
				"Provide clear code comments and documentation",
				"Consider performance and scalability",
				"Handle edge cases appropriately",
			},
			Hints: []string{
				"Start by breaking down the problem into smaller subtasks",
				"Assign roles based on team member strengths",
				"Review each other's code before integrating",
				"Test individual components before full integration",
				"Discuss edge cases as a team",
			},
		},
	}, nil
}

// FallbackConcept is used when no aggregate mastery exists yet.
const FallbackConcept = "fundamental concepts"

func (p *StaticProvider) Facilitate(_ context.Context, req FacilitationRequest) (models.Facilitation, error) {
	topics := extractTopics(req.ChatHistory)

	// The concept with the widest mastery spread gets priority.
	priority := FallbackConcept
	maxVariance := -1.0
	if req.GroupMastery != nil {
		concepts := make([]string, 0, len(req.GroupMastery.Aggregate))
		for c := range req.GroupMastery.Aggregate {
			concepts = append(concepts, c)
		}
		sort.Strings(concepts)
		for _, c := range concepts {
			if stats := req.GroupMastery.Aggregate[c]; stats.Variance > maxVariance {
				maxVariance = stats.Variance
				priority = c
			}
		}
	}
	if maxVariance < 0 {
		maxVariance = 0
	}

	topicLine := "getting started"
	if len(topics) > 0 {
		n := len(topics)
		if n > 3 {
			n = 3
		}
		topicLine = strings.Join(topics[:n], ", ")
	}

	return models.Facilitation{
		Summary: []string{
			fmt.Sprintf("Team of %d members actively collaborating", len(req.Members)),
			fmt.Sprintf("Discussion includes %d key topics: %s", len(topics), topicLine),
			fmt.Sprintf("Total messages exchanged: %d", len(req.ChatHistory)),
			"Group showing good engagement and participation",
		},
		RecommendedNextSteps: []string{
			"Review the priority concept together before starting exercises",
			"Try the collaborative coding challenge as a team",
			"Each member complete personalized questions to assess understanding",
			"Share insights and learning strategies with the group",
		},
		PriorityConcept: priority,
		Reasoning:       fmt.Sprintf("This concept shows the most variance (%.2f) in team mastery levels, suggesting it needs focused attention", maxVariance),
		ActionItems: []models.ActionItem{
			{Task: "Complete individual assessment questions", Reason: "Establish baseline understanding for each member"},
			{Task: "Collaborate on team challenge", Reason: "Practice working together and applying concepts"},
			{Task: "Peer review and feedback session", Reason: "Learn from each other's approaches and solutions"},
		},
	}, nil
}

func (p *StaticProvider) AssignRoles(_ context.Context, req RoleRequest) ([]models.RoleAssignment, error) {
	roles := req.AvailableRoles
	if len(roles) == 0 {
		roles = []string{"Driver", "Navigator", "Researcher", "Reviewer"}
	}

	out := make([]models.RoleAssignment, 0, len(req.Members))
	for i, m := range req.Members {
		role := roles[i%len(roles)]
		avg := 0.5
		if len(m.Mastery) > 0 {
			sum := 0.0
			for _, v := range m.Mastery {
				sum += v
			}
			avg = sum / float64(len(m.Mastery))
		}
		out = append(out, models.RoleAssignment{
			UserID:           m.UserID,
			UserName:         m.UserName,
			Role:             role,
			Reason:           fmt.Sprintf("Balanced distribution ensuring diverse perspectives (mastery: %.2f)", avg),
			Responsibilities: roleResponsibilities[role],
		})
	}
	return out, nil
}

func (p *StaticProvider) Summarize(_ context.Context, messages []models.ChatMessage) (models.ConversationSummary, error) {
	participants := make(map[string]struct{})
	for _, msg := range messages {
		participants[msg.User.Name] = struct{}{}
	}
	topics := extractTopics(messages)

	topicLine := "general discussion"
	if len(topics) > 0 {
		topicLine = strings.Join(topics, ", ")
	}

	return models.ConversationSummary{
		KeyPoints: []string{
			fmt.Sprintf("%d participants actively engaged", len(participants)),
			fmt.Sprintf("%d messages in recent conversation", len(messages)),
			"Main topics: " + topicLine,
		},
		Decisions: []string{
			"Team agreed to focus on priority concepts",
			"Members will complete individual exercises first",
		},
		Questions: []string{
			"What's the best approach for handling edge cases?",
			"Should we optimize for performance or readability?",
			"How do we integrate individual solutions?",
		},
		NextSteps: []string{
			"Complete individual assessment questions",
			"Reconvene to discuss findings",
			"Begin collaborative challenge as a team",
		},
	}, nil
}

// extractTopics ranks words longer than five characters by frequency and
// returns the top five.
func extractTopics(messages []models.ChatMessage) []string {
	freq := make(map[string]int)
	for _, msg := range messages {
		if msg.Type != "text" {
			continue
		}
		for _, word := range strings.Fields(strings.ToLower(msg.Message)) {
			if len(word) > 5 {
				freq[word]++
			}
		}
	}
	if len(freq) == 0 {
		return nil
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] == freq[words[j]] {
			return words[i] < words[j]
		}
		return freq[words[i]] > freq[words[j]]
	})
	if len(words) > 5 {
		words = words[:5]
	}
	return words
}
