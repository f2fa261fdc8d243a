package agents

import (
	"context"
	"fmt"

	"career-compass/internal/llm"
)

// ResourcesAgent recommends concrete learning resources for skill gaps.
type ResourcesAgent struct {
	llm llm.Client
}

func NewResourcesAgent(client llm.Client) *ResourcesAgent {
	return &ResourcesAgent{llm: client}
}

// LearningPlan builds a categorized learning plan for the given gaps.
// timeCommitment is low, medium, or high.
func (a *ResourcesAgent) LearningPlan(ctx context.Context, gaps, currentSkills []string, targetRole, timeCommitment string) (map[string]any, error) {
	if timeCommitment == "" {
		timeCommitment = "medium"
	}
	prompt := fmt.Sprintf(`Generate a comprehensive learning plan for the following:

**Skills to Develop:**
%s

**Current Skills (for context):**
%s

**Target Role:** %s

**Time Commitment:** %s (affects resource recommendations)

For each skill to develop, provide free resources, premium courses with
specific course names, books, hands-on project ideas, estimated time to
proficiency, and recommended certifications where applicable.

Return as JSON:
{
  "learning_plan": [
    {
      "skill": "skill_name",
      "priority": "High|Medium|Low",
      "estimated_time": "X weeks/months",
      "resources": {
        "free": [{"name": "resource_name", "url": "url_or_description", "type": "video|article|docs|tutorial", "description": "brief description"}],
        "premium": [{"name": "course_name", "platform": "platform_name", "price_range": "$X-$Y", "description": "brief description"}],
        "books": [{"title": "book_title", "author": "author_name", "description": "why this book"}],
        "projects": [{"name": "project_idea", "difficulty": "beginner|intermediate|advanced", "description": "what you'll build"}],
        "certifications": [{"name": "cert_name", "issuer": "issuer", "value": "why it matters"}]
      }
    }
  ],
  "recommended_learning_path": [
    {"order": 1, "skill": "skill_name", "duration": "X weeks", "reason": "why learn this first"}
  ],
  "quick_wins": ["skill or resource for immediate progress"],
  "summary": "Overall learning strategy summary"
}`,
		joinOr(gaps, "general career development"),
		joinOr(currentSkills, "not specified"),
		orText(targetRole, "General career advancement"),
		timeCommitment)

	text, err := a.llm.GenerateJSON(ctx, resourcesSystemPrompt, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("learning resources: %w", err)
	}
	return decodeObject(text)
}
