package agents

import (
	"context"
	"fmt"

	"career-compass/internal/llm"
)

// CareerMatcher matches profiles to career paths and builds transition
// roadmaps between two specific roles.
type CareerMatcher struct {
	llm llm.Client
}

func NewCareerMatcher(client llm.Client) *CareerMatcher {
	return &CareerMatcher{llm: client}
}

// MatchInput is the full profile used for broad career matching.
type MatchInput struct {
	Skills            []string
	ExperienceSummary string
	CurrentRole       string
	Interests         []string
	Education         string
}

// Match recommends 5-7 career paths spanning direct transitions, stretch
// roles, and pivots, each with a match score and first steps.
func (a *CareerMatcher) Match(ctx context.Context, in MatchInput) (map[string]any, error) {
	prompt := fmt.Sprintf(`Analyze this professional profile and recommend career matches:

**Current Role:** %s

**Skills:**
%s

**Experience:**
%s

**Education:** %s

**Interests:** %s

Provide 5-7 career path recommendations, ranging from:
- Direct transitions (high compatibility)
- Stretch roles (moderate effort required)
- Career pivots (significant transition required)

For each career, provide a match score (0-100), why it fits, transferable
skills, skills gaps, a typical transition timeline, salary range expectations,
job market demand (Hot/Warm/Cool), and the first 3 steps to pursue it.

Return as JSON:
{
  "profile_summary": "Brief assessment of the candidate's profile",
  "career_matches": [
    {
      "title": "Career Title",
      "match_score": 85,
      "match_type": "direct|stretch|pivot",
      "match_reason": "Why this career fits",
      "transferable_skills": ["skill1", "skill2"],
      "skills_to_acquire": ["skill1", "skill2"],
      "transition_timeline": "X-Y months",
      "salary_range": {"entry": "$X-$Y", "mid": "$X-$Y", "senior": "$X-$Y"},
      "job_market_demand": "Hot|Warm|Cool",
      "first_steps": [
        {"step": 1, "action": "What to do", "timeline": "When"}
      ]
    }
  ],
  "recommended_focus": "Which 2-3 careers to prioritize and why",
  "quick_wins": ["Immediate actions that apply to multiple career paths"],
  "skills_with_highest_roi": ["Skills that unlock the most opportunities"]
}`,
		orText(in.CurrentRole, "Not specified"),
		joinOr(in.Skills, "Not specified"),
		orText(in.ExperienceSummary, "Not provided"),
		orText(in.Education, "Not specified"),
		joinOr(in.Interests, "Open to exploration"))

	text, err := a.llm.GenerateJSON(ctx, careerMatcherSystemPrompt, prompt, 0.6)
	if err != nil {
		return nil, fmt.Errorf("career matching: %w", err)
	}
	return decodeObject(text)
}

// TransitionRoadmap builds a month-by-month plan between two roles.
func (a *CareerMatcher) TransitionRoadmap(ctx context.Context, currentRole, targetRole string, currentSkills []string, timeline string) (map[string]any, error) {
	if timeline == "" {
		timeline = "6-12 months"
	}
	prompt := fmt.Sprintf(`Create a detailed transition roadmap:

**From:** %s
**To:** %s
**Timeline:** %s
**Current Skills:** %s

Provide a month-by-month action plan including skills to learn (in order),
resources to use, projects to build, networking actions, application
strategy, and interview preparation.

Return as JSON:
{
  "transition_summary": "Overview of the transition",
  "feasibility_score": 85,
  "monthly_plan": [
    {
      "month": 1,
      "theme": "Phase theme",
      "goals": ["goal1", "goal2"],
      "actions": [
        {"action": "What to do", "time_commitment": "X hours/week", "resources": ["resource1"]}
      ],
      "milestones": ["What success looks like"]
    }
  ],
  "critical_skills": ["Most important skills to acquire"],
  "portfolio_projects": [
    {"name": "project name", "description": "what to build", "skills_demonstrated": ["skill1"]}
  ],
  "networking_strategy": "How to build connections in target field",
  "common_pitfalls": ["What to avoid"],
  "success_indicators": ["How to know you're on track"]
}`, currentRole, targetRole, timeline, joinOr(currentSkills, "Not specified"))

	text, err := a.llm.GenerateJSON(ctx, careerMatcherSystemPrompt, prompt, 0.5)
	if err != nil {
		return nil, fmt.Errorf("transition roadmap: %w", err)
	}
	return decodeObject(text)
}

func orText(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
