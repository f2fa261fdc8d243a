package agents

import (
	"context"
	"fmt"
	"strings"

	"career-compass/internal/llm"
	"career-compass/internal/models"
)

// Recommender generates personalized career path recommendations.
type Recommender struct {
	llm llm.Client
}

func NewRecommender(client llm.Client) *Recommender {
	return &Recommender{llm: client}
}

// RecommendInput is the profile context the recommender reasons over.
type RecommendInput struct {
	Skills      []string
	Experience  []string
	Chunks      []models.ResumeChunk
	Interests   string
	CurrentRole string
}

// Recommend returns 3-5 career paths with fit reasoning, existing skills,
// gaps, and transition difficulty.
func (a *Recommender) Recommend(ctx context.Context, in RecommendInput) (map[string]any, error) {
	var sections []string
	for _, ch := range in.Chunks {
		summary := ch.Summary
		if summary == "" {
			summary = ch.Content
		}
		sections = append(sections, fmt.Sprintf("- %s: %s", ch.Section, summary))
	}
	sectionsBlock := "None"
	if len(sections) > 0 {
		sectionsBlock = strings.Join(sections, "\n")
	}
	interests := in.Interests
	if interests == "" {
		interests = "Not specified"
	}
	role := in.CurrentRole
	if role == "" {
		role = "Not specified"
	}

	prompt := fmt.Sprintf(`Candidate profile:

Current role: %s

Skills:
%s

Experience:
%s

Resume sections:
%s

Interests: %s

Based on this background, provide:
1. Top 3-5 career paths that would be a good fit
2. For each path, explain why it's a good match
3. Key skills they already have for each path
4. Skills they need to develop for each path
5. Estimated transition difficulty (Easy/Medium/Hard)

Format your response as JSON with this structure:
{
  "recommendations": [
    {
      "career_title": "Career Name",
      "match_reason": "Why this is a good fit",
      "existing_skills": ["skill1", "skill2"],
      "skills_to_develop": ["skill1", "skill2"],
      "difficulty": "Medium",
      "salary_range": "Estimated range if known"
    }
  ],
  "summary": "Overall assessment and advice"
}`, role, bulletList(in.Skills), bulletList(in.Experience), sectionsBlock, interests)

	text, err := a.llm.GenerateJSON(ctx, recommenderSystemPrompt, prompt, 0.6)
	if err != nil {
		return nil, fmt.Errorf("career recommendations: %w", err)
	}
	return decodeObject(text)
}
