package agents

import (
	"context"
	"fmt"

	"career-compass/internal/llm"
)

// SkillsAnalyzer identifies skill gaps and learning paths.
type SkillsAnalyzer struct {
	llm llm.Client
}

func NewSkillsAnalyzer(client llm.Client) *SkillsAnalyzer {
	return &SkillsAnalyzer{llm: client}
}

// Analyze assesses a skill set, against a target role when one is given.
func (a *SkillsAnalyzer) Analyze(ctx context.Context, skills []string, targetRole string) (map[string]any, error) {
	skillsText := joinOr(skills, "none listed")

	var prompt string
	if targetRole != "" {
		prompt = fmt.Sprintf(`Analyze these skills for someone targeting a %s role:
%s

Provide:
1. Transferable skills that apply to %s
2. Skills gaps that need to be filled
3. Prioritized learning path (what to learn first)
4. Estimated timeframe for skill acquisition
5. Specific resources (courses, projects, certifications)

Return as JSON:
{
  "transferable_skills": ["skill1", "skill2"],
  "skill_gaps": ["gap1", "gap2"],
  "learning_path": [
    {"skill": "skill_name", "priority": "High|Medium|Low", "timeframe": "X weeks/months"}
  ],
  "recommended_resources": [
    {"skill": "skill_name", "resources": ["resource1", "resource2"]}
  ],
  "overall_readiness": "string describing readiness for target role"
}`, targetRole, skillsText, targetRole)
	} else {
		prompt = fmt.Sprintf(`Analyze these skills:
%s

Return as JSON with:
- core_technical_skills
- soft_skills
- leadership_skills
- standout_skills
- skills_to_strengthen
- potential_career_directions`, skillsText)
	}

	text, err := a.llm.GenerateJSON(ctx, skillsAnalyzerSystemPrompt, prompt, 0.5)
	if err != nil {
		return nil, fmt.Errorf("skills analysis: %w", err)
	}
	return decodeObject(text)
}
