package agents

import (
	"context"
	"fmt"
	"strings"

	"career-compass/internal/llm"
	"career-compass/internal/models"
)

// ResumeAnalyzer performs deep analysis over already-parsed resume sections.
type ResumeAnalyzer struct {
	llm llm.Client
}

func NewResumeAnalyzer(client llm.Client) *ResumeAnalyzer {
	return &ResumeAnalyzer{llm: client}
}

const (
	maxSectionsInPrompt = 5
	maxSectionContent   = 800
)

// AnalyzeDeep extracts competencies, progression patterns, and improvement
// actions from the resume's sectioned chunks.
func (a *ResumeAnalyzer) AnalyzeDeep(ctx context.Context, rawText string, sections []models.ResumeChunk) (map[string]any, error) {
	// Keep the prompt compact: cap section count and content length.
	if len(sections) > maxSectionsInPrompt {
		sections = sections[:maxSectionsInPrompt]
	}
	var blocks []string
	for _, sec := range sections {
		content := sec.Content
		if runes := []rune(content); len(runes) > maxSectionContent {
			content = string(runes[:maxSectionContent])
		}
		blocks = append(blocks, fmt.Sprintf("Section: %s\nSummary: %s\nContent (truncated): %s", sec.Section, sec.Summary, content))
	}

	prompt := fmt.Sprintf(`Analyze this resume in depth and return ONLY valid JSON with:
- core_competencies (technical and soft skills)
- career_progression_pattern
- leadership_qualities
- unique_value_proposition
- potential_career_pivots (3-5)
- strengths_to_leverage
- areas_for_development
- actionable_resume_improvements (bullet list)

Resume context:
%s`, strings.Join(blocks, "\n\n"))

	text, err := a.llm.GenerateJSON(ctx, resumeAnalyzerSystemPrompt, prompt, 0.6)
	if err != nil {
		return nil, fmt.Errorf("deep resume analysis: %w", err)
	}
	return decodeObject(text)
}
