package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-compass/internal/models"
)

type fakeLLM struct {
	response  string
	err       error
	gotSystem string
	gotPrompt string
	gotTemp   float32
}

func (f *fakeLLM) GenerateJSON(_ context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	f.gotSystem = systemPrompt
	f.gotPrompt = userPrompt
	f.gotTemp = temperature
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

func TestSkillsAnalyzerTargetRoleShapesPrompt(t *testing.T) {
	client := &fakeLLM{response: `{"skill_gaps": ["Kubernetes"]}`}
	a := NewSkillsAnalyzer(client)

	out, err := a.Analyze(context.Background(), []string{"Go", "Postgres"}, "Platform Engineer")
	require.NoError(t, err)

	assert.Contains(t, client.gotPrompt, "Platform Engineer")
	assert.Contains(t, client.gotPrompt, "Go, Postgres")
	assert.Equal(t, float32(0.5), client.gotTemp)
	assert.Equal(t, []any{"Kubernetes"}, out["skill_gaps"])
}

func TestSkillsAnalyzerWithoutTargetRole(t *testing.T) {
	client := &fakeLLM{response: `{"core_technical_skills": []}`}
	a := NewSkillsAnalyzer(client)

	_, err := a.Analyze(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Contains(t, client.gotPrompt, "none listed")
	assert.NotContains(t, client.gotPrompt, "target role")
}

func TestSkillsAnalyzerTolerantOfFencedJSON(t *testing.T) {
	client := &fakeLLM{response: "```json\n{\"skill_gaps\": []}\n```"}
	a := NewSkillsAnalyzer(client)

	out, err := a.Analyze(context.Background(), []string{"Go"}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "skill_gaps")
}

func TestSkillsAnalyzerMalformedResponse(t *testing.T) {
	client := &fakeLLM{response: "I cannot answer in JSON, sorry."}
	a := NewSkillsAnalyzer(client)

	_, err := a.Analyze(context.Background(), []string{"Go"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed JSON from model")
}

func TestSkillsAnalyzerPropagatesClientError(t *testing.T) {
	boom := errors.New("rate limited")
	a := NewSkillsAnalyzer(&fakeLLM{err: boom})

	_, err := a.Analyze(context.Background(), []string{"Go"}, "")
	assert.ErrorIs(t, err, boom)
}

func TestRecommenderBuildsProfilePrompt(t *testing.T) {
	client := &fakeLLM{response: `{"recommendations": [], "summary": "ok"}`}
	a := NewRecommender(client)

	out, err := a.Recommend(context.Background(), RecommendInput{
		Skills:      []string{"Go", "Postgres"},
		Experience:  []string{"Backend engineer at Acme"},
		CurrentRole: "Software Engineer",
		Chunks: []models.ResumeChunk{
			{Section: "Skills", Content: "Go, Postgres", Summary: "Go, Postgres"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out["summary"])

	assert.Contains(t, client.gotPrompt, "Software Engineer")
	assert.Contains(t, client.gotPrompt, "- Go")
	assert.Contains(t, client.gotPrompt, "Backend engineer at Acme")
	assert.Contains(t, client.gotPrompt, "- Skills: Go, Postgres")
	assert.Contains(t, client.gotPrompt, "Interests: Not specified")
}

func TestResumeAnalyzerCapsSectionContent(t *testing.T) {
	client := &fakeLLM{response: `{"seniority": "senior"}`}
	a := NewResumeAnalyzer(client)

	long := make([]rune, 2000)
	for i := range long {
		long[i] = 'x'
	}
	chunks := []models.ResumeChunk{
		{Section: "Experience", Content: string(long)},
	}

	_, err := a.AnalyzeDeep(context.Background(), "raw text", chunks)
	require.NoError(t, err)
	assert.Less(t, len(client.gotPrompt), 1600, "section content is truncated before prompting")
}

func TestResourcesAgentDefaultsTimeCommitment(t *testing.T) {
	client := &fakeLLM{response: `{"plan": []}`}
	a := NewResourcesAgent(client)

	_, err := a.LearningPlan(context.Background(), []string{"Kubernetes"}, []string{"Go"}, "Platform Engineer", "")
	require.NoError(t, err)
	assert.Contains(t, client.gotPrompt, "Kubernetes")
	assert.Contains(t, client.gotPrompt, "medium")
	assert.Equal(t, float32(0.7), client.gotTemp)
}

func TestCareerMatcherRoadmap(t *testing.T) {
	client := &fakeLLM{response: `{"roadmap": []}`}
	a := NewCareerMatcher(client)

	out, err := a.TransitionRoadmap(context.Background(), "Software Engineer", "Engineering Manager", []string{"Go"}, "12 months")
	require.NoError(t, err)
	assert.Contains(t, out, "roadmap")
	assert.Contains(t, client.gotPrompt, "Engineering Manager")
	assert.Contains(t, client.gotPrompt, "12 months")
}
