package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"career-compass/internal/agents"
	"career-compass/internal/models"
	"career-compass/internal/parsing"
	"career-compass/internal/store"
)

type fakeSkills struct {
	out      map[string]any
	err      error
	gotRole  string
	gotSkill []string
}

func (f *fakeSkills) Analyze(_ context.Context, skills []string, targetRole string) (map[string]any, error) {
	f.gotSkill = skills
	f.gotRole = targetRole
	return f.out, f.err
}

type fakeDeep struct {
	out map[string]any
	err error
}

func (f *fakeDeep) AnalyzeDeep(context.Context, string, []models.ResumeChunk) (map[string]any, error) {
	return f.out, f.err
}

type fakeRecommender struct {
	out map[string]any
	err error
	got agents.RecommendInput
}

func (f *fakeRecommender) Recommend(_ context.Context, in agents.RecommendInput) (map[string]any, error) {
	f.got = in
	return f.out, f.err
}

type fakeResources struct {
	out     map[string]any
	err     error
	gotGaps []string
}

func (f *fakeResources) LearningPlan(_ context.Context, gaps, _ []string, _, _ string) (map[string]any, error) {
	f.gotGaps = gaps
	return f.out, f.err
}

const sampleResume = `Jane Doe

Skills
Go, Postgres, Docker

Experience
Backend engineer at Acme Corp
Built event-driven services
`

func newTestPipeline(mem *store.Memory) (*Pipeline, *fakeSkills, *fakeRecommender, *fakeResources) {
	skills := &fakeSkills{out: map[string]any{
		"skill_gaps": []string{"Kubernetes"},
		"strengths":  []string{"Go"},
	}}
	deep := &fakeDeep{out: map[string]any{"seniority": "mid"}}
	recommender := &fakeRecommender{out: map[string]any{
		"recommendations": []any{map[string]any{"career_title": "Platform Engineer"}},
		"summary":         "strong backend profile",
	}}
	resources := &fakeResources{out: map[string]any{"plan": []any{"learn Kubernetes"}}}

	p := NewPipeline(mem, parsing.NewParser(), deep, skills, recommender, resources, zap.NewNop())
	return p, skills, recommender, resources
}

// Drains the queue one tick at a time and asserts the whole chain runs
// through to a completed run.
func TestPipelineDrivesFullChain(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	userID, err := mem.CreateUser(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	resumeID, err := mem.InsertResume(ctx, userID, sampleResume)
	require.NoError(t, err)

	p, skills, recommender, resources := newTestPipeline(mem)
	d := NewDispatcher(mem, zap.NewNop())
	p.Register(d)

	_, err = mem.PublishEvent(ctx, store.PublishEventParams{
		Type:   models.TypeStartCareerRun,
		UserID: &userID,
		Payload: map[string]any{
			"resume_id":   float64(resumeID),
			"target_role": "Platform Engineer",
		},
	})
	require.NoError(t, err)

	total := 0
	for i := 0; i < 10; i++ {
		n, err := d.Tick(ctx, 10, 3)
		require.NoError(t, err)
		total += n
		pending, err := mem.CountPendingEvents(ctx)
		require.NoError(t, err)
		if pending == 0 {
			break
		}
	}
	assert.Equal(t, 5, total, "all five stages complete")

	var types []string
	for _, evt := range mem.Events() {
		types = append(types, evt.Type)
		assert.Equal(t, models.EventCompleted, evt.Status)
	}
	assert.Equal(t, []string{
		models.TypeStartCareerRun,
		models.TypeResumeUploaded,
		models.TypeResumeParsed,
		models.TypeSkillsAnalyzed,
		models.TypeRecommendationsReady,
	}, types)

	// The run state accumulates across stages; later patches win per key.
	runID := mem.Events()[1].RunID
	require.NotNil(t, runID)
	run, err := mem.GetRun(ctx, *runID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, run.Status)
	assert.Equal(t, models.RunCompleted, run.State["status"])
	assert.Equal(t, "Platform Engineer", run.TargetRole)
	assert.Contains(t, run.State, "resume_analysis")
	assert.Contains(t, run.State, "skills_analysis")
	assert.Contains(t, run.State, "recommendations")
	assert.Contains(t, run.State, "learning_resources")

	// Parsed skills flow from the parser through the skills stage.
	assert.Contains(t, skills.gotSkill, "Go")
	assert.Equal(t, "Platform Engineer", skills.gotRole)
	assert.Equal(t, []string{"Kubernetes"}, resources.gotGaps)
	assert.Contains(t, recommender.got.Skills, "Postgres")

	saved := mem.Recommendations(userID)
	require.Len(t, saved, 1)
	assert.Equal(t, "strong backend profile", saved[0]["summary"])

	resume, err := mem.GetResume(ctx, resumeID)
	require.NoError(t, err)
	assert.NotEmpty(t, resume.ParsedSkills)
	chunks, err := mem.GetResumeChunks(ctx, resumeID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestStartCareerRunWithoutResumePublishesNothing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	userID, err := mem.CreateUser(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)

	p, _, _, _ := newTestPipeline(mem)
	d := NewDispatcher(mem, zap.NewNop())
	p.Register(d)

	_, err = mem.PublishEvent(ctx, store.PublishEventParams{
		Type:   models.TypeStartCareerRun,
		UserID: &userID,
	})
	require.NoError(t, err)

	completed, err := d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Len(t, mem.Events(), 1, "a run without a resume waits for an upload")
}

func TestHandleStartCareerRunRequiresUserID(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	p, _, _, _ := newTestPipeline(mem)
	d := NewDispatcher(mem, zap.NewNop())
	p.Register(d)

	id, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: models.TypeStartCareerRun})
	require.NoError(t, err)

	completed, err := d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Zero(t, completed)

	evt, err := mem.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.EventError, evt.Status)
}

func TestHandleResumeUploadedRejectsEmptyResume(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	userID, err := mem.CreateUser(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	resumeID, err := mem.InsertResume(ctx, userID, "")
	require.NoError(t, err)

	p, _, _, _ := newTestPipeline(mem)

	err = p.handleResumeUploaded(ctx, models.Event{
		Type:     models.TypeResumeUploaded,
		UserID:   &userID,
		ResumeID: &resumeID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no raw text")
}

func TestHandleResumeParsedFallsBackToStoredSkills(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	userID, err := mem.CreateUser(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	resumeID, err := mem.InsertResume(ctx, userID, sampleResume)
	require.NoError(t, err)
	require.NoError(t, mem.UpdateResumeParsed(ctx, resumeID, []string{"Go", "Postgres"}, nil, nil))

	p, skills, _, _ := newTestPipeline(mem)

	err = p.handleResumeParsed(ctx, models.Event{
		Type:     models.TypeResumeParsed,
		UserID:   &userID,
		ResumeID: &resumeID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Postgres"}, skills.gotSkill)
}

func TestHandleSkillsAnalyzedSurfacesAgentError(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	userID, err := mem.CreateUser(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	resumeID, err := mem.InsertResume(ctx, userID, sampleResume)
	require.NoError(t, err)

	p, _, recommender, _ := newTestPipeline(mem)
	recommender.err = errors.New("model overloaded")

	err = p.handleSkillsAnalyzed(ctx, models.Event{
		Type:     models.TypeSkillsAnalyzed,
		UserID:   &userID,
		ResumeID: &resumeID,
	})
	require.Error(t, err)
	assert.Empty(t, mem.Recommendations(userID))
}
