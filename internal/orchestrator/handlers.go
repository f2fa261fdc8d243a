package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"career-compass/internal/agents"
	"career-compass/internal/models"
	"career-compass/internal/parsing"
	"career-compass/internal/store"
	"career-compass/internal/telemetry"
)

// Agent adapter contracts as the pipeline consumes them. The concrete
// adapters live in internal/agents; tests substitute fakes.
type (
	SkillsAgent interface {
		Analyze(ctx context.Context, skills []string, targetRole string) (map[string]any, error)
	}
	DeepAnalysisAgent interface {
		AnalyzeDeep(ctx context.Context, rawText string, sections []models.ResumeChunk) (map[string]any, error)
	}
	RecommendationAgent interface {
		Recommend(ctx context.Context, in agents.RecommendInput) (map[string]any, error)
	}
	ResourcesAgent interface {
		LearningPlan(ctx context.Context, gaps, currentSkills []string, targetRole, timeCommitment string) (map[string]any, error)
	}
	ResumeParser interface {
		Parse(rawText string) parsing.Parsed
	}
)

// Pipeline owns the career analysis handlers and chains them: each stage
// patches the run state and publishes the next stage's event.
type Pipeline struct {
	store       Store
	parser      ResumeParser
	analyzer    DeepAnalysisAgent
	skills      SkillsAgent
	recommender RecommendationAgent
	resources   ResourcesAgent
	log         *zap.Logger
}

func NewPipeline(st Store, parser ResumeParser, analyzer DeepAnalysisAgent, skills SkillsAgent, recommender RecommendationAgent, resources ResourcesAgent, log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:       st,
		parser:      parser,
		analyzer:    analyzer,
		skills:      skills,
		recommender: recommender,
		resources:   resources,
		log:         log,
	}
}

// Register binds every pipeline stage to its event type.
func (p *Pipeline) Register(d *Dispatcher) {
	d.RegisterHandler(models.TypeStartCareerRun, p.handleStartCareerRun)
	d.RegisterHandler(models.TypeResumeUploaded, p.handleResumeUploaded)
	d.RegisterHandler(models.TypeResumeParsed, p.handleResumeParsed)
	d.RegisterHandler(models.TypeSkillsAnalyzed, p.handleSkillsAnalyzed)
	d.RegisterHandler(models.TypeRecommendationsReady, p.handleRecommendationsReady)
}

func (p *Pipeline) handleStartCareerRun(ctx context.Context, evt models.Event) error {
	userID, err := requireUserID(evt)
	if err != nil {
		return err
	}
	targetRole := payloadString(evt.Payload, "target_role")

	runID, err := p.store.CreateRun(ctx, userID, targetRole)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	patch := map[string]any{"status": models.RunStarted}
	if targetRole != "" {
		patch["target_role"] = targetRole
	}
	resumeID, hasResume := resolveResumeID(evt)
	if hasResume {
		patch["resume_id"] = resumeID
	}
	if err := p.store.AppendRunState(ctx, runID, patch); err != nil {
		return fmt.Errorf("append run state: %w", err)
	}

	if hasResume {
		if err := p.publish(ctx, store.PublishEventParams{
			Type:     models.TypeResumeUploaded,
			UserID:   &userID,
			ResumeID: &resumeID,
			RunID:    &runID,
		}); err != nil {
			return err
		}
	}
	p.log.Info("career run started", zap.String("run_id", runID), zap.Int64("user_id", userID))
	return nil
}

func (p *Pipeline) handleResumeUploaded(ctx context.Context, evt models.Event) error {
	userID, err := requireUserID(evt)
	if err != nil {
		return err
	}

	resume, err := p.resolveResume(ctx, evt, userID)
	if err != nil {
		return err
	}
	if resume.RawText == "" {
		return fmt.Errorf("resume %d has no raw text to parse", resume.ResumeID)
	}

	parsed := p.parser.Parse(resume.RawText)
	if err := p.store.UpdateResumeParsed(ctx, resume.ResumeID, parsed.Skills, parsed.Experience, parsed.Chunks); err != nil {
		return fmt.Errorf("store parsed resume: %w", err)
	}

	analysis, err := p.analyzer.AnalyzeDeep(ctx, parsed.RawText, parsed.Chunks)
	if err != nil {
		return fmt.Errorf("deep analysis: %w", err)
	}

	if evt.RunID != nil {
		patch := map[string]any{
			"status":          models.RunResumeParsed,
			"resume_id":       resume.ResumeID,
			"skills":          parsed.Skills,
			"resume_analysis": analysis,
		}
		if err := p.store.AppendRunState(ctx, *evt.RunID, patch); err != nil {
			return fmt.Errorf("append run state: %w", err)
		}
		if err := p.store.MarkRunStatus(ctx, *evt.RunID, models.RunResumeParsed); err != nil {
			return fmt.Errorf("mark run status: %w", err)
		}
	}

	return p.publish(ctx, store.PublishEventParams{
		Type:     models.TypeResumeParsed,
		UserID:   &userID,
		ResumeID: &resume.ResumeID,
		RunID:    evt.RunID,
		Payload: map[string]any{
			"skills":     parsed.Skills,
			"experience": parsed.Experience,
			"analysis":   analysis,
		},
	})
}

func (p *Pipeline) handleResumeParsed(ctx context.Context, evt models.Event) error {
	userID, err := requireUserID(evt)
	if err != nil {
		return err
	}
	resumeID, ok := resolveResumeID(evt)
	if !ok {
		return fmt.Errorf("event %s requires resume_id", evt.Type)
	}

	// Prefer payload-carried skills; re-derive from storage when absent.
	skills := payloadStrings(evt.Payload, "skills")
	if len(skills) == 0 {
		resume, err := p.store.GetResume(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("load resume %d: %w", resumeID, err)
		}
		skills = resume.ParsedSkills
	}

	targetRole := p.targetRole(ctx, evt)
	analysis, err := p.skills.Analyze(ctx, skills, targetRole)
	if err != nil {
		return fmt.Errorf("skills analysis: %w", err)
	}

	if evt.RunID != nil {
		patch := map[string]any{
			"status":          models.RunSkillsAnalyzed,
			"skills_analysis": analysis,
		}
		if err := p.store.AppendRunState(ctx, *evt.RunID, patch); err != nil {
			return fmt.Errorf("append run state: %w", err)
		}
		if err := p.store.MarkRunStatus(ctx, *evt.RunID, models.RunSkillsAnalyzed); err != nil {
			return fmt.Errorf("mark run status: %w", err)
		}
	}

	payload := map[string]any{"skills_analysis": analysis}
	if gaps, ok := analysis["skill_gaps"]; ok {
		payload["skill_gaps"] = gaps
	}
	return p.publish(ctx, store.PublishEventParams{
		Type:     models.TypeSkillsAnalyzed,
		UserID:   &userID,
		ResumeID: &resumeID,
		RunID:    evt.RunID,
		Payload:  payload,
	})
}

func (p *Pipeline) handleSkillsAnalyzed(ctx context.Context, evt models.Event) error {
	userID, err := requireUserID(evt)
	if err != nil {
		return err
	}

	resume, err := p.resolveResume(ctx, evt, userID)
	if err != nil {
		return err
	}
	chunks, err := p.store.GetResumeChunks(ctx, resume.ResumeID)
	if err != nil {
		return fmt.Errorf("load resume chunks: %w", err)
	}

	recs, err := p.recommender.Recommend(ctx, agents.RecommendInput{
		Skills:      resume.ParsedSkills,
		Experience:  resume.ParsedExperience,
		Chunks:      chunks,
		Interests:   payloadString(evt.Payload, "interests"),
		CurrentRole: payloadString(evt.Payload, "current_role"),
	})
	if err != nil {
		return fmt.Errorf("recommendations: %w", err)
	}

	if err := p.store.SaveRecommendations(ctx, userID, recs); err != nil {
		return fmt.Errorf("save recommendations: %w", err)
	}

	if evt.RunID != nil {
		patch := map[string]any{
			"status":          models.RunRecsReady,
			"recommendations": recs,
		}
		if err := p.store.AppendRunState(ctx, *evt.RunID, patch); err != nil {
			return fmt.Errorf("append run state: %w", err)
		}
		if err := p.store.MarkRunStatus(ctx, *evt.RunID, models.RunRecsReady); err != nil {
			return fmt.Errorf("mark run status: %w", err)
		}
	}

	payload := map[string]any{}
	if gaps, ok := evt.Payload["skill_gaps"]; ok {
		payload["skill_gaps"] = gaps
	}
	return p.publish(ctx, store.PublishEventParams{
		Type:     models.TypeRecommendationsReady,
		UserID:   &userID,
		ResumeID: &resume.ResumeID,
		RunID:    evt.RunID,
		Payload:  payload,
	})
}

func (p *Pipeline) handleRecommendationsReady(ctx context.Context, evt models.Event) error {
	userID, err := requireUserID(evt)
	if err != nil {
		return err
	}

	gaps := payloadStrings(evt.Payload, "skill_gaps")
	var currentSkills []string
	if resume, err := p.resolveResume(ctx, evt, userID); err == nil {
		currentSkills = resume.ParsedSkills
	}

	plan, err := p.resources.LearningPlan(ctx, gaps, currentSkills, p.targetRole(ctx, evt), "medium")
	if err != nil {
		return fmt.Errorf("learning plan: %w", err)
	}

	if evt.RunID != nil {
		patch := map[string]any{
			"status":             models.RunCompleted,
			"learning_resources": plan,
		}
		if err := p.store.AppendRunState(ctx, *evt.RunID, patch); err != nil {
			return fmt.Errorf("append run state: %w", err)
		}
		if err := p.store.MarkRunStatus(ctx, *evt.RunID, models.RunCompleted); err != nil {
			return fmt.Errorf("mark run status: %w", err)
		}
	}
	p.log.Info("career run pipeline finished", zap.Int64("user_id", userID))
	return nil
}

func (p *Pipeline) publish(ctx context.Context, params store.PublishEventParams) error {
	if _, err := p.store.PublishEvent(ctx, params); err != nil {
		return fmt.Errorf("publish %s: %w", params.Type, err)
	}
	telemetry.EventsPublished.Inc()
	return nil
}

// resolveResume picks the event's explicit resume when present, otherwise
// the user's most recent upload.
func (p *Pipeline) resolveResume(ctx context.Context, evt models.Event, userID int64) (models.Resume, error) {
	if resumeID, ok := resolveResumeID(evt); ok {
		resume, err := p.store.GetResume(ctx, resumeID)
		if err != nil {
			return models.Resume{}, fmt.Errorf("load resume %d: %w", resumeID, err)
		}
		return resume, nil
	}
	resume, err := p.store.LatestResumeForUser(ctx, userID)
	if err != nil {
		return models.Resume{}, fmt.Errorf("no resume found for user %d: %w", userID, err)
	}
	return resume, nil
}

// targetRole reads the run's target role when the event belongs to a run,
// falling back to a payload field.
func (p *Pipeline) targetRole(ctx context.Context, evt models.Event) string {
	if evt.RunID != nil {
		if run, err := p.store.GetRun(ctx, *evt.RunID); err == nil && run.TargetRole != "" {
			return run.TargetRole
		}
	}
	return payloadString(evt.Payload, "target_role")
}

func requireUserID(evt models.Event) (int64, error) {
	if evt.UserID == nil {
		return 0, fmt.Errorf("event %s requires user_id", evt.Type)
	}
	return *evt.UserID, nil
}

// resolveResumeID checks the event's correlation column first, then the
// payload. JSON numbers decode as float64.
func resolveResumeID(evt models.Event) (int64, bool) {
	if evt.ResumeID != nil {
		return *evt.ResumeID, true
	}
	switch v := evt.Payload["resume_id"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadStrings(payload map[string]any, key string) []string {
	items, ok := payload[key].([]any)
	if !ok {
		if direct, ok := payload[key].([]string); ok {
			return direct
		}
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
