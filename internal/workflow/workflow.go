// Package workflow is the user-facing analysis entry point: it fans three
// independent agents out over one parsed resume and reports every branch's
// outcome, keeping whatever subset succeeded.
package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"career-compass/internal/agents"
	"career-compass/internal/fanout"
	"career-compass/internal/models"
	"career-compass/internal/telemetry"
)

// Store is the slice of persistence the workflow needs.
type Store interface {
	LatestResumeForUser(ctx context.Context, userID int64) (models.Resume, error)
	GetResumeChunks(ctx context.Context, resumeID int64) ([]models.ResumeChunk, error)
	SaveRecommendations(ctx context.Context, userID int64, data map[string]any) error
}

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
)

// BranchOutcome is one branch's result or captured failure.
type BranchOutcome struct {
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ProfileAnalysis is the per-branch summary returned to the caller. A failed
// branch shows up as an error string next to its siblings' results; the call
// as a whole only fails when no resume exists to analyze.
type ProfileAnalysis struct {
	UserID   int64                    `json:"user_id"`
	ResumeID int64                    `json:"resume_id"`
	Branches map[string]BranchOutcome `json:"branches"`
}

// Analyzer runs the concurrent full-profile analysis.
type Analyzer struct {
	store       Store
	skills      SkillsAgent
	deep        DeepAnalysisAgent
	recommender RecommendationAgent
	log         *zap.Logger
}

func NewAnalyzer(st Store, skills SkillsAgent, deep DeepAnalysisAgent, recommender RecommendationAgent, log *zap.Logger) *Analyzer {
	return &Analyzer{
		store:       st,
		skills:      skills,
		deep:        deep,
		recommender: recommender,
		log:         log,
	}
}

const (
	branchSkills          = "skills_analysis"
	branchResumeAnalysis  = "resume_analysis"
	branchRecommendations = "recommendations"
)

// AnalyzeProfile loads the user's latest parsed resume and runs skills
// analysis, deep resume analysis, and career recommendations concurrently.
// Successful recommendation results are persisted; failures are returned as
// captured branch errors.
func (a *Analyzer) AnalyzeProfile(ctx context.Context, userID int64, targetRole string) (ProfileAnalysis, error) {
	resume, err := a.store.LatestResumeForUser(ctx, userID)
	if err != nil {
		return ProfileAnalysis{}, fmt.Errorf("no resume for user %d: %w", userID, err)
	}
	chunks, err := a.store.GetResumeChunks(ctx, resume.ResumeID)
	if err != nil {
		return ProfileAnalysis{}, fmt.Errorf("load resume chunks: %w", err)
	}

	results := fanout.Run(ctx, map[string]fanout.Call{
		branchSkills: func(ctx context.Context) (map[string]any, error) {
			return a.skills.Analyze(ctx, resume.ParsedSkills, targetRole)
		},
		branchResumeAnalysis: func(ctx context.Context) (map[string]any, error) {
			return a.deep.AnalyzeDeep(ctx, resume.RawText, chunks)
		},
		branchRecommendations: func(ctx context.Context) (map[string]any, error) {
			return a.recommender.Recommend(ctx, agents.RecommendInput{
				Skills:      resume.ParsedSkills,
				Experience:  resume.ParsedExperience,
				Chunks:      chunks,
				CurrentRole: targetRole,
			})
		},
	})

	analysis := ProfileAnalysis{
		UserID:   userID,
		ResumeID: resume.ResumeID,
		Branches: make(map[string]BranchOutcome, len(results)),
	}
	for name, res := range results {
		if res.Err != nil {
			telemetry.FanoutFailures.Inc()
			a.log.Warn("analysis branch failed",
				zap.String("branch", name),
				zap.Int64("user_id", userID),
				zap.Error(res.Err),
			)
			analysis.Branches[name] = BranchOutcome{Error: res.Err.Error()}
			continue
		}
		analysis.Branches[name] = BranchOutcome{Result: res.Value}
	}

	if rec, ok := analysis.Branches[branchRecommendations]; ok && rec.Error == "" {
		if err := a.store.SaveRecommendations(ctx, userID, rec.Result); err != nil {
			a.log.Warn("persist recommendations", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return analysis, nil
}
