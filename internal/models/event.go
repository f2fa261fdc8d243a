package models

import (
	"time"
)

// EventStatus enumerates the lifecycle states persisted in Postgres.
// Status only moves forward: pending -> processing -> completed|error.
// failed is reached directly from pending when the attempt budget is
// already spent; the handler never runs for such events.
const (
	EventPending    = "pending"
	EventProcessing = "processing"
	EventCompleted  = "completed"
	EventError      = "error"
	EventFailed     = "failed"
)

// Event types understood by the dispatcher. Producers may publish other
// types; those are logged and completed as no-ops.
const (
	TypeStartCareerRun       = "start_career_run"
	TypeResumeUploaded       = "resume_uploaded"
	TypeResumeParsed         = "resume_parsed"
	TypeSkillsAnalyzed       = "skills_analyzed"
	TypeRecommendationsReady = "recommendations_ready"
)

// Event is one durable unit of pipeline work persisted in agent_events.
type Event struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"event_type"`
	UserID    *int64         `json:"user_id,omitempty"`
	ResumeID  *int64         `json:"resume_id,omitempty"`
	RunID     *string        `json:"run_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	Status    string         `json:"status"`
	Attempts  int            `json:"attempts"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Run statuses are advisory labels; the run's state JSON is the durable
// trace of the workflow.
const (
	RunStarted        = "started"
	RunResumeParsed   = "resume_parsed"
	RunSkillsAnalyzed = "skills_analyzed"
	RunRecsReady      = "recommendations_ready"
	RunCompleted      = "completed"
)

// Run accumulates cumulative state for one end-to-end workflow instance.
type Run struct {
	RunID      string         `json:"run_id"`
	UserID     int64          `json:"user_id"`
	TargetRole string         `json:"target_role,omitempty"`
	Status     string         `json:"status"`
	State      map[string]any `json:"state"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
