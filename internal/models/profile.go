package models

import (
	"time"
)

// User is an account row; the orchestrator only reads its ID.
type User struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Resume holds the raw uploaded text plus whatever parsing has derived so far.
type Resume struct {
	ResumeID         int64     `json:"resume_id"`
	UserID           int64     `json:"user_id"`
	RawText          string    `json:"raw_text"`
	ParsedSkills     []string  `json:"parsed_skills,omitempty"`
	ParsedExperience []string  `json:"parsed_experience,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ResumeChunk is one sectioned slice of a resume. Embeddings, when computed,
// live in a separate column the orchestrator never touches.
type ResumeChunk struct {
	ID       int64  `json:"id,omitempty"`
	ResumeID int64  `json:"resume_id,omitempty"`
	Section  string `json:"section"`
	Content  string `json:"content"`
	Summary  string `json:"summary"`
}

// Recommendation links a user to one suggested career path.
type Recommendation struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	CareerTitle  string         `json:"career_title"`
	SkillGaps    []string       `json:"skill_gaps,omitempty"`
	LearningPath []any          `json:"learning_path,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
