package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"career-compass/internal/models"
)

// CreateUser inserts a user row and returns its ID.
func (s *Store) CreateUser(ctx context.Context, email, name string) (int64, error) {
	var userID int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, created_at) VALUES ($1, $2, NOW())
		RETURNING user_id
	`, email, name).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, userID int64) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, email, name, created_at FROM users WHERE user_id = $1
	`, userID).Scan(&u.UserID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// InsertResume stores raw resume text for a user and returns the resume ID.
// Parsed fields are filled in later by the pipeline.
func (s *Store) InsertResume(ctx context.Context, userID int64, rawText string) (int64, error) {
	var resumeID int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO resumes (user_id, raw_text, parsed_skills, parsed_experience, created_at)
		VALUES ($1, $2, '[]'::jsonb, '[]'::jsonb, NOW())
		RETURNING resume_id
	`, userID, rawText).Scan(&resumeID)
	if err != nil {
		return 0, fmt.Errorf("insert resume: %w", err)
	}
	return resumeID, nil
}

// GetResume fetches a resume by ID.
func (s *Store) GetResume(ctx context.Context, resumeID int64) (models.Resume, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT resume_id, user_id, raw_text, parsed_skills, parsed_experience, created_at
		FROM resumes WHERE resume_id = $1
	`, resumeID)
	return scanResume(row)
}

// LatestResumeForUser returns the most recently uploaded resume for a user.
func (s *Store) LatestResumeForUser(ctx context.Context, userID int64) (models.Resume, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT resume_id, user_id, raw_text, parsed_skills, parsed_experience, created_at
		FROM resumes WHERE user_id = $1
		ORDER BY resume_id DESC
		LIMIT 1
	`, userID)
	return scanResume(row)
}

// UpdateResumeParsed records the parsing collaborator's output: extracted
// skills, experience, and the sectioned chunks. Existing chunks for the
// resume are replaced.
func (s *Store) UpdateResumeParsed(ctx context.Context, resumeID int64, skills, experience []string, chunks []models.ResumeChunk) error {
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	expJSON, err := json.Marshal(experience)
	if err != nil {
		return fmt.Errorf("marshal experience: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // safe no-op on commit

	tag, err := tx.Exec(ctx, `
		UPDATE resumes SET parsed_skills = $2, parsed_experience = $3 WHERE resume_id = $1
	`, resumeID, skillsJSON, expJSON)
	if err != nil {
		return fmt.Errorf("update resume parsed fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM resume_chunks WHERE resume_id = $1`, resumeID); err != nil {
		return fmt.Errorf("clear resume chunks: %w", err)
	}
	for _, ch := range chunks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO resume_chunks (resume_id, section, content, summary)
			VALUES ($1, $2, $3, $4)
		`, resumeID, ch.Section, ch.Content, ch.Summary); err != nil {
			return fmt.Errorf("insert resume chunk: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetResumeChunks returns a resume's sectioned chunks in stored order.
func (s *Store) GetResumeChunks(ctx context.Context, resumeID int64) ([]models.ResumeChunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, resume_id, section, content, summary
		FROM resume_chunks WHERE resume_id = $1
		ORDER BY id ASC
	`, resumeID)
	if err != nil {
		return nil, fmt.Errorf("query resume chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.ResumeChunk
	for rows.Next() {
		var ch models.ResumeChunk
		if err := rows.Scan(&ch.ID, &ch.ResumeID, &ch.Section, &ch.Content, &ch.Summary); err != nil {
			return nil, fmt.Errorf("scan resume chunk: %w", err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// SaveRecommendations persists each recommended career path, creating the
// career_paths entry when it does not exist yet. The full recommendation
// object is kept verbatim alongside the extracted fields.
func (s *Store) SaveRecommendations(ctx context.Context, userID int64, data map[string]any) error {
	recs, _ := data["recommendations"].([]any)
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, raw := range recs {
		rec, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		title := stringField(rec, "career_title", "title")
		if title == "" {
			continue
		}

		var pathID int64
		err := tx.QueryRow(ctx, `SELECT id FROM career_paths WHERE title = $1`, title).Scan(&pathID)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `
				INSERT INTO career_paths (title, description, created_at) VALUES ($1, $2, NOW())
				RETURNING id
			`, title, stringField(rec, "match_reason")).Scan(&pathID)
		}
		if err != nil {
			return fmt.Errorf("resolve career path %q: %w", title, err)
		}

		gapsJSON, _ := json.Marshal(rec["skills_to_develop"])
		stepsJSON, _ := json.Marshal(rec["first_steps"])
		fullJSON, _ := json.Marshal(rec)
		if _, err := tx.Exec(ctx, `
			INSERT INTO recommendations (user_id, career_path_id, skill_gaps, learning_path, raw, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, userID, pathID, gapsJSON, stepsJSON, fullJSON); err != nil {
			return fmt.Errorf("insert recommendation: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func scanResume(row pgx.Row) (models.Resume, error) {
	var r models.Resume
	var skillsJSON, expJSON []byte
	err := row.Scan(&r.ResumeID, &r.UserID, &r.RawText, &skillsJSON, &expJSON, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Resume{}, ErrNotFound
	}
	if err != nil {
		return models.Resume{}, fmt.Errorf("scan resume: %w", err)
	}
	if err := json.Unmarshal(skillsJSON, &r.ParsedSkills); err != nil {
		return models.Resume{}, fmt.Errorf("unmarshal parsed skills: %w", err)
	}
	if err := json.Unmarshal(expJSON, &r.ParsedExperience); err != nil {
		return models.Resume{}, fmt.Errorf("unmarshal parsed experience: %w", err)
	}
	return r, nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
