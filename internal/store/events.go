package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"career-compass/internal/models"
)

// PublishEventParams collects inputs required to insert an event row.
// Correlation IDs are optional; each handler validates the ones it needs.
type PublishEventParams struct {
	Type     string
	UserID   *int64
	ResumeID *int64
	RunID    *string
	Payload  map[string]any
}

// PublishEvent inserts a pending event and returns its generated ID.
// There is no deduplication: publishing identical content twice creates
// two independent events.
func (s *Store) PublishEvent(ctx context.Context, p PublishEventParams) (string, error) {
	if p.Payload == nil {
		p.Payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(p.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	eventID := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agent_events (event_id, event_type, user_id, resume_id, run_id, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
	`, eventID, p.Type, p.UserID, p.ResumeID, p.RunID, payloadJSON, models.EventPending, now)
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return eventID, nil
}

// FetchPendingEvents returns up to limit pending events, oldest first.
// No lock or lease is taken: this store assumes a single dispatcher
// instance. Scaling out requires an atomic claim (conditional update
// from pending to processing, or a SKIP LOCKED read) first.
func (s *Store) FetchPendingEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, event_type, user_id, resume_id, run_id, payload, status, attempts, created_at, updated_at
		FROM agent_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, models.EventPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// GetEvent fetches one event by ID.
func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT event_id, event_type, user_id, resume_id, run_id, payload, status, attempts, created_at, updated_at
		FROM agent_events WHERE event_id = $1
	`, eventID)
	evt, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Event{}, ErrNotFound
	}
	return evt, err
}

// MarkEventStatus sets an event's status and refreshes updated_at.
func (s *Store) MarkEventStatus(ctx context.Context, eventID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE agent_events SET status = $2, updated_at = NOW() WHERE event_id = $1
	`, eventID, status)
	return err
}

// IncrementEventAttempts bumps the attempt counter atomically.
func (s *Store) IncrementEventAttempts(ctx context.Context, eventID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE agent_events SET attempts = attempts + 1, updated_at = NOW() WHERE event_id = $1
	`, eventID)
	return err
}

// RequeueErroredEvents is the administrative reset for dead-lettered work:
// every event in status error goes back to pending. The dispatcher never
// calls this; an operator does.
func (s *Store) RequeueErroredEvents(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE agent_events SET status = $1, updated_at = NOW() WHERE status = $2
	`, models.EventPending, models.EventError)
	if err != nil {
		return 0, fmt.Errorf("requeue errored events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountPendingEvents reports queue depth for telemetry.
func (s *Store) CountPendingEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM agent_events WHERE status = $1
	`, models.EventPending).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending events: %w", err)
	}
	return n, nil
}

// CreateRun inserts a run row with empty accumulated state.
func (s *Store) CreateRun(ctx context.Context, userID int64, targetRole string) (string, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_runs (run_id, user_id, target_role, status, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '{}'::jsonb, $5, $5)
	`, runID, userID, targetRole, models.RunStarted, now)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// AppendRunState merges a patch into the run's state object. jsonb || gives
// last-write-wins per top-level key.
func (s *Store) AppendRunState(ctx context.Context, runID string, patch map[string]any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal state patch: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE agent_runs SET state = state || $2::jsonb, updated_at = NOW() WHERE run_id = $1
	`, runID, patchJSON)
	if err != nil {
		return fmt.Errorf("append run state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRunStatus updates the run's advisory status label.
func (s *Store) MarkRunStatus(ctx context.Context, runID, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE agent_runs SET status = $2, updated_at = NOW() WHERE run_id = $1
	`, runID, status)
	return err
}

// GetRun fetches a run with its accumulated state.
func (s *Store) GetRun(ctx context.Context, runID string) (models.Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, user_id, target_role, status, state, created_at, updated_at
		FROM agent_runs WHERE run_id = $1
	`, runID)

	var run models.Run
	var targetRole pgtype.Text
	var stateJSON []byte
	err := row.Scan(&run.RunID, &run.UserID, &targetRole, &run.Status, &stateJSON, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, ErrNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("scan run: %w", err)
	}
	if targetRole.Valid {
		run.TargetRole = targetRole.String
	}
	if err := json.Unmarshal(stateJSON, &run.State); err != nil {
		return models.Run{}, fmt.Errorf("unmarshal run state: %w", err)
	}
	return run, nil
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var evt models.Event
	var userID, resumeID pgtype.Int8
	var runID pgtype.Text
	var payloadJSON []byte

	err := row.Scan(&evt.EventID, &evt.Type, &userID, &resumeID, &runID, &payloadJSON, &evt.Status, &evt.Attempts, &evt.CreatedAt, &evt.UpdatedAt)
	if err != nil {
		return models.Event{}, err
	}
	if err := json.Unmarshal(payloadJSON, &evt.Payload); err != nil {
		return models.Event{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	evt.UserID = int8Ptr(userID)
	evt.ResumeID = int8Ptr(resumeID)
	evt.RunID = textPtr(runID)
	return evt, nil
}
