package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"career-compass/internal/models"
)

// Memory is an in-process store with the same observable semantics as the
// Postgres store. It backs tests and local development where standing up
// Postgres is not worth it.
type Memory struct {
	mu sync.Mutex

	events    map[string]*models.Event
	eventSeq  map[string]int64
	seq       int64
	runs      map[string]*models.Run
	users     map[int64]models.User
	resumes   map[int64]models.Resume
	chunks    map[int64][]models.ResumeChunk
	recs      map[int64][]map[string]any
	nextUser  int64
	nextResum int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		events:   map[string]*models.Event{},
		eventSeq: map[string]int64{},
		runs:     map[string]*models.Run{},
		users:    map[int64]models.User{},
		resumes:  map[int64]models.Resume{},
		chunks:   map[int64][]models.ResumeChunk{},
		recs:     map[int64][]map[string]any{},
	}
}

func (m *Memory) PublishEvent(_ context.Context, p PublishEventParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	payload := p.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	now := time.Now().UTC()
	evt := &models.Event{
		EventID:   uuid.New().String(),
		Type:      p.Type,
		UserID:    p.UserID,
		ResumeID:  p.ResumeID,
		RunID:     p.RunID,
		Payload:   MergeState(nil, payload),
		Status:    models.EventPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.seq++
	m.events[evt.EventID] = evt
	m.eventSeq[evt.EventID] = m.seq
	return evt.EventID, nil
}

func (m *Memory) FetchPendingEvents(_ context.Context, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []*models.Event
	for _, evt := range m.events {
		if evt.Status == models.EventPending {
			pending = append(pending, evt)
		}
	}
	// created_at ASC; insertion order breaks timestamp ties.
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return m.eventSeq[pending[i].EventID] < m.eventSeq[pending[j].EventID]
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	out := make([]models.Event, 0, len(pending))
	for _, evt := range pending {
		out = append(out, *evt)
	}
	return out, nil
}

func (m *Memory) GetEvent(_ context.Context, eventID string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt, ok := m.events[eventID]
	if !ok {
		return models.Event{}, ErrNotFound
	}
	return *evt, nil
}

func (m *Memory) MarkEventStatus(_ context.Context, eventID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evt, ok := m.events[eventID]; ok {
		evt.Status = status
		evt.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *Memory) IncrementEventAttempts(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evt, ok := m.events[eventID]; ok {
		evt.Attempts++
		evt.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *Memory) RequeueErroredEvents(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, evt := range m.events {
		if evt.Status == models.EventError {
			evt.Status = models.EventPending
			evt.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountPendingEvents(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, evt := range m.events {
		if evt.Status == models.EventPending {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateRun(_ context.Context, userID int64, targetRole string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	run := &models.Run{
		RunID:      uuid.New().String(),
		UserID:     userID,
		TargetRole: targetRole,
		Status:     models.RunStarted,
		State:      map[string]any{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.runs[run.RunID] = run
	return run.RunID, nil
}

func (m *Memory) AppendRunState(_ context.Context, runID string, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.State = MergeState(run.State, patch)
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) MarkRunStatus(_ context.Context, runID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		run.Status = status
		run.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *Memory) GetRun(_ context.Context, runID string) (models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return models.Run{}, ErrNotFound
	}
	out := *run
	out.State = MergeState(nil, run.State)
	return out, nil
}

func (m *Memory) CreateUser(_ context.Context, email, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUser++
	m.users[m.nextUser] = models.User{
		UserID:    m.nextUser,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	return m.nextUser, nil
}

func (m *Memory) GetUser(_ context.Context, userID int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) InsertResume(_ context.Context, userID int64, rawText string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextResum++
	m.resumes[m.nextResum] = models.Resume{
		ResumeID:  m.nextResum,
		UserID:    userID,
		RawText:   rawText,
		CreatedAt: time.Now().UTC(),
	}
	return m.nextResum, nil
}

func (m *Memory) GetResume(_ context.Context, resumeID int64) (models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[resumeID]
	if !ok {
		return models.Resume{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) LatestResumeForUser(_ context.Context, userID int64) (models.Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest models.Resume
	found := false
	for _, r := range m.resumes {
		if r.UserID == userID && (!found || r.ResumeID > latest.ResumeID) {
			latest = r
			found = true
		}
	}
	if !found {
		return models.Resume{}, ErrNotFound
	}
	return latest, nil
}

func (m *Memory) UpdateResumeParsed(_ context.Context, resumeID int64, skills, experience []string, chunks []models.ResumeChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resumes[resumeID]
	if !ok {
		return ErrNotFound
	}
	r.ParsedSkills = append([]string(nil), skills...)
	r.ParsedExperience = append([]string(nil), experience...)
	m.resumes[resumeID] = r
	m.chunks[resumeID] = append([]models.ResumeChunk(nil), chunks...)
	return nil
}

func (m *Memory) GetResumeChunks(_ context.Context, resumeID int64) ([]models.ResumeChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ResumeChunk(nil), m.chunks[resumeID]...), nil
}

func (m *Memory) SaveRecommendations(_ context.Context, userID int64, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[userID] = append(m.recs[userID], MergeState(nil, data))
	return nil
}

// Events returns a snapshot of every event row, in publish order.
func (m *Memory) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, 0, len(m.events))
	for _, evt := range m.events {
		out = append(out, *evt)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.eventSeq[out[i].EventID] < m.eventSeq[out[j].EventID]
	})
	return out
}

// Recommendations returns everything saved for a user, newest last.
func (m *Memory) Recommendations(userID int64) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.recs[userID]...)
}
