package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"career-compass/internal/agents"
	"career-compass/internal/config"
	"career-compass/internal/models"
	"career-compass/internal/orchestrator"
	"career-compass/internal/store"
	"career-compass/internal/telemetry"
	"career-compass/internal/workflow"
)

// Store is everything the HTTP layer touches: the orchestrator's surface
// plus user and resume CRUD and the administrative event requeue.
type Store interface {
	orchestrator.Store

	CreateUser(ctx context.Context, email, name string) (int64, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	InsertResume(ctx context.Context, userID int64, rawText string) (int64, error)
	GetEvent(ctx context.Context, eventID string) (models.Event, error)
	RequeueErroredEvents(ctx context.Context) (int, error)
}

var _ Store = (*store.Store)(nil)
var _ Store = (*store.Memory)(nil)

// Server wires the HTTP trigger surface: it publishes events and drives
// ticks, but contains no pipeline logic of its own.
type Server struct {
	cfg        config.Config
	store      Store
	dispatcher *orchestrator.Dispatcher
	analyzer   *workflow.Analyzer
	matcher    *agents.CareerMatcher
	log        *zap.Logger
}

// New constructs the API server.
func New(cfg config.Config, st Store, d *orchestrator.Dispatcher, analyzer *workflow.Analyzer, matcher *agents.CareerMatcher, log *zap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		store:      st,
		dispatcher: d,
		analyzer:   analyzer,
		matcher:    matcher,
		log:        log,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Post("/users", s.handleCreateUser)
	r.Get("/users/{id}", s.handleGetUser)
	r.Post("/users/{id}/resumes", s.handleUploadResume)
	r.Get("/users/{id}/analysis", s.handleAnalyzeProfile)
	r.Post("/users/{id}/matches", s.handleCareerMatches)
	r.Post("/roadmaps", s.handleTransitionRoadmap)

	r.Post("/runs", s.handleStartRun)
	r.Get("/runs/{id}", s.handleGetRun)

	r.Post("/events", s.handlePublishEvent)
	r.Get("/events/{id}", s.handleGetEvent)
	r.Post("/events/requeue", s.handleRequeueEvents)
	r.Post("/tick", s.handleTick)

	return r
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Name == "" {
		http.Error(w, "email and name are required", http.StatusBadRequest)
		return
	}
	userID, err := s.store.CreateUser(r.Context(), req.Email, req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user_id": userID, "email": req.Email, "name": req.Name})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type uploadResumeRequest struct {
	RawText string `json:"raw_text"`
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req uploadResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.RawText == "" {
		http.Error(w, "raw_text is required", http.StatusBadRequest)
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	resumeID, err := s.store.InsertResume(r.Context(), userID, req.RawText)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"resume_id": resumeID, "user_id": userID})
}

func (s *Server) handleAnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	analysis, err := s.analyzer.AnalyzeProfile(r.Context(), userID, r.URL.Query().Get("target_role"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no resume found for user", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type careerMatchesRequest struct {
	CurrentRole string   `json:"current_role"`
	Interests   []string `json:"interests"`
	Education   string   `json:"education"`
}

func (s *Server) handleCareerMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req careerMatchesRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	resume, err := s.store.LatestResumeForUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no resume found for user", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	matches, err := s.matcher.Match(r.Context(), agents.MatchInput{
		Skills:            resume.ParsedSkills,
		ExperienceSummary: strings.Join(resume.ParsedExperience, "; "),
		CurrentRole:       req.CurrentRole,
		Interests:         req.Interests,
		Education:         req.Education,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

type roadmapRequest struct {
	CurrentRole string   `json:"current_role"`
	TargetRole  string   `json:"target_role"`
	Skills      []string `json:"skills"`
	Timeline    string   `json:"timeline"`
}

func (s *Server) handleTransitionRoadmap(w http.ResponseWriter, r *http.Request) {
	var req roadmapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.TargetRole == "" {
		http.Error(w, "target_role is required", http.StatusBadRequest)
		return
	}
	roadmap, err := s.matcher.TransitionRoadmap(r.Context(), req.CurrentRole, req.TargetRole, req.Skills, req.Timeline)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, roadmap)
}

type startRunRequest struct {
	UserID     int64          `json:"user_id"`
	ResumeID   *int64         `json:"resume_id"`
	TargetRole string         `json:"target_role"`
	Payload    map[string]any `json:"payload"`
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if req.TargetRole != "" {
		payload["target_role"] = req.TargetRole
	}
	if req.ResumeID != nil {
		payload["resume_id"] = *req.ResumeID
	}
	eventID, err := s.store.PublishEvent(r.Context(), store.PublishEventParams{
		Type:    models.TypeStartCareerRun,
		UserID:  &req.UserID,
		Payload: payload,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	telemetry.EventsPublished.Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{"event_id": eventID})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type publishEventRequest struct {
	EventType string         `json:"event_type"`
	UserID    *int64         `json:"user_id"`
	ResumeID  *int64         `json:"resume_id"`
	RunID     *string        `json:"run_id"`
	Payload   map[string]any `json:"payload"`
}

func (s *Server) handlePublishEvent(w http.ResponseWriter, r *http.Request) {
	var req publishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.EventType == "" {
		http.Error(w, "event_type is required", http.StatusBadRequest)
		return
	}
	eventID, err := s.store.PublishEvent(r.Context(), store.PublishEventParams{
		Type:     req.EventType,
		UserID:   req.UserID,
		ResumeID: req.ResumeID,
		RunID:    req.RunID,
		Payload:  req.Payload,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	telemetry.EventsPublished.Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{"event_id": eventID})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	evt, err := s.store.GetEvent(r.Context(), eventID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (s *Server) handleRequeueEvents(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.RequeueErroredEvents(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requeued": n})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	completed, err := s.dispatcher.Tick(r.Context(), s.cfg.MaxEventsPerTick, s.cfg.MaxAttempts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completed": completed})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
