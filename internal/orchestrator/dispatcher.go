// Package orchestrator drives the event pipeline: it polls the store for
// pending events, enforces the attempt budget, and routes each event to its
// registered handler one at a time.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"career-compass/internal/models"
	"career-compass/internal/store"
	"career-compass/internal/telemetry"
)

// Store is the durable state the dispatcher and its handlers operate on.
// Satisfied by both the Postgres store and the in-memory store.
type Store interface {
	PublishEvent(ctx context.Context, p store.PublishEventParams) (string, error)
	FetchPendingEvents(ctx context.Context, limit int) ([]models.Event, error)
	MarkEventStatus(ctx context.Context, eventID, status string) error
	IncrementEventAttempts(ctx context.Context, eventID string) error
	CountPendingEvents(ctx context.Context) (int64, error)

	CreateRun(ctx context.Context, userID int64, targetRole string) (string, error)
	AppendRunState(ctx context.Context, runID string, patch map[string]any) error
	MarkRunStatus(ctx context.Context, runID, status string) error
	GetRun(ctx context.Context, runID string) (models.Run, error)

	GetResume(ctx context.Context, resumeID int64) (models.Resume, error)
	LatestResumeForUser(ctx context.Context, userID int64) (models.Resume, error)
	UpdateResumeParsed(ctx context.Context, resumeID int64, skills, experience []string, chunks []models.ResumeChunk) error
	GetResumeChunks(ctx context.Context, resumeID int64) ([]models.ResumeChunk, error)
	SaveRecommendations(ctx context.Context, userID int64, data map[string]any) error
}

var _ Store = (*store.Store)(nil)
var _ Store = (*store.Memory)(nil)

// HandlerFunc processes one event. A nil return completes the event; an
// error marks it terminal error status.
type HandlerFunc func(ctx context.Context, evt models.Event) error

// Dispatcher polls pending events and hands them to registered handlers.
// It is single-instance by design: no claim or lease is taken on fetch, so
// two dispatchers polling the same database would double-process rows.
type Dispatcher struct {
	store    Store
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewDispatcher(st Store, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:    st,
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// RegisterHandler binds a handler to an event type.
func (d *Dispatcher) RegisterHandler(eventType string, h HandlerFunc) {
	if eventType == "" || h == nil {
		return
	}
	d.handlers[eventType] = h
}

// Tick performs one bounded poll-and-process pass and returns how many
// events completed successfully. Events are handled strictly in fetch order,
// one at a time. An event whose attempts already reached maxAttempts is
// dead-lettered without invoking its handler. A handler error marks the
// event status error, which is terminal: the polling filter will never
// return it again, and recovery is an explicit administrative requeue.
func (d *Dispatcher) Tick(ctx context.Context, maxEvents, maxAttempts int) (int, error) {
	events, err := d.store.FetchPendingEvents(ctx, maxEvents)
	if err != nil {
		return 0, fmt.Errorf("fetch pending events: %w", err)
	}
	if depth, err := d.store.CountPendingEvents(ctx); err == nil {
		telemetry.PendingDepth.Set(float64(depth))
	}

	completed := 0
	for _, evt := range events {
		log := d.log.With(
			zap.String("event_id", evt.EventID),
			zap.String("event_type", evt.Type),
			zap.Int("attempts", evt.Attempts),
		)

		if evt.Attempts >= maxAttempts {
			if err := d.store.MarkEventStatus(ctx, evt.EventID, models.EventFailed); err != nil {
				log.Error("mark failed", zap.Error(err))
				continue
			}
			telemetry.EventsDeadLetter.Inc()
			log.Warn("event dead-lettered, attempt budget exhausted")
			continue
		}

		if err := d.store.IncrementEventAttempts(ctx, evt.EventID); err != nil {
			log.Error("increment attempts", zap.Error(err))
			continue
		}
		if err := d.store.MarkEventStatus(ctx, evt.EventID, models.EventProcessing); err != nil {
			log.Error("mark processing", zap.Error(err))
			continue
		}

		handler, ok := d.handlers[evt.Type]
		if !ok {
			// Unknown types are a no-op, not a failure: complete them so a
			// misbehaving producer cannot wedge the queue.
			log.Warn("no handler for event type, skipping")
			_ = d.store.MarkEventStatus(ctx, evt.EventID, models.EventCompleted)
			continue
		}

		if err := handler(ctx, evt); err != nil {
			_ = d.store.MarkEventStatus(ctx, evt.EventID, models.EventError)
			telemetry.EventsErrored.Inc()
			log.Error("handler failed", zap.Error(err))
			continue
		}

		if err := d.store.MarkEventStatus(ctx, evt.EventID, models.EventCompleted); err != nil {
			log.Error("mark completed", zap.Error(err))
			continue
		}
		telemetry.EventsCompleted.Inc()
		completed++
		log.Info("event completed")
	}
	return completed, nil
}
