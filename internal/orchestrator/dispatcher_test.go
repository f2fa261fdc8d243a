package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"career-compass/internal/models"
	"career-compass/internal/store"
)

func TestTickDeadLettersExhaustedEvents(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := NewDispatcher(mem, zap.NewNop())

	invoked := 0
	d.RegisterHandler(models.TypeResumeParsed, func(context.Context, models.Event) error {
		invoked++
		return nil
	})

	id, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: models.TypeResumeParsed})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, mem.IncrementEventAttempts(ctx, id))
	}

	completed, err := d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, invoked, "handler must not run for an exhausted event")

	evt, err := mem.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.EventFailed, evt.Status)
	assert.Equal(t, 3, evt.Attempts, "dead-lettering does not bump attempts")
	assert.Len(t, mem.Events(), 1, "dead-lettering publishes nothing")
}

func TestTickHandlerErrorIsTerminal(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := NewDispatcher(mem, zap.NewNop())

	invoked := 0
	d.RegisterHandler(models.TypeResumeParsed, func(context.Context, models.Event) error {
		invoked++
		return errors.New("model unavailable")
	})

	id, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: models.TypeResumeParsed})
	require.NoError(t, err)

	completed, err := d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Equal(t, 1, invoked)

	evt, err := mem.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.EventError, evt.Status)

	// Errored events are not retried; only an explicit requeue revives them.
	completed, err = d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Equal(t, 1, invoked)

	n, err := mem.RequeueErroredEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, invoked)
}

func TestTickCompletesUnknownEventTypes(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := NewDispatcher(mem, zap.NewNop())

	id, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: "mystery_event"})
	require.NoError(t, err)

	completed, err := d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Zero(t, completed, "unknown types do not count as completed work")

	evt, err := mem.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, evt.Status)
}

func TestTickContinuesPastFailingEvent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := NewDispatcher(mem, zap.NewNop())

	d.RegisterHandler("bad", func(context.Context, models.Event) error {
		return errors.New("boom")
	})
	d.RegisterHandler("good", func(context.Context, models.Event) error {
		return nil
	})

	badID, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: "bad"})
	require.NoError(t, err)
	goodID, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: "good"})
	require.NoError(t, err)

	completed, err := d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	bad, err := mem.GetEvent(ctx, badID)
	require.NoError(t, err)
	assert.Equal(t, models.EventError, bad.Status)

	good, err := mem.GetEvent(ctx, goodID)
	require.NoError(t, err)
	assert.Equal(t, models.EventCompleted, good.Status)
}

func TestTickMarksProcessingAndCountsAttempts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	d := NewDispatcher(mem, zap.NewNop())

	var seen models.Event
	d.RegisterHandler(models.TypeResumeParsed, func(_ context.Context, evt models.Event) error {
		seen = evt
		return nil
	})

	id, err := mem.PublishEvent(ctx, store.PublishEventParams{Type: models.TypeResumeParsed})
	require.NoError(t, err)

	_, err = d.Tick(ctx, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, id, seen.EventID)

	evt, err := mem.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, evt.Attempts)
	assert.Equal(t, models.EventCompleted, evt.Status)
}
