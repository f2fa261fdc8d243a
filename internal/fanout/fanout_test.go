package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCollectsEveryBranch(t *testing.T) {
	results := Run(context.Background(), map[string]Call{
		"a": func(context.Context) (map[string]any, error) {
			return map[string]any{"v": 1}, nil
		},
		"b": func(context.Context) (map[string]any, error) {
			return map[string]any{"v": 2}, nil
		},
	})

	require.Len(t, results, 2)
	assert.Equal(t, map[string]any{"v": 1}, results["a"].Value)
	assert.Equal(t, map[string]any{"v": 2}, results["b"].Value)
	assert.NoError(t, results["a"].Err)
	assert.NoError(t, results["b"].Err)
}

func TestRunFailureDoesNotCancelSiblings(t *testing.T) {
	boom := errors.New("boom")
	var slowRan atomic.Bool

	results := Run(context.Background(), map[string]Call{
		"fails": func(context.Context) (map[string]any, error) {
			return nil, boom
		},
		"slow": func(ctx context.Context) (map[string]any, error) {
			// Finishes well after the failing branch; must still run to
			// completion with an uncancelled context.
			time.Sleep(20 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			slowRan.Store(true)
			return map[string]any{"ok": true}, nil
		},
		"fast": func(context.Context) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		},
	})

	require.Len(t, results, 3)
	assert.ErrorIs(t, results["fails"].Err, boom)
	assert.NoError(t, results["slow"].Err)
	assert.NoError(t, results["fast"].Err)
	assert.True(t, slowRan.Load())
}

func TestRunEmpty(t *testing.T) {
	results := Run(context.Background(), nil)
	assert.Empty(t, results)
}
