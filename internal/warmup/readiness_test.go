package warmup

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadinessState_Status(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		timeout    time.Duration
		loaded     bool
		wantReady  bool
		wantReason string
	}{
		{
			name:       "directory still loading",
			timeout:    time.Hour,
			wantReason: "directory load in progress",
		},
		{
			name:      "directory loaded",
			timeout:   time.Hour,
			loaded:    true,
			wantReady: true,
		},
		{
			name:       "load timeout passed without a snapshot",
			timeout:    0,
			wantReady:  true,
			wantReason: "timeout reached (directory may still be loading)",
		},
		{
			name:      "loaded after the timeout",
			timeout:   0,
			loaded:    true,
			wantReady: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			state := NewReadinessState(tt.timeout)
			if tt.loaded {
				state.MarkReady()
			}

			status := state.Status()
			assert.Equal(t, tt.wantReady, state.IsReady())
			assert.Equal(t, tt.loaded, state.DirectoryLoaded())
			assert.Equal(t, tt.wantReady, status.Ready)
			assert.Equal(t, tt.loaded, status.Loaded)
			assert.Equal(t, tt.wantReason, status.Reason)
			assert.Equal(t, int(tt.timeout.Seconds()), status.TimeoutSeconds)
		})
	}
}

func TestReadinessState_TimeoutElapses(t *testing.T) {
	t.Parallel()
	state := NewReadinessState(30 * time.Millisecond)
	require.False(t, state.IsReady())

	assert.Eventually(t, state.IsReady, time.Second, 5*time.Millisecond)
	assert.False(t, state.DirectoryLoaded(), "timeout must not count as a loaded directory")
}

func TestReadinessStatus_JSON(t *testing.T) {
	t.Parallel()
	state := NewReadinessState(time.Hour)
	state.MarkReady()

	raw, err := json.Marshal(state.Status())
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, true, body["directory_loaded"])
	assert.NotContains(t, body, "reason")
}

func TestReadinessState_ConcurrentRefreshes(t *testing.T) {
	t.Parallel()
	state := NewReadinessState(time.Hour)

	// Readers poll /readyz while several refreshes finish at once.
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			for range 50 {
				status := state.Status()
				if status.Loaded && !status.Ready {
					t.Error("loaded directory reported as not ready")
				}
			}
		})
		wg.Go(state.MarkReady)
	}
	wg.Wait()

	assert.True(t, state.DirectoryLoaded())
	assert.True(t, state.IsReady())
}
