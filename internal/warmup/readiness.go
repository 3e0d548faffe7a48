package warmup

import (
	"sync/atomic"
	"time"
)

// ReadinessState reports whether the service should receive traffic. It
// becomes ready once the directory holds a snapshot, or after timeout.
// Until a snapshot exists queries fail with directory_unavailable.
type ReadinessState struct {
	loaded    atomic.Bool
	startTime time.Time
	timeout   time.Duration
}

// ReadinessStatus is the /readyz response body.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Loaded         bool   `json:"directory_loaded"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// NewReadinessState starts the timeout clock.
func NewReadinessState(timeout time.Duration) *ReadinessState {
	return &ReadinessState{
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// IsReady reports whether the directory is loaded or the timeout elapsed.
func (s *ReadinessState) IsReady() bool {
	return s.loaded.Load() || time.Since(s.startTime) >= s.timeout
}

// MarkReady records that a directory snapshot is available.
func (s *ReadinessState) MarkReady() {
	s.loaded.Store(true)
}

// DirectoryLoaded reports whether MarkReady was called, ignoring the timeout.
func (s *ReadinessState) DirectoryLoaded() bool {
	return s.loaded.Load()
}

// Status returns the current readiness status.
func (s *ReadinessState) Status() ReadinessStatus {
	loaded := s.loaded.Load()
	status := ReadinessStatus{
		Ready:          s.IsReady(),
		Loaded:         loaded,
		ElapsedSeconds: int(time.Since(s.startTime).Seconds()),
		TimeoutSeconds: int(s.timeout.Seconds()),
	}

	switch {
	case !status.Ready:
		status.Reason = "directory load in progress"
	case !loaded:
		status.Reason = "timeout reached (directory may still be loading)"
	}
	return status
}
