package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

func TestNewMultiHandler_NilFiltering(t *testing.T) {
	t.Parallel()

	mh := NewMultiHandler(nil, slog.NewJSONHandler(&bytes.Buffer{}, nil), nil)
	if len(mh.handlers) != 1 {
		t.Errorf("Expected 1 handler after filtering nils, got %d", len(mh.handlers))
	}
}

func TestMultiHandler_Handle_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	debugHandler := slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelDebug})
	errorHandler := slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError})

	mh := NewMultiHandler(debugHandler, errorHandler)
	if !mh.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled by the debug sink")
	}

	slog.New(mh).Info("info message")

	if buf1.Len() == 0 {
		t.Error("Debug handler should have received info message")
	}
	if buf2.Len() != 0 {
		t.Error("Error handler should NOT have received info message")
	}
}

func TestMultiHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mh := NewMultiHandler(slog.NewJSONHandler(&buf, nil))

	logger := slog.New(mh.WithGroup("request").WithAttrs([]slog.Attr{slog.String("id", "123")}))
	logger.Info("test message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	request, ok := entry["request"].(map[string]any)
	if !ok || request["id"] != "123" {
		t.Errorf("Expected request.id='123', got %v", entry)
	}
}

type failingHandler struct {
	slog.Handler
}

func (h *failingHandler) Handle(context.Context, slog.Record) error { return errors.New("handler error") }
func (h *failingHandler) Enabled(context.Context, slog.Level) bool  { return true }

func TestMultiHandler_Handle_ErrorCollection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mh := NewMultiHandler(slog.NewJSONHandler(&buf, nil), &failingHandler{})

	err := mh.Handle(context.Background(), slog.Record{Message: "test"})

	if buf.Len() == 0 {
		t.Error("Good handler should have written the log")
	}
	if err == nil || err.Error() != "handler error" {
		t.Errorf("Expected 'handler error', got %v", err)
	}
}

func TestMultiHandler_Concurrent(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	var mu1, mu2 sync.Mutex
	mh := NewMultiHandler(
		slog.NewJSONHandler(&lockedWriter{w: &buf1, mu: &mu1}, nil),
		slog.NewJSONHandler(&lockedWriter{w: &buf2, mu: &mu2}, nil),
	)
	logger := slog.New(mh)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			logger.Info("concurrent log", "iteration", i)
		})
	}
	wg.Wait()

	if n := bytes.Count(buf1.Bytes(), []byte("concurrent log")); n != 50 {
		t.Errorf("Handler1 should have 50 logs, got %d", n)
	}
	if n := bytes.Count(buf2.Bytes(), []byte("concurrent log")); n != 50 {
		t.Errorf("Handler2 should have 50 logs, got %d", n)
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
