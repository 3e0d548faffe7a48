package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/garyellow/vyatsu-schedule/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		setupContext   func(context.Context) context.Context
		expectedFields map[string]string
	}{
		{
			name: "extracts all context values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithUserID(ctx, "tg-12345")
				ctx = ctxutil.WithRequestID(ctx, "req-abc-123")
				return ctxutil.WithEntity(ctx, "ИВТб-4301-03-00")
			},
			expectedFields: map[string]string{
				"user_id":    "tg-12345",
				"request_id": "req-abc-123",
				"entity":     "ИВТб-4301-03-00",
			},
		},
		{
			name: "extracts partial context values",
			setupContext: func(ctx context.Context) context.Context {
				return ctxutil.WithRequestID(ctx, "req-1")
			},
			expectedFields: map[string]string{
				"request_id": "req-1",
			},
		},
		{
			name: "handles empty context",
			setupContext: func(ctx context.Context) context.Context {
				return ctx
			},
			expectedFields: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewContextHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			logger := slog.New(handler)

			logger.InfoContext(tt.setupContext(context.Background()), "test message")

			output := buf.String()
			for key, value := range tt.expectedFields {
				expectedJSON := `"` + key + `":"` + value + `"`
				if !strings.Contains(output, expectedJSON) {
					t.Errorf("Expected field %s=%s not found in output: %s", key, value, output)
				}
			}
			if len(tt.expectedFields) == 0 {
				for _, field := range []string{"user_id", "request_id", "entity"} {
					if strings.Contains(output, `"`+field+`"`) {
						t.Errorf("Unexpected field %s found in output: %s", field, output)
					}
				}
			}
		})
	}
}

func TestContextHandler_Enabled(t *testing.T) {
	handler := NewContextHandler(slog.NewJSONHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be below threshold")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be above threshold")
	}
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewContextHandler(slog.NewJSONHandler(&buf, nil))

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("service", "vyatsu")}).WithGroup("grid"))
	ctx := ctxutil.WithRequestID(context.Background(), "req-7")
	logger.InfoContext(ctx, "parsed", "days", 6)

	output := buf.String()
	if !strings.Contains(output, `"service":"vyatsu"`) {
		t.Errorf("Expected service attribute not found in output: %s", output)
	}
	if !strings.Contains(output, `"grid":{`) || !strings.Contains(output, `"days":6`) {
		t.Errorf("Expected grid group not found in output: %s", output)
	}
}
