package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapper(t *testing.T) {
	wrapper := NewWrapper("schedule", "get_schedule")

	t.Run("Wrap returns nil for nil error", func(t *testing.T) {
		result := wrapper.Wrap(nil, "Не удалось получить расписание")
		if result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})

	t.Run("Wrap creates WrappedError", func(t *testing.T) {
		baseErr := errors.New("pdf open failed")
		wrapped := wrapper.Wrap(baseErr, "Не удалось получить расписание")

		var wrappedErr *WrappedError
		if !errors.As(wrapped, &wrappedErr) {
			t.Fatal("expected WrappedError type")
		}

		if wrappedErr.Module != "schedule" {
			t.Errorf("expected module 'schedule', got '%s'", wrappedErr.Module)
		}

		if wrappedErr.Operation != "get_schedule" {
			t.Errorf("expected operation 'get_schedule', got '%s'", wrappedErr.Operation)
		}

		if !errors.Is(wrapped, baseErr) {
			t.Error("wrapped error should unwrap to base error")
		}
	})

	t.Run("Wrapf formats message", func(t *testing.T) {
		wrapped := wrapper.Wrapf(ErrInvalidName, "Группа %s не найдена", "ИВТ-99")

		expected := "Группа ИВТ-99 не найдена"
		if got := GetUserMessage(wrapped); got != expected {
			t.Errorf("expected '%s', got '%s'", expected, got)
		}
	})
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"invalid name", fmt.Errorf("resolve: %w", ErrInvalidName), "Группа или преподаватель не найдены"},
		{"ambiguous", NewAmbiguousMatchError("x", []Candidate{{Name: "a"}, {Name: "b"}}), "Найдено несколько преподавателей, уточните запрос"},
		{"network", NewScraperError("u", 502, errors.New("bad gateway")), "Сайт университета недоступен, попробуйте позже"},
		{"not found", fmt.Errorf("user: %w", ErrNotFound), "Не найдено"},
		{"unknown", errors.New("boom"), "Произошла ошибка, попробуйте позже"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserMessage(tt.err); got != tt.expected {
				t.Errorf("GetUserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}
