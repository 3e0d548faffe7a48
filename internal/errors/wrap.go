package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorWrapper attaches module/operation context and a user-facing message.
type ErrorWrapper struct {
	operation string
	module    string
}

// NewWrapper creates a new error wrapper with operation and module context.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{
		module:    module,
		operation: operation,
	}
}

// Wrap wraps an error with operation context.
// Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Operation:   w.operation,
		Module:      w.module,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf wraps an error with formatted message.
func (w *ErrorWrapper) Wrapf(err error, userMessageFormat string, args ...any) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Operation:   w.operation,
		Module:      w.module,
		Cause:       err,
		UserMessage: fmt.Sprintf(userMessageFormat, args...),
	}
}

// WrappedError contains both internal error details and user-facing message.
type WrappedError struct {
	Operation   string // e.g. "get_schedule", "refresh_directory"
	Module      string // e.g. "schedule", "directory"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the message to show an end user for err.
// WrappedError messages win; known sentinels map to fixed Russian texts;
// anything else gets a generic apology.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}

	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}

	var ambiguous *AmbiguousMatchError
	if errors.As(err, &ambiguous) {
		return "Найдено несколько преподавателей, уточните запрос"
	}

	switch {
	case errors.Is(err, ErrInvalidName):
		return "Группа или преподаватель не найдены"
	case errors.Is(err, ErrNoDocumentForDate):
		return "Расписание на эту дату не опубликовано"
	case errors.Is(err, ErrNoLessonsForDate):
		return "В этот день занятий нет"
	case errors.Is(err, ErrInvalidInput):
		return "Некорректный запрос"
	case errors.Is(err, ErrNotFound):
		return "Не найдено"
	case errors.Is(err, ErrDirectoryUnavailable), errors.Is(err, ErrNetworkFailure):
		return "Сайт университета недоступен, попробуйте позже"
	case errors.Is(err, context.DeadlineExceeded):
		return "Превышено время ожидания"
	}
	return "Произошла ошибка, попробуйте позже"
}
