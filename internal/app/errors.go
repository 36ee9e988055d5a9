package app

import (
	"errors"
	"fmt"

	"github.com/cft-yamuna/quiz-agent/internal/agent"
	"github.com/cft-yamuna/quiz-agent/internal/config"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// ErrorCode classifies errors shown to the user.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeConfig
	ErrCodeClient
	ErrCodeNotFound
	ErrCodeCancelled
	ErrCodeValidation
)

// AppError is a typed error with code for better error handling.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error with code.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Classify maps err onto an ErrorCode.
func Classify(err error) ErrorCode {
	var appErr *AppError
	var cfgErr config.ConfigError
	switch {
	case err == nil:
		return ErrCodeUnknown
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.Is(err, agent.ErrStopped):
		return ErrCodeCancelled
	case errors.Is(err, ErrProjectNotFound):
		return ErrCodeNotFound
	case errors.Is(err, config.ErrMissingAuth), errors.As(err, &cfgErr):
		return ErrCodeConfig
	default:
		return ErrCodeUnknown
	}
}

// LogOptional logs an error that occurred during optional feature initialization.
func LogOptional(feature string, err error) {
	if err != nil {
		logging.Warn("optional feature not available", "feature", feature, "error", err)
	}
}
