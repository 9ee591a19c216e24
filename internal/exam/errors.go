package exam

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by the engine matches exactly one of
// these through errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrConflict      = errors.New("conflict")
)

var (
	ErrTestNotAvailable      = fmt.Errorf("%w: test not available", ErrInvalidState)
	ErrMaxAttemptsReached    = fmt.Errorf("%w: max attempts reached", ErrInvalidState)
	ErrAlreadySubmitted      = fmt.Errorf("%w: attempt already submitted", ErrInvalidState)
	ErrResultNotReady        = fmt.Errorf("%w: result not ready", ErrInvalidState)
	ErrInsufficientQuestions = fmt.Errorf("%w: insufficient questions", ErrConfiguration)
)

// NotFoundf builds a NotFound error for a missing entity.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidStatef builds an InvalidState error.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Conflictf builds a Conflict error.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// ValidationError names the rule a request broke.
type ValidationError struct {
	Rule       string
	QuestionID string
	Msg        string
}

func (e *ValidationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("validation error: %s (question %s): %s", e.Rule, e.QuestionID, e.Msg)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Rule, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid is shorthand for a ValidationError.
func Invalid(rule, questionID, msg string) *ValidationError {
	return &ValidationError{Rule: rule, QuestionID: questionID, Msg: msg}
}

// ConfigError lists questions that make a test unscoreable.
type ConfigError struct {
	Msg         string
	QuestionIDs []string
}

func (e *ConfigError) Error() string {
	if len(e.QuestionIDs) == 0 {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Msg, strings.Join(e.QuestionIDs, ", "))
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

type InsufficientQuestionsError struct {
	RuleID    string
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("insufficient questions for rule %s: requested %d, available %d", e.RuleID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient questions: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientQuestionsError) Unwrap() error { return ErrInsufficientQuestions }
