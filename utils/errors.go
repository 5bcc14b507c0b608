package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind mengelompokkan error workflow dan batch
type ErrorKind string

const (
	KindValidation           ErrorKind = "VALIDATION"
	KindPrerequisiteConflict ErrorKind = "PREREQUISITE_CONFLICT"
	KindTransient            ErrorKind = "TRANSIENT"
	KindRateLimit            ErrorKind = "RATE_LIMIT"
	KindFlowConsistency      ErrorKind = "FLOW_CONSISTENCY"
	KindUnexpected           ErrorKind = "UNEXPECTED"
)

// BotError error terstruktur: jenis, pesan, saran, dan penyebab
type BotError struct {
	Kind       ErrorKind
	Message    string
	Suggestion string
	Cause      error
}

// NewError membuat BotError baru
func NewError(kind ErrorKind, message, suggestion string) *BotError {
	return &BotError{Kind: kind, Message: message, Suggestion: suggestion}
}

// WrapError membungkus err dengan jenis dan pesan
func WrapError(err error, kind ErrorKind, message string) *BotError {
	return &BotError{Kind: kind, Message: message, Cause: err}
}

// NewValidationError error input user; step workflow tidak maju
func NewValidationError(message, suggestion string) *BotError {
	return NewError(KindValidation, message, suggestion)
}

// NewFlowConsistencyError event untuk workflow/step yang tidak cocok
func NewFlowConsistencyError(format string, args ...interface{}) *BotError {
	return NewError(KindFlowConsistency, fmt.Sprintf(format, args...), "")
}

func (e *BotError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// UserText teks untuk dikirim ke Telegram (pesan + saran)
func (e *BotError) UserText() string {
	if e.Suggestion == "" {
		return "❌ " + e.Message
	}
	return fmt.Sprintf("❌ %s\n\n%s", e.Message, e.Suggestion)
}

func (e *BotError) Unwrap() error {
	return e.Cause
}

// IsKind mengecek apakah err (atau penyebabnya) adalah BotError dengan jenis tertentu
func IsKind(err error, kind ErrorKind) bool {
	var be *BotError
	if errors.As(err, &be) {
		if be.Kind == kind {
			return true
		}
		if be.Cause != nil {
			return IsKind(be.Cause, kind)
		}
	}
	return false
}
