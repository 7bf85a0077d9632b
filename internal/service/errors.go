package service

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	ErrValidation ErrorKind = iota
	ErrBootstrap
	ErrStore
	ErrRetrieval
	ErrProvider
	ErrConversation
	ErrUnknown
)

// AssistError is the service-level error: a kind, a message, free-form
// context pairs and an optional cause.
type AssistError struct {
	Kind    ErrorKind
	Message string
	Context map[string]any
	Cause   error
}

func NewError(kind ErrorKind, message string) *AssistError {
	return &AssistError{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(kind ErrorKind, message string, cause error) *AssistError {
	return &AssistError{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *AssistError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *AssistError) Unwrap() error {
	return e.Cause
}

func (e *AssistError) WithContext(key string, value any) *AssistError {
	e.Context[key] = value
	return e
}

func (k ErrorKind) String() string {
	switch k {
	case ErrValidation:
		return "Validation"
	case ErrBootstrap:
		return "Bootstrap"
	case ErrStore:
		return "Store"
	case ErrRetrieval:
		return "Retrieval"
	case ErrProvider:
		return "Provider"
	case ErrConversation:
		return "Conversation"
	case ErrUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

func IsErrorKind(err error, kind ErrorKind) bool {
	var assistErr *AssistError
	if errors.As(err, &assistErr) {
		return assistErr.Kind == kind
	}
	return false
}

func WrapError(err error, kind ErrorKind, message string) *AssistError {
	return NewErrorWithCause(kind, message, err)
}
