package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("already exists")
	ErrAIUnavailable    = errors.New("ai service unavailable")
)

// AIUnavailableMessage is the only thing a client learns about an AI failure.
const AIUnavailableMessage = "The AI service is temporarily unavailable. Please try again later."

// NotFoundError reports a missing (or not owned) resource as "<what> not found".
func NotFoundError(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// InvalidOperation wraps ErrInvalidOperation with the reason a client can act on.
func InvalidOperation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// ValidationError carries field-level reasons, keyed by json field path.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = reason
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// APIError pins an explicit status and machine-readable code to an error.
// Message, when set, replaces Err's text in the response body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func NewAPIError(status int, code string, err error) *APIError {
	return &APIError{Status: status, Code: code, Err: err}
}

// AIUnavailable hides a Generator failure behind a 502 with a fixed message.
// The cause stays reachable through errors.Is/As for logging.
func AIUnavailable(cause error) *APIError {
	return &APIError{
		Status:  fiber.StatusBadGateway,
		Code:    "ai_unavailable",
		Message: AIUnavailableMessage,
		Err:     fmt.Errorf("%w: %v", ErrAIUnavailable, cause),
	}
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// HandleError writes the JSON error response for err.
func HandleError(c *fiber.Ctx, err error) error {
	var vErr *ValidationError
	var apiErr *APIError
	var fErr *fiber.Error

	switch {
	case errors.As(err, &vErr):
		return ValidationFailed(c, vErr.Fields)
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return Error(c, apiErr.Status, errors.New(msg), fiber.Map{"code": apiErr.Code})
	case errors.Is(err, ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, ErrInvalidOperation):
		return BadRequest(c, err.Error(), fiber.Map{"code": "invalid_operation"})
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized(c, err.Error())
	case errors.Is(err, ErrConflict):
		return Conflict(c, err.Error())
	case errors.As(err, &fErr):
		return Error(c, fErr.Code, fErr)
	default:
		return InternalServerError(c)
	}
}
