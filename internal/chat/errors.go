package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Kind categorizes a generation failure.
type Kind int

const (
	KindGenerationFailed Kind = iota
	KindMissingCredential
	KindInvalidCredential
	KindQuotaExceeded
	KindResultMissing
)

// Sentinels for errors.Is. An invalid credential also matches
// ErrGenerationFailed.
var (
	ErrGenerationFailed  = errors.New("generation failed")
	ErrMissingCredential = errors.New("API key is not configured")
	ErrInvalidCredential = errors.New("API key is invalid or has been revoked")
	ErrQuotaExceeded     = errors.New("API quota exceeded or rate limited")
	ErrResultMissing     = errors.New("model returned no usable result")
)

func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindResultMissing:
		return "result_missing"
	default:
		return "generation_failed"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindMissingCredential:
		return ErrMissingCredential
	case KindInvalidCredential:
		return ErrInvalidCredential
	case KindQuotaExceeded:
		return ErrQuotaExceeded
	case KindResultMissing:
		return ErrResultMissing
	default:
		return ErrGenerationFailed
	}
}

// Error is the typed failure returned by every generation call.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.sentinel().Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	if target == e.Kind.sentinel() {
		return true
	}
	return e.Kind == KindInvalidCredential && target == ErrGenerationFailed
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindGenerationFailed for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGenerationFailed
}

// Message renders err as user-facing guidance.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindMissingCredential:
		return "No API key is configured. Save a Gemini API key and try again."
	case KindInvalidCredential:
		return "The API key was rejected. Check the key and save it again."
	case KindQuotaExceeded:
		return "The API quota was exceeded. Wait a moment and try again."
	case KindResultMissing:
		return "The model did not return a usable result. Please try again."
	default:
		return "Generation failed. Please try again."
	}
}

// Classify maps a transport error from a backend to a typed Error.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindGenerationFailed, op, err)
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(op, apiErr.Code, apiErr.Status+" "+apiErr.Message, err)
	}
	return classifyMessage(op, err)
}

// ClassifyStatus maps an HTTP status and body from a REST backend.
func ClassifyStatus(op string, code int, body string, err error) *Error {
	return classifyAPIError(op, code, body, err)
}

func classifyAPIError(op string, code int, detail string, err error) *Error {
	lower := strings.ToLower(detail)
	switch {
	case code == 429 || isQuotaMessage(lower):
		log.Error().Int("code", code).Str("op", op).Msg("Rate limit exceeded")
		return newError(KindQuotaExceeded, op, err)
	case code == 401 || code == 403:
		log.Error().Int("code", code).Str("op", op).Msg("Authentication failed - invalid API key")
		return newError(KindInvalidCredential, op, err)
	case code == 400 && isInvalidKeyMessage(lower):
		log.Error().Int("code", code).Str("op", op).Msg("Bad request - API key rejected")
		return newError(KindInvalidCredential, op, err)
	default:
		log.Error().Int("code", code).Str("op", op).Err(err).Msg("Generation request failed")
		return newError(KindGenerationFailed, op, err)
	}
}

func classifyMessage(op string, err error) *Error {
	lower := strings.ToLower(err.Error())
	switch {
	case isQuotaMessage(lower):
		return newError(KindQuotaExceeded, op, err)
	case isInvalidKeyMessage(lower):
		return newError(KindInvalidCredential, op, err)
	default:
		return newError(KindGenerationFailed, op, err)
	}
}

func isQuotaMessage(s string) bool {
	return strings.Contains(s, "quota") ||
		strings.Contains(s, "resource exhausted") ||
		strings.Contains(s, "resource_exhausted") ||
		strings.Contains(s, "rate limit")
}

func isInvalidKeyMessage(s string) bool {
	return strings.Contains(s, "api key not valid") ||
		strings.Contains(s, "invalid api key") ||
		strings.Contains(s, "api_key_invalid") ||
		strings.Contains(s, "permission denied")
}

// NewError builds a typed Error for backends outside this package.
func NewError(kind Kind, op string, err error) *Error {
	return newError(kind, op, err)
}
