package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/chat"
	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/source"
	"github.com/fpang/tubescript-ai/internal/store"
	"github.com/fpang/tubescript-ai/internal/workflow"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string          `json:"error"`
	Kind  string          `json:"kind"`
	State *workflow.State `json:"state,omitempty"`
}

// classify maps err to an HTTP status and a stable kind string.
func classify(err error) (int, string) {
	var chatErr *chat.Error
	switch {
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, workflow.ErrPrecondition):
		return http.StatusBadRequest, "precondition"
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, source.ErrTooManyFiles),
		errors.Is(err, source.ErrDecode),
		errors.Is(err, source.ErrUnsupportedType),
		errors.Is(err, source.ErrEmpty),
		errors.Is(err, source.ErrTooLarge):
		return http.StatusBadRequest, "invalid_file"
	case errors.Is(err, credential.ErrEmptyKey), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, credential.ErrUnknownName), errors.Is(err, store.ErrInvalidID):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &chatErr):
		return chatStatus(chatErr.Kind), chatErr.Kind.String()
	}
	return http.StatusInternalServerError, "internal"
}

func chatStatus(k chat.Kind) int {
	switch k {
	case chat.KindMissingCredential, chat.KindInvalidCredential:
		return http.StatusUnauthorized
	case chat.KindQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// respondError writes the error body. state is included when the request
// reached a session.
func respondError(c *gin.Context, err error, state *workflow.State) {
	status, kind := classify(err)
	msg := err.Error()
	var chatErr *chat.Error
	if errors.As(err, &chatErr) {
		msg = chat.Message(err)
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("API request failed")
	} else {
		log.Debug().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("API request rejected")
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Kind: kind, State: state})
}
