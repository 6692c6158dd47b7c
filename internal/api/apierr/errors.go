package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/moonfall/internal/model"
	"github.com/mcoot/moonfall/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError in the response envelope
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotModerator       = "NOT_MODERATOR"
	CodeWrongPassword      = "WRONG_PASSWORD"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeInvalidTarget      = "INVALID_TARGET"
	CodeIncompleteVotes    = "INCOMPLETE_VOTES"
	CodeConflict           = "CONFLICT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError. Structured errors are
// matched first, then specific sentinels, then their categories.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var transitionErr *model.TransitionError
	if errors.As(err, &transitionErr) {
		return &httpError{http.StatusConflict, APIError{
			Code:    CodeInvalidTransition,
			Message: transitionErr.Error(),
			Details: map[string]any{"from": transitionErr.From, "to": transitionErr.To},
		}}
	}

	var incompleteErr *model.IncompleteVotesError
	if errors.As(err, &incompleteErr) {
		return &httpError{http.StatusConflict, APIError{
			Code:    CodeIncompleteVotes,
			Message: incompleteErr.Error(),
			Details: map[string]any{"recorded": incompleteErr.Recorded, "required": incompleteErr.Required},
		}}
	}

	var targetErr *model.TargetError
	if errors.As(err, &targetErr) {
		valid := targetErr.ValidTargets
		if valid == nil {
			valid = []model.PlayerID{}
		}
		return &httpError{http.StatusConflict, APIError{
			Code:    CodeInvalidTarget,
			Message: targetErr.Error(),
			Details: map[string]any{"reason": targetErr.Reason, "valid_targets": valid},
		}}
	}

	switch {
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Message: "Invalid or expired session"}}
	case errors.Is(err, model.ErrWrongPassword):
		return &httpError{http.StatusPreconditionFailed, APIError{Code: CodeWrongPassword, Message: "Wrong game password"}}
	case errors.Is(err, model.ErrVersionConflict), errors.Is(err, model.ErrGameCodeTaken):
		return &httpError{http.StatusConflict, APIError{Code: CodeConflict, Message: "The game changed concurrently, try again"}}

	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeGameNotFound, Message: "Game not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodePlayerNotFound, Message: "Player not found"}}
	case errors.Is(err, model.ErrNotModerator):
		return &httpError{http.StatusForbidden, APIError{Code: CodeNotModerator, Message: "Only the moderator can perform this action"}}

	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeNotFound, Message: err.Error()}}
	case errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{Code: CodeInvalidTransition, Message: err.Error()}}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusForbidden, APIError{Code: CodeUnauthorized, Message: err.Error()}}
	case errors.Is(err, model.ErrPreconditionFailed):
		return &httpError{http.StatusConflict, APIError{Code: CodePreconditionFailed, Message: err.Error()}}
	case errors.Is(err, model.ErrIncompleteVotes):
		return &httpError{http.StatusConflict, APIError{Code: CodeIncompleteVotes, Message: err.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthenticatedError is returned when a request carries no usable session
func NewUnauthenticatedError() error {
	return &httpError{http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Message: "Authentication required"}}
}

// NewForbiddenError is returned when a session does not belong to the requested game
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{Code: CodeUnauthorized, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
