package apierror

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the MIME type for RFC 9457 Problem Details.
const ContentTypeProblemJSON = "application/problem+json"

type kind struct {
	typ, title  string
	status      int
	userMessage string
}

var (
	kindValidation    = kind{TypeValidation, TitleValidation, http.StatusBadRequest, "Please check your input and try again"}
	kindBadRequest    = kind{TypeBadRequest, TitleBadRequest, http.StatusBadRequest, ""}
	kindInvalidUUID   = kind{TypeInvalidUUID, TitleInvalidUUID, http.StatusBadRequest, "Invalid identifier format"}
	kindUnauthorized  = kind{TypeUnauthorized, TitleUnauthorized, http.StatusUnauthorized, "Please sign in to continue"}
	kindForbidden     = kind{TypeForbidden, TitleForbidden, http.StatusForbidden, "You don't have permission to perform this action"}
	kindNotFound      = kind{TypeNotFound, TitleNotFound, http.StatusNotFound, ""}
	kindNothingToUndo = kind{TypeNothingToUndo, TitleNothingToUndo, http.StatusConflict, "Nothing to undo"}
	kindUndoExpired   = kind{TypeUndoExpired, TitleUndoExpired, http.StatusGone, "This change can no longer be undone"}
	kindRateLimit     = kind{TypeRateLimit, TitleRateLimit, http.StatusTooManyRequests, "Too many requests. Please wait before trying again."}
	kindInternal      = kind{TypeInternal, TitleInternal, http.StatusInternalServerError, "Something went wrong. Please try again later."}
	kindUnavailable   = kind{TypeUnavailable, TitleUnavailable, http.StatusServiceUnavailable, "Service is temporarily unavailable. Please try again later."}
)

func (k kind) problem(requestID, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:        k.typ,
		Title:       k.title,
		Status:      k.status,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: k.userMessage,
	}
}

// WriteProblem writes problem as application/problem+json. Instance
// defaults to the request path and RetryAfter is mirrored into the
// Retry-After header.
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	c.Header("Content-Type", ContentTypeProblemJSON)
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}
	c.JSON(problem.Status, problem)
}

// AbortWithProblem writes the problem and stops the handler chain.
func AbortWithProblem(c *gin.Context, problem *ProblemDetails) {
	WriteProblem(c, problem)
	c.Abort()
}

// GetRequestID returns the id set by the RequestID middleware, falling back
// to the inbound header.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return c.GetHeader("X-Request-ID")
}

// NewValidationError reports every failing field at once.
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	p := kindValidation.problem(requestID, "One or more fields failed validation")
	p.Errors = errors
	return p
}

func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	p := kindBadRequest.problem(requestID, detail)
	p.UserMessage = userMessage
	return p
}

func NewInvalidUUIDError(requestID, field, value string) *ProblemDetails {
	p := kindInvalidUUID.problem(requestID, fmt.Sprintf("Invalid UUID format for field '%s': '%s'", field, value))
	p.Errors = []FieldError{{Field: field, Message: "must be a valid UUID", Code: "invalid_uuid"}}
	return p
}

func NewUnauthorizedError(requestID string) *ProblemDetails {
	p := kindUnauthorized.problem(requestID, "Authentication is required to access this resource")
	p.Action = "authenticate"
	return p
}

func NewForbiddenError(requestID string) *ProblemDetails {
	return kindForbidden.problem(requestID, "You do not have permission to access this resource")
}

// NewNotFoundError names the resource, and the id when one is given.
func NewNotFoundError(requestID, resource, id string) *ProblemDetails {
	detail := resource + " was not found"
	if id != "" {
		detail = fmt.Sprintf("%s with ID '%s' was not found", resource, id)
	}
	p := kindNotFound.problem(requestID, detail)
	p.UserMessage = fmt.Sprintf("The requested %s could not be found", resource)
	return p
}

// NewNothingToUndoError is returned when the undo ledger is empty.
func NewNothingToUndoError(requestID string) *ProblemDetails {
	return kindNothingToUndo.problem(requestID, "There is no recent change to undo")
}

// NewUndoExpiredError is returned when the newest change is older than the
// undo window.
func NewUndoExpiredError(requestID string) *ProblemDetails {
	p := kindUndoExpired.problem(requestID, "The most recent change is too old to undo")
	p.Action = "refresh_logs"
	return p
}

func NewRateLimitError(requestID string, retryAfter int) *ProblemDetails {
	p := kindRateLimit.problem(requestID, fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds", retryAfter))
	p.RetryAfter = &retryAfter
	return p
}

// NewInternalError never carries the underlying error; callers log it.
func NewInternalError(requestID string) *ProblemDetails {
	return kindInternal.problem(requestID, "An unexpected error occurred")
}

func NewServiceUnavailableError(requestID, detail string, retryAfter int) *ProblemDetails {
	p := kindUnavailable.problem(requestID, detail)
	p.RetryAfter = &retryAfter
	return p
}
