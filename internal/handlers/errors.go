package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/apierror"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// DefaultRangeDays is the range of list and stats queries without a from
const DefaultRangeDays = 30

// writeServiceError maps a service error to a problem response. Unexpected
// errors are logged and reported generically.
func writeServiceError(c *gin.Context, err error, resource, id string) {
	requestID := apierror.GetRequestID(c)

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fieldErrors := make([]apierror.FieldError, 0, len(verr.Errors))
		for _, fe := range verr.Errors {
			fieldErrors = append(fieldErrors, apierror.FieldError{Field: fe.Field, Message: fe.Message, Code: fe.Code})
		}
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, fieldErrors))
	case errors.Is(err, service.ErrUnauthenticated):
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(requestID))
	case errors.Is(err, service.ErrForbidden):
		apierror.WriteProblem(c, apierror.NewForbiddenError(requestID))
	case errors.Is(err, service.ErrNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	case errors.Is(err, service.ErrNothingToUndo):
		apierror.WriteProblem(c, apierror.NewNothingToUndoError(requestID))
	case errors.Is(err, service.ErrUndoExpired):
		apierror.WriteProblem(c, apierror.NewUndoExpiredError(requestID))
	case errors.Is(err, service.ErrBackupDisabled):
		apierror.WriteProblem(c, apierror.NewServiceUnavailableError(requestID, "Backups are not configured on this server.", 0))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed",
			logger.String("resource", resource),
			logger.Err(err),
		)
		_ = c.Error(err)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

func writeBadJSON(c *gin.Context, err error) {
	requestID := apierror.GetRequestID(c)
	apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
}

func writeInvalidParam(c *gin.Context, field, message string) {
	requestID := apierror.GetRequestID(c)
	apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{{
		Field:   field,
		Message: message,
		Code:    "invalid_format",
	}}))
}

// parseTime accepts an RFC 3339 timestamp or a YYYY-MM-DD day (midnight UTC)
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(models.DayLayout, raw)
}

// queryTime reads an optional time parameter, falling back to def. It writes
// the error response and returns false on malformed input.
func queryTime(c *gin.Context, key string, def time.Time) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	t, err := parseTime(raw)
	if err != nil {
		writeInvalidParam(c, key, "must be an RFC 3339 timestamp or YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// queryRange reads from/to parameters. A bare day for to includes the whole
// day. Missing values default to the last DefaultRangeDays days.
func queryRange(c *gin.Context, fromKey, toKey string, now time.Time) (time.Time, time.Time, bool) {
	to := now
	if raw := c.Query(toKey); raw != "" {
		if day, err := time.Parse(models.DayLayout, raw); err == nil {
			to = day.Add(24*time.Hour - time.Millisecond)
		} else if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			to = t
		} else {
			writeInvalidParam(c, toKey, "must be an RFC 3339 timestamp or YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
	}

	from, ok := queryTime(c, fromKey, to.AddDate(0, 0, -DefaultRangeDays))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeInvalidParam(c, key, "must be an integer")
		return 0, false
	}
	return v, true
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
