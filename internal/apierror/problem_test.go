package apierror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		problem    *ProblemDetails
		wantType   string
		wantStatus int
		wantAction string
		wantRetry  int
	}{
		{"validation", NewValidationError("r", []FieldError{{Field: "mood"}}), TypeValidation, http.StatusBadRequest, "", 0},
		{"bad request", NewBadRequestError("r", "bad json", "Invalid request"), TypeBadRequest, http.StatusBadRequest, "", 0},
		{"invalid uuid", NewInvalidUUIDError("r", "id", "nope"), TypeInvalidUUID, http.StatusBadRequest, "", 0},
		{"unauthorized", NewUnauthorizedError("r"), TypeUnauthorized, http.StatusUnauthorized, "authenticate", 0},
		{"forbidden", NewForbiddenError("r"), TypeForbidden, http.StatusForbidden, "", 0},
		{"not found", NewNotFoundError("r", "Log entry", "abc"), TypeNotFound, http.StatusNotFound, "", 0},
		{"nothing to undo", NewNothingToUndoError("r"), TypeNothingToUndo, http.StatusConflict, "", 0},
		{"undo expired", NewUndoExpiredError("r"), TypeUndoExpired, http.StatusGone, "refresh_logs", 0},
		{"rate limit", NewRateLimitError("r", 60), TypeRateLimit, http.StatusTooManyRequests, "", 60},
		{"internal", NewInternalError("r"), TypeInternal, http.StatusInternalServerError, "", 0},
		{"unavailable", NewServiceUnavailableError("r", "backups disabled", 300), TypeUnavailable, http.StatusServiceUnavailable, "", 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.problem
			if p.Type != tt.wantType || p.Status != tt.wantStatus {
				t.Errorf("got %s/%d, want %s/%d", p.Type, p.Status, tt.wantType, tt.wantStatus)
			}
			if p.Title == "" || p.Detail == "" || p.UserMessage == "" {
				t.Errorf("title, detail and user_message must be set: %+v", p)
			}
			if p.RequestID != "r" {
				t.Errorf("RequestID = %q", p.RequestID)
			}
			if p.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", p.Action, tt.wantAction)
			}
			switch {
			case tt.wantRetry == 0 && p.RetryAfter != nil:
				t.Errorf("RetryAfter = %d, want unset", *p.RetryAfter)
			case tt.wantRetry != 0 && (p.RetryAfter == nil || *p.RetryAfter != tt.wantRetry):
				t.Errorf("RetryAfter = %v, want %d", p.RetryAfter, tt.wantRetry)
			}
		})
	}
}

func TestNotFoundDetail(t *testing.T) {
	if got := NewNotFoundError("r", "Routine", "").Detail; got != "Routine was not found" {
		t.Errorf("Detail = %q", got)
	}
	if got := NewNotFoundError("r", "Routine", "r-1").Detail; !strings.Contains(got, "'r-1'") {
		t.Errorf("Detail = %q, want id quoted", got)
	}
}

func TestInternalErrorIsGeneric(t *testing.T) {
	if got := NewInternalError("r").Error(); got != "An unexpected error occurred" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&ProblemDetails{Title: TitleForbidden}).Error(); got != TitleForbidden {
		t.Errorf("Error() without detail = %q, want title", got)
	}
}

func TestWriteProblem(t *testing.T) {
	tests := []struct {
		name      string
		problem   *ProblemDetails
		path      string
		wantRetry string
	}{
		{"rate limited", NewRateLimitError("r", 120), "/api/v1/logs", "120"},
		{"undo", NewNothingToUndoError("r"), "/api/v1/undo", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, tt.path, nil)

			AbortWithProblem(c, tt.problem)

			if !c.IsAborted() {
				t.Error("chain not aborted")
			}
			if w.Code != tt.problem.Status {
				t.Errorf("status = %d, want %d", w.Code, tt.problem.Status)
			}
			if got := w.Header().Get("Content-Type"); got != ContentTypeProblemJSON {
				t.Errorf("Content-Type = %q", got)
			}
			if got := w.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["instance"] != tt.path {
				t.Errorf("instance = %v, want %s", body["instance"], tt.path)
			}
			for _, field := range []string{"errors", "action"} {
				if _, ok := body[field]; ok {
					t.Errorf("empty %q should be omitted", field)
				}
			}
		})
	}
}

func TestGetRequestID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(c); got != "" {
		t.Errorf("no id: got %q", got)
	}

	c.Request.Header.Set("X-Request-ID", "from-header")
	if got := GetRequestID(c); got != "from-header" {
		t.Errorf("header fallback: got %q", got)
	}

	c.Set("request_id", "from-middleware")
	if got := GetRequestID(c); got != "from-middleware" {
		t.Errorf("context value: got %q", got)
	}
}
