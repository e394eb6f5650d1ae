package middleware

import (
	"bytes"
	"net/http"

	"github.com/JonnyWalker81/healthlog/backend/internal/apierror"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader carries the offline queue's operation id
const IdempotencyKeyHeader = "Idempotency-Key"

type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func replayable(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// Idempotency replays the stored response when a POST, PUT or PATCH
// arrives again with the same Idempotency-Key for the same route and user.
// Only 2xx responses are stored. Store failures never fail the request.
// Must run after Auth.
func Idempotency(repo repository.IdempotencyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || !replayable(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID := UserID(c)
		if userID == "" {
			apierror.AbortWithProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			return
		}
		route := c.Request.Method + " " + c.FullPath()
		log := logger.Ctx(ctx).With(logger.String("idempotency_key", key), logger.String("route", route))

		cached, err := repo.Get(ctx, key, route, userID)
		switch {
		case err != nil:
			log.Error("idempotency lookup failed, processing request", logger.Err(err))
		case cached != nil:
			log.Info("replaying stored response", logger.Int("status", cached.StatusCode))
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(cached.StatusCode, "application/json; charset=utf-8", cached.ResponseBody)
			c.Abort()
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := repo.Store(ctx, key, route, userID, rw.buf.Bytes(), status); err != nil {
			log.Warn("failed to store idempotent response", logger.Err(err))
		}
	}
}
