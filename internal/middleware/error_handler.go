package middleware

import (
	"errors"
	"net/http"
	"time"

	"cashrecon/internal/apierror"
	"cashrecon/internal/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorHandler turns the last error a handler attached with c.Error into the
// response. Validation and lookup failures are reported as such; everything
// else is logged and answered with a generic 500 so internals never leak.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var verrs reconciliation.ValidationErrors
		var verr reconciliation.ValidationError
		switch {
		case errors.As(err, &verrs):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apierror.NewValidation(verrs.Fields()))
			return
		case errors.As(err, &verr):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
				apierror.NewValidation(map[string]string{verr.Field: verr.Reason}))
			return
		case errors.Is(err, reconciliation.ErrSnapshotNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, apierror.New("No snapshot recorded for that date"))
			return
		case errors.Is(err, reconciliation.ErrStoreUnavailable):
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.FullPath()).
				Err(err).
				Msg("snapshot store unavailable")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				apierror.New("Snapshot storage is not provisioned. Run the database migrations and retry.").
					WithRequestID(c.GetString(RequestIDKey)))
			return
		}

		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err).
			Msg("unhandled error")

		// Safe message only, no stack trace
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			apierror.New("Internal server error").WithRequestID(c.GetString(RequestIDKey)))
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		evt := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
