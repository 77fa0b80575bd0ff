package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type requestIDKey struct{}

const userIDHeader = "X-User-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		requestID := RequestIDFromContext(c.Request.Context())
		if requestID == "" {
			requestID = c.GetString("request_id")
		}

		ev := logger.Info()
		if status >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// RequireSessionOwner rejects requests whose X-User-ID does not own the
// :session path parameter. It is a no-op when auth is disabled.
func (h *Handler) RequireSessionOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.auth {
			c.Next()
			return
		}

		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + userIDHeader + " header"})
			return
		}

		ok, err := h.owners.Owns(c.Request.Context(), userID, c.Param("session"))
		if err != nil {
			h.log.Error().Err(err).Str("user", userID).Msg("check session owner")
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to check owner", Detail: err.Error()})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "session not owned by user"})
			return
		}
		c.Next()
	}
}

// RequireUser only checks that a user id is present. Used for routes not
// bound to a single session.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.auth && c.GetHeader(userIDHeader) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + userIDHeader + " header"})
			return
		}
		c.Next()
	}
}
