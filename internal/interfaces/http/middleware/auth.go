package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazargo/backend/internal/interfaces/http/dto"
)

const userIDKey = "user_id"

// UserID resolves the caller's identity from the X-User-ID header stamped by
// the auth gateway in front of this service. Account management and token
// verification live there; this service only consumes the propagated id.
func UserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Invalid user identity", GetRequestID(c)))
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// RequireUser aborts with 401 when no authenticated user is present
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(userIDKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user id, or uuid.Nil when absent
func GetUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
