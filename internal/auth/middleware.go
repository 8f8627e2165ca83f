package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const operatorKey = "operator"

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession rejects requests without a live session with 401.
func RequireSession(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		op, err := s.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				_ = c.Error(err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Set(operatorKey, *op)
		c.Next()
	}
}

// CurrentOperator returns the operator RequireSession stored on the context.
func CurrentOperator(c *gin.Context) (Operator, bool) {
	v, ok := c.Get(operatorKey)
	if !ok {
		return Operator{}, false
	}
	op, ok := v.(Operator)
	return op, ok
}
