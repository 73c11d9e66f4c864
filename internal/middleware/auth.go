package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nboard/nboard-api/internal/apierrors"
	"github.com/nboard/nboard-api/internal/constants"
	"github.com/nboard/nboard-api/internal/identity"
)

// RequireAuth verifies the Authorization bearer credential against the
// identity verifier and stores the resolved user ID in the context.
// Absence or invalidity short-circuits with 401 before any other logic.
func RequireAuth(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierrors.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
