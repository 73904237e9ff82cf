package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

// ContextKeyUsername is where the JWT middleware stores the caller.
const ContextKeyUsername = "username"

// MustGetUsername extracts the authenticated username from the gin context.
// It writes a 401 and returns false when the JWT middleware did not run;
// callers should return immediately in that case.
func MustGetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUsername)
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}
