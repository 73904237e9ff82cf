package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kopuraj/SEM-Tracker/pkg/jwt"
	"github.com/Kopuraj/SEM-Tracker/pkg/response"
)

// UsernameKey is the context key holding the authenticated username.
const UsernameKey = "username"

// JWTAuth verifies the Authorization: Bearer <token> header and stores the
// token's username in the context.
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, 10002, "missing or malformed Authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "token invalid or expired")
			c.Abort()
			return
		}
		if claims.TokenType != "access" || claims.Username == "" {
			response.Unauthorized(c, 10002, "token type invalid")
			c.Abort()
			return
		}

		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
