package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextActorID   = "actor_id"
	contextActorRole = "actor_role"
)

// Actor roles carried in the token's "role" claim.
const (
	RoleRider    = "rider"
	RoleDriver   = "driver"
	RoleOperator = "operator"
)

// ActorID returns the authenticated actor's ID from the request context.
func ActorID(c *gin.Context) string {
	return c.GetString(contextActorID)
}

// ActorRole returns the authenticated actor's role from the request context.
func ActorRole(c *gin.Context) string {
	return c.GetString(contextActorRole)
}

// AuthMiddleware validates the bearer token and stashes the actor's identity
// in the request context. Tokens are HMAC-signed with the shared secret; the
// subject claim is the actor ID.
func AuthMiddleware(secret string) gin.HandlerFunc {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		role, _ := claims["role"].(string)

		c.Set(contextActorID, sub)
		c.Set(contextActorRole, role)
		c.Next()
	}
}

// RequireRole rejects requests whose token carries a different role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}
