package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openrx/admatch/internal/domain/auth"
)

const claimsContextKey = "authClaims"

func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing bearer token", nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid token", err))
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func claimsFromContext(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}
