package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/utils"
)

// RequireRole lets the request through only when the token's role is one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if name, _ := role.(string); !allowed[name] {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%v access required", roles))
			c.Abort()
			return
		}

		c.Next()
	}
}
