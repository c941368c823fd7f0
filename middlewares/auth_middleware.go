package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/utils"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
	ContextToken  = "token"
)

// AuthMiddleware requires a bearer token. Browsers are redirected to loginURL with the
// requested path in "next"; API clients get 401 with the login URL in the payload.
func AuthMiddleware(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			requireLogin(c, loginURL, errors.New("Authorization header missing"))
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			requireLogin(c, loginURL, err)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextToken, tokenString)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func requireLogin(c *gin.Context, loginURL string, err error) {
	target := loginURL + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}

	utils.RespondErrorData(c, http.StatusUnauthorized, err, gin.H{"login_url": target})
	c.Abort()
}
