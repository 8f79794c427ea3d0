package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// contextKeyUserID — ключ, под которым middleware кладёт ID пользователя
// в контекст gin.
const contextKeyUserID = "user_id"

// TokenVerifier проверяет bearer-токен и возвращает ID пользователя.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AuthMiddleware извлекает и проверяет Bearer-токен из Authorization.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			respondError(c, http.StatusUnauthorized, "Authentication required.", "unauthorized")
			return
		}

		userID, err := verifier.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "Invalid or expired token.", "unauthorized")
			return
		}

		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

// currentUserID возвращает ID пользователя, установленный AuthMiddleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}
