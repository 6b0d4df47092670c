package auth

import (
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/aevon-lab/rule-engine/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key holding the authenticated token subject.
const SubjectKey = "auth.subject"

// Middleware requires a valid bearer token signed with secret.
// An empty secret disables authentication.
func Middleware(secret []byte) gin.HandlerFunc {
	if len(secret) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		claims, err := ParseJWT(token, secret)
		if err != nil {
			slog.Debug("[Auth] Token rejected", "path", c.FullPath(), "error", err)
			abortUnauthorized(c, "invalid bearer token")
			return
		}
		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// Subject returns the authenticated subject, if any.
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.ErrorResponse{
		ErrorType: apierrors.HttpUnauthorizedError,
		Message:   msg,
	})
}
