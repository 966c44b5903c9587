package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/response"
)

const (
	// ContextSessionKey is the gin context key storing the current session.
	ContextSessionKey = "currentSession"
	// ContextTokenKey holds the raw session token of the request.
	ContextTokenKey = "sessionToken"
	// LoginPath is where anonymous browser requests are sent.
	LoginPath = "/"
)

// Authenticator resolves a session token into a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// RequireSession blocks requests without a valid session. Browsers asking for
// HTML are redirected to the login page, everything else receives a 401 JSON body.
func RequireSession(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, appErrors.ErrUnauthorized) {
				response.Error(c, err)
				c.Abort()
				return
			}
			if token != "" {
				ClearSessionCookie(c, cookieName)
			}
			if wantsHTML(c) {
				c.Redirect(http.StatusFound, LoginPath)
				c.Abort()
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// OptionalSession attaches the session when present but does not block.
func OptionalSession(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}
		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextSessionKey, session)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// SessionToken reads the session token from the cookie, falling back to a bearer header.
func SessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SessionFromContext returns the session attached by RequireSession or OptionalSession.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, cookieName string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}

func wantsHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}
