package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"viewora-deals/internal/auth"
)

const identityKey = "identity"

// Auth resolves the caller from a Bearer token (or access_token cookie, the
// web client's transport) and stores the identity on the context.
func Auth(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := tokens.Verify(extractToken(c))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// Identity returns the identity Auth stored. Handlers behind Auth may call
// it unconditionally.
func Identity(c echo.Context) auth.Identity {
	identity, _ := c.Get(identityKey).(auth.Identity)
	return identity
}

// RequireClient admits clients only.
func RequireClient(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Identity(c).Role != "client" {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		return next(c)
	}
}

// RequireApprovedBroker admits admin-approved brokers only.
func RequireApprovedBroker(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !Identity(c).IsApprovedBroker() {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		return next(c)
	}
}

// RequireAdmin guards the administrative assignment path.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Identity(c).Role != "admin" {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		return next(c)
	}
}
