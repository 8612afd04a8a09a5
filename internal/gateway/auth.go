package gateway

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mimedicina/portal/internal/platform/session"
)

const (
	ctxSession = "portal_session"
)

// RequireSession resolves the bearer session id into a live session, stores
// it on the echo context and threads the backend token through the request
// context for the REST client.
func RequireSession(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			sess, err := store.Get(strings.TrimPrefix(header, prefix))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			c.Set(ctxSession, sess)
			ctx := session.WithToken(c.Request().Context(), sess.BearerToken())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole gates a route group to the given account types.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := currentSession(c)
			if sess == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}
			for _, required := range roles {
				if sess.User.Type == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				"required role: "+strings.Join(roles, " or "))
		}
	}
}

func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(ctxSession).(*session.Session)
	return sess
}
