package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lungscreen/lungscreen/internal/domain/session"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	SessionKey   contextKey = "session"
)

// SessionMiddleware resolves the bearer token to a live session. Tokens for
// sessions that were logged out or expired are rejected.
func SessionMiddleware(tokens *TokenManager, sessions session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			sid, err := claims.SessionID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			s, err := sessions.Get(ctx, sid)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired or logged out")
			}

			c.SetRequest(c.Request().WithContext(WithSession(ctx, s)))
			return next(c)
		}
	}
}

// WithSession stores the session and its identity on ctx.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	ctx = context.WithValue(ctx, SessionKey, s)
	ctx = context.WithValue(ctx, UserIDKey, s.Username)
	ctx = context.WithValue(ctx, UserRolesKey, []string{s.Role})
	return ctx
}

func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(SessionKey).(*session.Session)
	return s
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
