package middleware

import (
	"context"
	"net/http"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/response"

	"github.com/labstack/echo/v4"
)

// SessionStore is what the auth gate needs from the session backend.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (domain.SessionData, error)
	Refresh(ctx context.Context, sessionID string, user domain.SessionUser) error
	Destroy(ctx context.Context, sessionID string) error
}

// UserStore re-validates the mirrored identity against durable state.
type UserStore interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

const (
	ContextKeyUser      = "user"
	ContextKeySessionID = "session_id"
	ContextKeySession   = "session"
)

// RequireAuthenticated is the strict auth gate: it resolves the session
// cookie to a mirror entry, re-fetches the user record to catch deleted
// accounts and stale ledger fields, refreshes the mirror, and only then
// continues. Anything else redirects to /login.
func RequireAuthenticated(cookieName string, sessions SessionStore, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusFound, "/login")
			}

			sessionID := cookie.Value
			ctx := c.Request().Context()

			session, err := sessions.Get(ctx, sessionID)
			if err != nil {
				return c.Redirect(http.StatusFound, "/login")
			}

			user, err := users.FindByID(ctx, session.User.ID)
			if err != nil {
				// account gone; the session must not outlive it
				if destroyErr := sessions.Destroy(ctx, sessionID); destroyErr != nil {
					logger.Error("Failed to destroy orphaned session", destroyErr)
				}
				return c.Redirect(http.StatusFound, "/login")
			}

			mirror := domain.NewSessionUser(user)
			if mirror != session.User {
				if err := sessions.Refresh(ctx, sessionID, mirror); err != nil {
					// a failed session save must not pass as authenticated
					logger.Error("Failed to refresh session mirror", err)
					return c.JSON(http.StatusInternalServerError, response.Error(
						"INTERNAL", "Session could not be updated", nil,
					))
				}
			}

			c.Set(ContextKeyUser, mirror)
			c.Set(ContextKeySessionID, sessionID)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireAnonymous sends already-authenticated callers back to the landing
// page.
func RequireAnonymous(cookieName string, sessions SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			if _, err := sessions.Get(c.Request().Context(), cookie.Value); err != nil {
				return next(c)
			}

			return c.Redirect(http.StatusFound, "/")
		}
	}
}

// AdminOnly assumes RequireAuthenticated ran first.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ContextKeyUser).(domain.SessionUser)
			if !ok || !user.IsAdmin {
				return c.JSON(http.StatusForbidden, response.Error(
					"FORBIDDEN", "Admin access required", nil,
				))
			}

			return next(c)
		}
	}
}
