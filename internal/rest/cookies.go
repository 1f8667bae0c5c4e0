package rest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieConfig describes the session cookie contract: HttpOnly, absolute
// 24h expiry, Secure outside development.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

func setSessionCookie(c echo.Context, cfg CookieConfig, sessionID string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context, cfg CookieConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
