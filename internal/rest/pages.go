package rest

import (
	"context"
	"net/http"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/middleware"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FlashReader consumes the one-shot session message.
type FlashReader interface {
	TakeFlash(ctx context.Context, sessionID string) (*domain.FlashMessage, error)
}

// PagesHandler serves the JSON stand-ins for the rendered pages: the spin
// landing page behind the strict gate, login/register behind the anonymous
// gate.
type PagesHandler struct {
	flashes FlashReader
}

func NewPagesHandler(flashes FlashReader) *PagesHandler {
	return &PagesHandler{
		flashes: flashes,
	}
}

// Home returns the fresh mirror plus the pending flash message. Reading
// the message deletes it; a reload will not see it again.
func (h *PagesHandler) Home(c echo.Context) error {
	mirror := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	sessionID := c.Get(middleware.ContextKeySessionID).(string)

	flash, err := h.flashes.TakeFlash(c.Request().Context(), sessionID)
	if err != nil {
		logger.Warn("Failed to take flash message", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":    mirror,
		"message": flash,
	})
}

func (h *PagesHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"page": "login",
	})
}

func (h *PagesHandler) Register(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"page": "register",
	})
}
