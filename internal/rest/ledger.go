package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/middleware"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	LedgerHandler struct {
		validate      *validator.Validate
		ledgerService LedgerService
		timeout       time.Duration
	}

	LedgerService interface {
		ApplyDelta(ctx context.Context, sessionID string, userID uint, delta domain.LedgerDelta) (domain.User, error)
		Activate(ctx context.Context, sessionID string, userID uint) (domain.User, error)
	}

	// LedgerRequest carries signed deltas, never absolute values. A client
	// submitted total_spins is ignored: that counter only moves server-side.
	LedgerRequest struct {
		Balance float64 `json:"balance"`
		Gems    int64   `json:"gems"`
		Spins   int64   `json:"spins"`
	}
)

func NewLedgerHandler(ledgerService LedgerService) *LedgerHandler {
	return &LedgerHandler{
		validate:      validator.New(),
		ledgerService: ledgerService,
		timeout:       10 * time.Second,
	}
}

// Update applies the delta atomically, clamped at zero, and responds with
// the persisted record after the session mirror was refreshed.
func (h *LedgerHandler) Update(c echo.Context) error {
	mirror := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	sessionID := c.Get(middleware.ContextKeySessionID).(string)

	var req LedgerRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.ledgerService.ApplyDelta(ctx, sessionID, mirror.ID, domain.LedgerDelta{
		Balance: req.Balance,
		Gems:    req.Gems,
		Spins:   req.Spins,
	})
	if err != nil {
		logger.Error("Failed to apply ledger delta", err)
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.LedgerMutations.Inc()

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

// Activate is the manual activation endpoint; the store guard keeps it
// from ever crediting twice.
func (h *LedgerHandler) Activate(c echo.Context) error {
	mirror := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	sessionID := c.Get(middleware.ContextKeySessionID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.ledgerService.Activate(ctx, sessionID, mirror.ID)
	if err != nil {
		logger.Error("Failed to activate user", err)
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}
