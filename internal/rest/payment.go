package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/business/payment"
	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/middleware"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PaymentHandler struct {
		validate       *validator.Validate
		paymentService PaymentService
		timeout        time.Duration
	}

	PaymentService interface {
		InitiateDeposit(ctx context.Context, sessionID string, userID uint, email string, amount float64, rawPhone, provider string) (payment.ChargeStatusView, error)
		CheckStatus(ctx context.Context, sessionID string, userID uint, reference string) (payment.ChargeStatusView, error)
		History(ctx context.Context, userID uint) ([]domain.Charge, error)
	}

	PaystackInitializeRequest struct {
		Amount float64 `json:"amount" form:"amount" validate:"required,gt=0"`
		Phone  string  `json:"phone" form:"phone" validate:"required"`
	}

	MpesaRequest struct {
		Amount float64 `json:"amount" form:"amount" validate:"required,gt=0"`
		Number string  `json:"number" form:"number" validate:"required"`
	}
)

func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{
		validate:       validator.New(),
		paymentService: paymentService,
		// gateway calls dominate; give them room without hanging forever
		timeout: 35 * time.Second,
	}
}

func (h *PaymentHandler) initiate(c echo.Context, amount float64, phone, provider string) error {
	mirror := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	sessionID := c.Get(middleware.ContextKeySessionID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.paymentService.InitiateDeposit(ctx, sessionID, mirror.ID, mirror.Email, amount, phone, provider)
	if err != nil {
		logger.Error("Failed to initiate deposit", err, "provider", provider)
		return c.JSON(paymentErrorCode(err), ResponseError{Message: err.Error()})
	}

	metrics.ChargesInitiated.WithLabelValues(provider).Inc()
	metrics.ChargeStatuses.WithLabelValues(provider, view.Status).Inc()

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

// InitializePaystack starts a Paystack mobile-money charge for the logged
// in user. The email comes from the session, never the request body.
func (h *PaymentHandler) InitializePaystack(c echo.Context) error {
	var req PaystackInitializeRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&req); err != nil {
		logger.Error("Failed to validate paystack initialize", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return h.initiate(c, req.Amount, req.Phone, domain.ProviderPaystack)
}

// InitiateMpesa pushes an STK prompt straight through Daraja.
func (h *PaymentHandler) InitiateMpesa(c echo.Context) error {
	var req MpesaRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validate.Struct(&req); err != nil {
		logger.Error("Failed to validate mpesa request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return h.initiate(c, req.Amount, req.Number, domain.ProviderMpesa)
}

// Status serves both /verify/:reference and /status/:reference: poll the
// gateway, persist the transition, credit at most once per reference.
func (h *PaymentHandler) Status(c echo.Context) error {
	reference := c.Param("reference")
	if reference == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "missing reference"})
	}

	mirror := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	sessionID := c.Get(middleware.ContextKeySessionID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	view, err := h.paymentService.CheckStatus(ctx, sessionID, mirror.ID, reference)
	if err != nil {
		logger.Error("Failed to check charge status", err, "reference", reference)
		return c.JSON(paymentErrorCode(err), ResponseError{Message: err.Error()})
	}

	metrics.ChargeStatuses.WithLabelValues("poll", view.Status).Inc()

	return c.JSON(http.StatusOK, fres.Response.StatusOK(view))
}

// History lists the caller's charge attempts.
func (h *PaymentHandler) History(c echo.Context) error {
	mirror := c.Get(middleware.ContextKeyUser).(domain.SessionUser)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	charges, err := h.paymentService.History(ctx, mirror.ID)
	if err != nil {
		logger.Error("Failed to load charge history", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(charges))
}

func paymentErrorCode(err error) int {
	switch {
	case strings.Contains(err.Error(), "not found"):
		return http.StatusNotFound
	case strings.Contains(err.Error(), "invalid"),
		strings.Contains(err.Error(), "unknown payment provider"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
