package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/business/user"
	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/middleware"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	Register(ctx context.Context, input user.RegisterInput) (domain.User, string, error)
	Login(ctx context.Context, email, password string) (domain.User, string, error)
	Logout(ctx context.Context, sessionID string) error
	GetUserByID(ctx context.Context, id uint) (domain.User, error)
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id uint, sessionID string) error
}

// FlashStore attaches one-shot messages to a session.
type FlashStore interface {
	SetFlash(ctx context.Context, sessionID string, msg domain.FlashMessage) error
}

type UserHandler struct {
	userService UserService
	flashes     FlashStore
	validator   *validator.Validate
	cookie      CookieConfig
	timeout     time.Duration
}

func NewUserHandler(userService UserService, flashes FlashStore, cookie CookieConfig) *UserHandler {
	return &UserHandler{
		userService: userService,
		flashes:     flashes,
		validator:   validator.New(),
		cookie:      cookie,
		timeout:     10 * time.Second,
	}
}

type UserRegisterRequest struct {
	FirstName       string `json:"firstName" form:"firstName" validate:"required"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Phone           string `json:"phone" form:"phone" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required"`
}

type UserLoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req UserRegisterRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate user register", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	newUser, sessionID, err := h.userService.Register(ctx, user.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		logger.Error("Failed to register user", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	metrics.Registrations.Inc()
	setSessionCookie(c, h.cookie, sessionID)

	if err := h.flashes.SetFlash(ctx, sessionID, domain.FlashMessage{
		Type:    "success",
		Message: "User added successfully",
	}); err != nil {
		logger.Warn("Failed to set flash message", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user":    newUser,
	})
}

func (h *UserHandler) Login(c echo.Context) error {
	var req UserLoginRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate user login", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	loggedIn, sessionID, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		logger.Error("Failed to login user", err)
		if strings.Contains(err.Error(), "session") {
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: err.Error()})
	}

	metrics.Logins.Inc()
	setSessionCookie(c, h.cookie, sessionID)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    loggedIn,
	})
}

// Logout destroys the session and clears the cookie. A later request to
// any protected route lands back on /login.
func (h *UserHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if cookie, err := c.Cookie(h.cookie.Name); err == nil && cookie.Value != "" {
		if err := h.userService.Logout(ctx, cookie.Value); err != nil {
			logger.Error("Failed to logout user", err)
			return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
		}
	}

	clearSessionCookie(c, h.cookie)
	return c.Redirect(http.StatusFound, "/login")
}

// Me returns the authenticated record, credential stripped. The strict
// auth gate already re-fetched it, so the mirror on the context is fresh.
func (h *UserHandler) Me(c echo.Context) error {
	mirror, ok := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": mirror,
	})
}

// GetUserByID handles getting a user by ID
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id := c.Param("id")

	var userID uint
	if _, err := fmt.Sscan(id, &userID); err != nil {
		logger.Error("Invalid user ID", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid user ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	found, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": found,
	})
}

// GetAllUsers handles getting all users
func (h *UserHandler) GetAllUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	users, err := h.userService.GetAllUsers(ctx)
	if err != nil {
		logger.Error("Failed to get all users", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// DeleteUser lets a user delete their own account only.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")

	var userID uint
	if _, err := fmt.Sscan(id, &userID); err != nil {
		logger.Error("Invalid user ID", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid user ID"})
	}

	mirror, _ := c.Get(middleware.ContextKeyUser).(domain.SessionUser)
	if mirror.ID != userID {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "you can delete only your account"})
	}

	sessionID, _ := c.Get(middleware.ContextKeySessionID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.userService.DeleteUser(ctx, userID, sessionID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	clearSessionCookie(c, h.cookie)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "User deleted successfully",
	})
}
