package router

import (
	"github.com/Kkibe/spin-and-win-to-mpesa/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupAuthRoutes(e *echo.Echo, handler *rest.UserHandler, anonymousOnly echo.MiddlewareFunc) {
	auth := e.Group("/auth")

	auth.POST("/register", handler.Register, anonymousOnly)
	auth.POST("/login", handler.Login, anonymousOnly)
	auth.GET("/logout", handler.Logout)
}

func SetupUserRoutes(e *echo.Echo, userHandler *rest.UserHandler, ledgerHandler *rest.LedgerHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	users := e.Group("/users", authRequired)

	users.PUT("", ledgerHandler.Update)
	users.PUT("/activate", ledgerHandler.Activate)
	users.GET("/me", userHandler.Me)

	users.GET("", userHandler.GetAllUsers, adminOnly)
	users.GET("/:id", userHandler.GetUserByID, adminOnly)
	users.DELETE("/:id", userHandler.DeleteUser)
}

func SetupPaymentRoutes(e *echo.Echo, handler *rest.PaymentHandler, authRequired echo.MiddlewareFunc) {
	e.POST("/mpesa", handler.InitiateMpesa, authRequired)

	paystack := e.Group("/paystack", authRequired)
	paystack.POST("/initialize", handler.InitializePaystack)
	paystack.GET("/verify/:reference", handler.Status)
	paystack.GET("/status/:reference", handler.Status)
	paystack.GET("/history", handler.History)
}

func SetupPageRoutes(e *echo.Echo, handler *rest.PagesHandler, authRequired echo.MiddlewareFunc, anonymousOnly echo.MiddlewareFunc) {
	e.GET("/", handler.Home, authRequired)
	e.GET("/login", handler.Login, anonymousOnly)
	e.GET("/register", handler.Register, anonymousOnly)
}
