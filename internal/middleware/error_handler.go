package middleware

import (
	"net/http"

	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the echo HTTPErrorHandler: it keeps unexpected errors out
// of the wire and logs them instead.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error", err, "path", c.Path())
	}

	if err := c.JSON(code, response.Error(http.StatusText(code), message, nil)); err != nil {
		logger.Error("Failed to write error response", err)
	}
}
