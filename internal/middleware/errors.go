package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/eventify/ticketing/internal/model"
)

// abort writes the JSON error body shared by the whole API.
func abort(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, model.ErrorBody{Error: msg, Code: code})
}
