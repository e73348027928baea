package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness probe of every service.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// SubscriberStatus is the root page of the notifications service.
func SubscriberStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "notifications subscriber running"})
}
