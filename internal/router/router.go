package router

import (
	"net/http"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/handlers"

	"github.com/labstack/echo/v4"
)

// CallbackPath is the loopback redirect path registered with every provider.
const CallbackPath = "/callback"

func SetupCallbackRoutes(e *echo.Echo, callbackHandler *handlers.CallbackHandler) {
	e.GET(CallbackPath, callbackHandler.Callback)  // Query redirect (Google, Microsoft)
	e.POST(CallbackPath, callbackHandler.Callback) // form_post redirect (Apple)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
