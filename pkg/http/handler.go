package http

import "github.com/labstack/echo/v4"

// Handler mounts its routes on the server's echo instance. Routes are
// registered after the shared middleware, so every route gets it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
