package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowfin/auth-service/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Auth        *middleware.BearerAuth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Welcome to the FlowFin API"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")

	auth.POST("/sign_up", d.AuthHandler.SignUp)
	auth.POST("/sign_in", d.AuthHandler.SignIn)
	auth.POST("/refresh_token", d.AuthHandler.RefreshToken)

	private := auth.Group("")
	private.Use(d.Auth.RequireAuth)

	private.POST("/sign_out", d.AuthHandler.SignOut)
}
