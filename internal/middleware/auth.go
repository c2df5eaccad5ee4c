package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/flowfin/auth-service/internal/tokens"
)

// BearerAuth guards protected routes: the caller must present a verifiable,
// unrevoked bearer access token in the Authorization header.
type BearerAuth struct {
	Tokens *tokens.Service
}

func NewBearerAuth(svc *tokens.Service) *BearerAuth {
	return &BearerAuth{Tokens: svc}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := m.Tokens.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		if claims.ID != "" {
			revoked, err := m.Tokens.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
		}

		c.Set("user_id", claims.Subject)
		return next(c)
	}
}
