package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/pkg/auth"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// JWT validates the bearer token and stores the caller's id and role in the
// echo context. Downstream code trusts these values.
func JWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := auth.ParseToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}

// AdminOnly must run after JWT.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Role(c) != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func UserID(c echo.Context) uint {
	id, _ := c.Get(ContextUserID).(uint)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRole).(string)
	return role
}
