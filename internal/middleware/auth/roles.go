package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plateprep/plateprep/internal/domain/model"
)

// RequireRole rejects requests whose authenticated user holds none of the
// given roles. Must run after JWTMiddleware.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := CurrentUser(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authentication required",
					"code":  "AUTH_REQUIRED",
				})
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "Insufficient permissions",
				"code":  "FORBIDDEN",
			})
		}
	}
}
