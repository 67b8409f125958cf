package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailmind/internal/handler"
)

// AuthMiddleware rejects requests without a signed-in user and caches the
// resolved user on the context for the handlers.
func AuthMiddleware(users handler.UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := users.GetCurrentUser(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}

			c.Set(handler.UserContextKey, user)
			return next(c)
		}
	}
}
