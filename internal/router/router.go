package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mailmind/internal/handler"
	"mailmind/internal/middleware"
)

func SetupRoutes(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	emailHandler *handler.EmailHandler,
) {
	// Public routes
	e.GET("/auth/:provider", authHandler.BeginAuthHandler)
	e.GET("/auth/:provider/callback", authHandler.CallbackHandler)
	e.GET("/auth/logout", authHandler.LogoutHandler)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Protected API routes
	protected := e.Group("/api")
	protected.Use(middleware.AuthMiddleware(authHandler))

	protected.GET("/me", authHandler.Me)
	protected.GET("/stats", emailHandler.GetStats)
	protected.POST("/classify", emailHandler.PreviewClassification)

	protected.GET("/emails", emailHandler.GetEmails)
	protected.GET("/emails/export", emailHandler.ExportEmails)
	protected.POST("/emails/refresh", emailHandler.RefreshEmails)
	protected.POST("/emails/classify-all", emailHandler.ClassifyAll)
	protected.POST("/emails/processed", emailHandler.MarkAllProcessed)
	protected.GET("/emails/:id", emailHandler.GetEmail)
	protected.POST("/emails/:id/classify", emailHandler.ClassifyEmail)
	protected.POST("/emails/:id/reply", emailHandler.SelectReply)
	protected.POST("/emails/:id/processed", emailHandler.MarkProcessed)

	// Progress of refresh and batch classification via Server-Sent Events (SSE)
	protected.GET("/events", emailHandler.Events)
}
