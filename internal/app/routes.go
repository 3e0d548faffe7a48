package app

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/vyatsu-schedule/internal/sentry"
)

// routes builds the HTTP router.
func (a *Application) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.handleLive)
	router.HEAD("/livez", a.handleLive)
	router.GET("/readyz", a.handleReady)
	router.HEAD("/readyz", a.handleReady)

	router.GET("/metrics",
		basicAuthMiddleware("metrics", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	if a.imageDir != "" {
		router.Static("/images", a.imageDir)
	}

	api := router.Group("/api", rateLimitMiddleware(a.apiLimiter))
	{
		api.GET("/directory", a.handleDirectoryStats)
		api.GET("/groups/canonical", a.handleCanonicalGroup)
		api.GET("/instructors", a.handleFindInstructor)

		api.GET("/schedule", a.handleSchedule)
		api.GET("/schedule/select", a.handleSelectInstructor)
		api.GET("/schedule/week", a.handleWeek)
		api.GET("/schedule/link", a.handleLink)

		users := api.Group("/users/:id", userContextMiddleware())
		users.PUT("/group", a.handleSaveUserGroup)
		users.GET("/schedule", a.handleUserSchedule)
		users.DELETE("", a.handleDeleteUser)

		api.POST("/feedback", a.handleFeedback)
	}

	admin := router.Group("/api/admin",
		requireConfiguredAuth(a.cfg.MetricsPassword),
		basicAuthMiddleware("admin", a.cfg.MetricsUsername, a.cfg.MetricsPassword))
	{
		admin.POST("/directory/refresh", a.handleDirectoryRefresh)
		admin.GET("/feedback/stats", a.handleFeedbackStats)
		admin.GET("/feedback", a.handleFeedbackSearch)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return router
}
