package server

import (
	"context"
	"net/http"
	"time"

	"mentoring-svc/src/internal/dependency"
	"mentoring-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupSessionRoutes(router, deps)
	setupAdminRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	cfg := deps.Config

	deps.Router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		sqliteStatus := "ok"
		if err := deps.DB.PingContext(ctx); err != nil {
			sqliteStatus = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = getStatus(deps.Redis.Client.Ping(ctx).Err() == nil)
		}

		mongoStatus := "disabled"
		if deps.Mongodb != nil {
			mongoStatus = getStatus(deps.Mongodb.Client.Ping(ctx, nil) == nil)
		}

		rabbitStatus := "disabled"
		if deps.RabbitMQ != nil {
			rabbitStatus = getStatus(!deps.RabbitMQ.Conn.IsClosed())
		}

		c.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"sqlite":    sqliteStatus,
			"redis":     redisStatus,
			"mongodb":   mongoStatus,
			"rabbitmq":  rabbitStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	authHandler := deps.AuthHandler

	router.GET("/login", middleware.SetRouteName("loginForm"), authHandler.LoginForm)
	router.POST("/login", middleware.SetRouteName("login"), authHandler.Login)

	// Feed requests authenticate with the token in the query string.
	router.GET("/calendar/:file", middleware.SetRouteName("calendarFeed"), deps.CalendarHandler.Feed)
}

func setupSessionRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := deps.AuthMiddleware

	session := router.Group("/", authMiddleware.RequireSession())
	{
		session.POST("/logout", middleware.SetRouteName("logout"), deps.AuthHandler.Logout)

		session.GET("/", middleware.SetRouteName("dashboard"), deps.DashboardHandler.Index)
		session.POST("/", middleware.SetRouteName("dashboardAction"), deps.DashboardHandler.Dispatch)

		session.GET("/enlist", middleware.SetRouteName("enlistForm"), deps.MeetingHandler.EnlistForm)
		session.POST("/enlist", middleware.SetRouteName("enlist"), deps.MeetingHandler.Enlist)
		session.GET("/register", middleware.SetRouteName("availableMeetings"), deps.MeetingHandler.Available)
		session.GET("/meeting/:mid", middleware.SetRouteName("viewMeeting"), deps.MeetingHandler.View)
		session.POST("/meeting/:mid/register", middleware.SetRouteName("registerMeeting"), deps.MeetingHandler.Register)
		session.POST("/meeting/:mid/deregister", middleware.SetRouteName("deregisterMeeting"), deps.MeetingHandler.Deregister)

		session.GET("/expertise", middleware.SetRouteName("expertise"), deps.ExpertiseHandler.Get)
		session.POST("/expertise", middleware.SetRouteName("submitExpertise"), deps.ExpertiseHandler.Submit)

		session.GET("/calendar/link", middleware.SetRouteName("calendarLink"), deps.CalendarHandler.Link)
		session.GET("/activity", middleware.SetRouteName("activity"), deps.ActivityHandler.Recent)
	}
}

func setupAdminRoutes(router *gin.Engine, deps *dependency.Manager) {
	authMiddleware := deps.AuthMiddleware

	router.GET("/impersonate",
		middleware.SetRouteName("impersonateForm"),
		authMiddleware.RequireAdminOrLoopback(),
		deps.AuthHandler.ImpersonateForm)
	router.POST("/impersonate",
		middleware.SetRouteName("impersonate"),
		authMiddleware.RequireAdminOrLoopback(),
		deps.AuthHandler.Impersonate)

	admin := router.Group("/api/v1/admin", authMiddleware.RequireSession(), authMiddleware.RequireAdmin())
	{
		admin.GET("/users", middleware.SetRouteName("listUsers"), deps.CredentialHandler.ListUsers)
		admin.POST("/users", middleware.SetRouteName("createUser"), deps.CredentialHandler.CreateUser)
	}
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
