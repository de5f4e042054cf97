package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/nutripath-backend/internal/handlers"
	"github.com/yungbote/nutripath-backend/internal/middleware"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	UserHandler     *handlers.UserHandler
	TargetsHandler  *handlers.TargetsHandler
	TrackingHandler *handlers.TrackingHandler
	JourneyHandler  *handlers.JourneyHandler
	AllowOrigins    []string
	TracingEnabled  bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("nutripath-backend"))
	}
	if cfg.Log != nil {
		router.Use(middleware.RequestLogger(cfg.Log))
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/refresh", cfg.AuthHandler.Refresh)
		protected.POST("/logout", cfg.AuthHandler.Logout)

		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.PUT("/me/persona", cfg.UserHandler.UpdatePersona)

		protected.GET("/targets", cfg.TargetsHandler.Get)
		protected.PUT("/targets", cfg.TargetsHandler.Update)

		protected.POST("/meals", cfg.TrackingHandler.LogMeal)
		protected.POST("/weigh-ins", cfg.TrackingHandler.AddWeighIn)
		protected.POST("/habits/:key/check", cfg.TrackingHandler.CheckHabit)
		protected.POST("/education/:slug/read", cfg.TrackingHandler.MarkEducationRead)

		protected.GET("/journey", cfg.JourneyHandler.GetJourney)
		protected.POST("/journey/tasks/:key/complete", cfg.JourneyHandler.CompleteTask)
	}

	return router
}
