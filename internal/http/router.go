package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries everything the router needs to wire its routes.
type RouterConfig struct {
	Handlers       *Handlers
	JWTSecret      string
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", guestHeader},
		AllowCredentials: true,
	}))
	router.Use(Identity(cfg.JWTSecret, cfg.Logger))

	router.GET("/healthz", cfg.Handlers.Healthz)

	api := router.Group("/api/v1")
	{
		api.GET("/questions", cfg.Handlers.ListQuestions)

		api.POST("/sessions", cfg.Handlers.CreateSession)
		api.GET("/sessions/:token", cfg.Handlers.GetSession)
		api.POST("/sessions/:token/start", cfg.Handlers.StartSession)
		api.POST("/sessions/:token/answers", cfg.Handlers.SubmitAnswer)
		api.POST("/sessions/:token/navigate", cfg.Handlers.Navigate)
		api.POST("/sessions/:token/submit", cfg.Handlers.SubmitSession)
		api.POST("/sessions/:token/reset", cfg.Handlers.ResetSession)

		api.POST("/bookmarks/toggle", cfg.Handlers.ToggleBookmark)
	}

	protected := router.Group("/api/v1")
	protected.Use(RequireAuth())
	{
		protected.POST("/results/save", cfg.Handlers.SaveGuestResult)
		protected.GET("/results/:id", cfg.Handlers.GetResult)
		protected.GET("/dashboard", cfg.Handlers.GetDashboard)
	}

	return router
}
