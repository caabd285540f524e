package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/handler"
	"github.com/stemsi/mcq-engine/internal/middleware"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Launch   *handler.LaunchHandler
	Renderer *handler.RendererHandler
	Editor   *handler.EditorHandler
	Activity *handler.ActivityHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// launchLimiter may be nil to disable rate limiting on the launch route.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	launchLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.Brotli())

	// Question media referenced by mediaContent, cached for a day.
	if cfg.MediaDir != "" && len(cfg.MediaBasePath) > 1 && cfg.MediaBasePath[0] == '/' {
		media := router.Group(cfg.MediaBasePath)
		media.Use(middleware.CacheControl("public, max-age=86400"))
		{
			media.Static("/", cfg.MediaDir)
		}
	}

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Launch (Shell Key, Rate Limited) ───────────────────────────
	launch := api.Group("/launch")
	if launchLimiter != nil {
		launch.Use(launchLimiter.Middleware())
	}
	{
		launch.POST("", handlers.Launch.Launch)
	}

	// ─── 2. Renderer Sessions (Learner JWT) ────────────────────────────
	renderer := api.Group("/renderer/sessions")
	renderer.Use(middleware.RequireLearnerJWT(authService), middleware.NoStore())
	{
		renderer.POST("", handlers.Renderer.Start)
		renderer.GET("/:sid", handlers.Renderer.Get)
		renderer.DELETE("/:sid", handlers.Renderer.Close)
		renderer.GET("/:sid/config", handlers.Renderer.Config)
		renderer.GET("/:sid/status", handlers.Renderer.Status)
		renderer.GET("/:sid/report", handlers.Renderer.Report)
		renderer.POST("/:sid/select", handlers.Renderer.Select)
		renderer.POST("/:sid/submit", handlers.Renderer.Submit)
		renderer.POST("/:sid/grades", handlers.Renderer.ShowGrades)
	}

	// ─── 3. Editor Sessions (Author JWT) ───────────────────────────────
	editor := api.Group("/editor/sessions")
	editor.Use(middleware.RequireAuthorJWT(authService), middleware.NoStore())
	{
		editor.POST("", handlers.Editor.Start)
		editor.GET("/:sid", handlers.Editor.Get)
		editor.DELETE("/:sid", handlers.Editor.Close)
		editor.GET("/:sid/config", handlers.Editor.Config)
		editor.GET("/:sid/status", handlers.Editor.Status)
		editor.GET("/:sid/document", handlers.Editor.Document)
		editor.POST("/:sid/save", handlers.Editor.Save)

		editor.POST("/:sid/interactions/:ii/options", handlers.Editor.AddOption)
		editor.PUT("/:sid/interactions/:ii/options/:oi", handlers.Editor.EditOption)
		editor.DELETE("/:sid/interactions/:ii/options/:oi", handlers.Editor.RemoveOption)
		editor.POST("/:sid/interactions/:ii/options/:oi/toggle", handlers.Editor.ToggleOption)
		editor.POST("/:sid/interactions/:ii/options/:oi/blur", handlers.Editor.BlurOption)
		editor.POST("/:sid/interactions/:ii/move", handlers.Editor.MoveOption)
		editor.PUT("/:sid/interactions/:ii/correct", handlers.Editor.SetCorrect)

		editor.PUT("/:sid/questions/:qi", handlers.Editor.EditQuestion)
		editor.POST("/:sid/questions/:qi/toggle", handlers.Editor.ToggleQuestion)
		editor.POST("/:sid/questions/:qi/blur", handlers.Editor.BlurQuestion)
	}

	// ─── 4. Activities (Author JWT) ────────────────────────────────────
	activities := api.Group("/activities")
	activities.Use(middleware.RequireAuthorJWT(authService))
	{
		activities.GET("", handlers.Activity.ListActivities)
		activities.POST("", handlers.Activity.CreateActivity)
		activities.GET("/:id", handlers.Activity.GetActivity)
		activities.PUT("/:id", handlers.Activity.UpdateActivity)
		activities.DELETE("/:id", handlers.Activity.DeleteActivity)
		activities.GET("/:id/results.xlsx", handlers.Activity.ExportResults)
	}

	// ─── 5. System (Author JWT) ────────────────────────────────────────
	api.GET("/system/metrics", middleware.RequireAuthorJWT(authService), handlers.System.Metrics)

	// ─── 6. WebSocket (Learner JWT via ?token=) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireLearnerJWT(authService))
	{
		ws.GET("/renderer/sessions/:sid/stream", handlers.WS.RendererStream)
	}

	return router
}
