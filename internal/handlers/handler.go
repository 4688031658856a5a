package handlers

import (
	_ "countdown_timer/docs"
	"countdown_timer/internal/logger"
	"countdown_timer/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Config selects optional HTTP behaviour.
type Config struct {
	// AuthEnabled puts the timer controls behind a Bearer token.
	AuthEnabled bool
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      Config
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg Config) *Handler {
	return &Handler{services: services, log: log, cfg: cfg}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	// Landing on a shared link: /?t=300
	router.GET("/", h.openShared)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerTimerRoutes(api)
		api.GET("/presets", h.getPresets)
		api.GET("/logs", h.getLogs)
	}
}

func (h *Handler) registerTimerRoutes(api *gin.RouterGroup) {
	timer := api.Group("/timer")
	{
		timer.GET("/state", h.getState)
		timer.GET("/share", h.getShareLink)
	}

	control := api.Group("/timer")
	if h.cfg.AuthEnabled {
		control.Use(h.operatorMiddleware)
	}
	{
		// Body: {"seconds":300}
		control.POST("/configure", h.configure)
		// Body: {"minutes":"5","seconds":"0"}
		control.POST("/inputs", h.configureInputs)
		control.POST("/preset", h.applyPreset)
		control.POST("/start", h.start)
		control.POST("/pause", h.pause)
		control.POST("/resume", h.resume)
		control.POST("/reset", h.reset)
		control.POST("/toggle", h.toggle)
		// Body: {"enabled":false}, or empty to toggle
		control.POST("/sound", h.setSound)
	}
}
