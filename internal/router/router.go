package router

import (
	"huddle/config"
	"huddle/internal/handler"
	"huddle/internal/middleware"
	"huddle/internal/repository"
	"huddle/internal/service"
	"huddle/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, log *zap.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewSlidingWindowLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db, log)
	locationRepo := repository.NewLocationRepository(db)
	activityRepo := repository.NewActivityRepository(db, cfg.Search.MaxRadiusMeters)
	messageRepo := repository.NewMessageRepository(db)
	proximityRepo := repository.NewProximityRepository(db, cfg.Search.MaxRadiusMeters, cfg.Search.NearbyLimit)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo, log)
	groupHandler := handler.NewGroupHandler(groupRepo, proximityRepo, activityRepo, log)
	messageHandler := handler.NewMessageHandler(messageRepo, locationRepo, activityRepo, hub, log)
	locationHandler := handler.NewLocationHandler(locationRepo, log)
	activityHandler := handler.NewActivityHandler(activityRepo, proximityRepo, log)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/temporary", authHandler.CreateTemporary)
			users.POST("/login", authHandler.Login)
			users.POST("/refresh", authHandler.Refresh)
			users.POST("/reset-password", authHandler.ResetPassword)
			users.GET("/me", authMw, authHandler.Me)
			users.PATCH("/me", authMw, authHandler.UpdateNickname)
			users.PATCH("/me/password", authMw, authHandler.ChangePassword)
			users.GET("/me/location", authMw, locationHandler.GetMy)
			users.PUT("/me/location", authMw, locationHandler.Report)
			users.GET("/me/activities", authMw, activityHandler.MyActivities)
			users.GET("/nearby", authMw, activityHandler.NearbyUsers)
		}

		groups := api.Group("/groups")
		groups.Use(authMw)
		{
			groups.POST("", groupHandler.Create)
			groups.GET("", groupHandler.Search)
			groups.GET("/nearby", groupHandler.Nearby)
			groups.GET("/mine", groupHandler.Mine)
			groups.GET("/:id", groupHandler.Get)
			groups.POST("/:id/join", groupHandler.Join)
			groups.POST("/:id/leave", groupHandler.Leave)
			groups.POST("/:id/keepalive", groupHandler.KeepAlive)
			groups.GET("/:id/members", groupHandler.Members)
			groups.POST("/:id/messages", messageHandler.Create)
			groups.GET("/:id/messages", messageHandler.List)
		}

		activities := api.Group("/activities")
		activities.Use(authMw)
		{
			activities.POST("", activityHandler.Create)
			activities.GET("/nearby", activityHandler.Nearby)
		}

		api.GET("/ws/groups/:id", ws.UpgradeGroupWS(&cfg.JWT, hub, groupRepo))
	}

	return r
}
