package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"userhub/internal/blacklist"
	"userhub/internal/cache"
	"userhub/internal/config"
	"userhub/internal/metrics"
	"userhub/internal/middleware"
	"userhub/internal/models"
	"userhub/internal/ratelimit"
	"userhub/internal/repository"
	"userhub/internal/security"
	"userhub/internal/service"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	authService   *service.AuthService
	userService   *service.UserService
	exportService *service.ExportService
	users         middleware.UserLoader
	codec         *security.TokenCodec
	revoked       *blacklist.Blacklist
	limiter       *ratelimit.Limiter
	metrics       *metrics.Registry
	db            *pgxpool.Pool
	cache         *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	redisClient *redis.Client,
	limiter *ratelimit.Limiter,
	reg *metrics.Registry,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	cacheStore := cache.NewStore(redisClient, log)
	revoked := blacklist.New(redisClient, log)
	codec := security.NewTokenCodec(
		cfg.Security.JWTSecret,
		cfg.Security.Issuer,
		cfg.Security.AccessTTL,
		cfg.Security.RefreshTTL,
	)

	auth := service.NewAuthService(userRepo, codec, revoked, cacheStore, log)
	users := service.NewUserService(userRepo, cacheStore, cfg.Cache.ListTTL, log)
	export := service.NewExportService(userRepo, redisClient, cfg.Redis.Stream, cfg.Export.JobStatusTTL, log)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		authService:   auth,
		userService:   users,
		exportService: export,
		users:         userRepo,
		codec:         codec,
		revoked:       revoked,
		limiter:       limiter,
		metrics:       reg,
		db:            db,
		cache:         redisClient,
	}
}

func (h HandlerSet) Limiter() *ratelimit.Limiter { return h.limiter }

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/health", h.Health)
	router.GET("/metrics", h.metrics.Handler())

	authGate := middleware.Auth(h.codec, h.users, h.revoked)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", middleware.RateLimitLogin(h.limiter, h.metrics, middleware.LoginLimitConfig{
			Limit:  h.cfg.RateLimit.LoginLimit,
			Window: h.cfg.RateLimit.LoginWindow,
		}), h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", authGate, h.Logout)
		auth.POST("/logout-all", authGate, h.LogoutAll)
		auth.GET("/me", authGate, h.Me)
	}

	users := router.Group("/users", authGate)
	{
		users.GET("/me", h.Me)
		users.GET("", adminOnly, h.ListUsers)
		users.POST("", adminOnly, h.CreateUser)
		users.GET("/:id", adminOnly, h.GetUser)
		users.PUT("/:id", adminOnly, h.UpdateUser)
		users.PATCH("/:id", adminOnly, h.UpdateUser)
		users.DELETE("/:id", adminOnly, h.DeleteUser)
	}

	admin := router.Group("/admin", authGate, adminOnly)
	{
		admin.GET("/users/export", h.ExportUsers)
		admin.POST("/users/export", h.ExportUsersQueued)
		admin.GET("/jobs/:id", h.ExportJobStatus)
	}
}
