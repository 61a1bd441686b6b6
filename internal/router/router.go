package router

import (
	"time"

	"cashrecon/internal/config"
	"cashrecon/internal/handler"
	"cashrecon/internal/middleware"
	"cashrecon/internal/reconciliation"
	"cashrecon/internal/repository"
	"cashrecon/internal/service"
	"cashrecon/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is everything the HTTP layer and the workers share.
type Services struct {
	Auth           service.AuthService
	Snapshots      service.SnapshotService
	Reconciliation service.ReconciliationService
	LedgerGuard    *service.LedgerGuard
	Dispatcher     *worker.Dispatcher
}

// NewServices wires Service ← Repository ← DB/Redis.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	guard := service.NewLedgerGuard(repository.LedgerSources(db), cfg.LedgerBreakerThreshold, cfg.LedgerBreakerTimeout)

	// ── Engine ───────────────────────────────────────────────────────────────
	classifier := reconciliation.NewTokenClassifier(cfg.CreditTokenList()...)
	aggregator := reconciliation.NewAggregator(guard.Sources(), classifier, loc)
	engine := reconciliation.NewEngine(snapshotRepo, aggregator, loc)

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	deps := service.ReconciliationDeps{
		Engine:    engine,
		Publisher: service.NewRunPublisher(rdb),
		DefaultFx: cfg.FxRate(),
	}
	if cfg.MailEnabled() {
		deps.Alerts = dispatcher
		deps.AlertEmail = cfg.AlertEmail
	}
	recon := service.NewReconciliationService(deps)

	return &Services{
		Auth:           service.NewAuthService(userRepo, cfg),
		Snapshots:      service.NewSnapshotService(snapshotRepo, recon),
		Reconciliation: recon,
		LedgerGuard:    guard,
		Dispatcher:     dispatcher,
	}, nil
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svcs *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOriginList()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	usersH := handler.NewUsersHandler(svcs.Auth)
	snapshotsH := handler.NewSnapshotsHandler(svcs.Snapshots)
	reconH := handler.NewReconciliationHandler(svcs.Reconciliation)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, svcs.LedgerGuard.States))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	Register(v1, snapshotsH, reconH, usersH)
	v1.GET("/admin/dlq", middleware.RequireRole(middleware.RoleAdmin), handler.DeadLetters(rdb))

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// Register mounts the authenticated routes on an already-authenticated group.
// Roles: operator (snapshots and runs), admin (everything).
func Register(v1 *gin.RouterGroup, snapshotsH *handler.SnapshotsHandler, reconH *handler.ReconciliationHandler, usersH *handler.UsersHandler) {
	anyRole := middleware.RequireRole(middleware.RoleOperator, middleware.RoleAdmin)

	snaps := v1.Group("/snapshots", anyRole)
	{
		snaps.PUT("/today", snapshotsH.SaveToday)
		snaps.GET("/:date", snapshotsH.Get)
	}

	recon := v1.Group("/reconciliation", anyRole)
	{
		recon.GET("", reconH.Run)
		recon.GET("/latest", reconH.Latest)
	}

	users := v1.Group("/users", middleware.RequireRole(middleware.RoleAdmin))
	{
		users.POST("", usersH.Create)
		users.GET("", usersH.List)
		users.DELETE("/:id", usersH.Deactivate)
		users.PATCH("/:id/reactivate", usersH.Reactivate)
	}
}
