package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	membershipUseCase "github.com/roomkit/api/application/usecases/membership"
	"github.com/roomkit/api/domain/store"
	"github.com/roomkit/api/infrastructure/cache"
	"github.com/roomkit/api/infrastructure/config"
	"github.com/roomkit/api/infrastructure/logger"
	"github.com/roomkit/api/infrastructure/metrics"
	"github.com/roomkit/api/infrastructure/metrics/exporters"
	"github.com/roomkit/api/infrastructure/persistence/memstore"
	"github.com/roomkit/api/infrastructure/persistence/pgstore"
	"github.com/roomkit/api/infrastructure/persistence/redisstore"
	"github.com/roomkit/api/infrastructure/tracing"
	"github.com/roomkit/api/presentation/controllers/membership"
	"github.com/roomkit/api/presentation/middlewares"
	"github.com/roomkit/api/presentation/routes"
	"go.uber.org/zap"
)

func main() {
	cfg := config.GetConfig()

	var loggerInstance *logger.Logger
	var err error
	if cfg.IsProduction() {
		loggerInstance, err = logger.NewProductionLogger(cfg.Logger.Level)
	} else {
		loggerInstance, err = logger.NewDevelopmentLogger()
	}
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing logger: %w", err))
	}
	defer func() {
		_ = loggerInstance.Log.Sync()
	}()

	loggerInstance.Info("Starting Roomkit API")

	needsRedis := cfg.RoomDriver() == "redis" || cfg.UserDriver() == "redis"
	if needsRedis {
		if err := cache.InitRedis(cfg); err != nil {
			loggerInstance.Fatal("error initializing redis", zap.Error(err))
		}
		defer cache.CloseRedis()
	}

	tracerProvider, err := tracing.InitJaegerExporter(cfg)
	if err != nil {
		loggerInstance.Warn("failed to initialize Jaeger exporter, tracing disabled", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				loggerInstance.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	rooms, users, cleanup, err := buildStores(cfg)
	if err != nil {
		loggerInstance.Fatal("error initializing stores", zap.Error(err))
	}
	defer cleanup()

	membershipUC := membershipUseCase.NewMembershipUseCase(rooms, users, loggerInstance)

	meter := exporters.Prometheus(cfg.Jaeger.ServiceName, cfg.Jaeger.ServiceVersion)
	if meter == nil {
		loggerInstance.Fatal("failed to initialize Prometheus exporter")
	}
	metricsManager := metrics.NewMetricsManager(meter, loggerInstance)
	metricsManager.NewGauge("app_go_routines", "Number of goroutines")
	metricsManager.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	metricsManager.NewGauge("app_sys_total_alloc", "Total bytes allocated")
	metricsManager.NewGauge("app_go_numGC", "Number of completed GC cycles")
	metricsManager.NewGauge("app_go_sys", "Total bytes of memory obtained from OS")

	switch cfg.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	binding.Validator = new(middlewares.DefaultValidator)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.GinLogger(loggerInstance))
	router.Use(middlewares.CorsMiddleware(cfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	observability := router.Group("/observability")
	{
		metrics.GetHandler(observability, metricsManager)
	}

	v1 := router.Group("/api/v1")
	{
		if needsRedis {
			v1.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), loggerInstance, middlewares.ModerateRateLimiterConfig()))
		}

		controller := membership.NewMembershipController(membershipUC)
		routes.MembershipRoutes(v1, controller)
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		loggerInstance.Info("Server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("mode", cfg.Server.RunMode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	loggerInstance.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		loggerInstance.Fatal("Server forced to shutdown", zap.Error(err))
	}

	loggerInstance.Info("Server exited successfully")
}

// buildStores assembles the room and user collaborators per config. The
// returned cleanup closes whatever connections were opened.
func buildStores(cfg *config.Config) (store.RoomStore, store.UserStore, func(), error) {
	cleanup := func() {}

	var rooms store.RoomStore
	switch cfg.RoomDriver() {
	case "memory":
		rooms = memstore.NewRoomStore()
	default:
		rooms = redisstore.NewRoomStore(cache.GetRedis(), tracing.Tracer("roomstore"))
	}

	var users store.UserStore
	switch cfg.UserDriver() {
	case "memory":
		users = memstore.NewUserStore()
	case "postgres":
		db, err := pgstore.Open(cfg)
		if err != nil {
			return nil, nil, cleanup, err
		}
		cleanup = func() { _ = pgstore.Close(db) }
		users = pgstore.NewUserStore(db, tracing.Tracer("userstore"))
	default:
		users = redisstore.NewUserStore(cache.GetRedis(), tracing.Tracer("userstore"))
	}

	return rooms, users, cleanup, nil
}
