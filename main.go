package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/audit"
	"github.com/campusmesh/campus/api/auth"
	"github.com/campusmesh/campus/api/config"
	"github.com/campusmesh/campus/api/controller"
	"github.com/campusmesh/campus/api/db"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/router"
	"github.com/campusmesh/campus/api/seed"
	"github.com/campusmesh/campus/api/service"
	"github.com/campusmesh/campus/api/util"
)

func main() {
	runSeed := flag.Bool("seed", false, "seed the permission catalog, baseline roles and super admin account on startup")
	flag.Parse()

	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize utilities and the audit trail
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationService := util.NewNotificationService()
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	jwtManager := auth.NewJWTManager(
		config.GetString("auth.jwtSecret"),
		config.GetDuration("auth.tokenDuration"),
	)

	// Initialize services and controllers
	services := service.InitializeServices(db.Neo4jDriver, auditService, jwtManager, validationUtil, cacheService, notificationService, eventBus)
	controllers := controller.InitializeControllers(services)

	if *runSeed {
		if err := seed.Run(ctx, db.Neo4jDriver, auditService, seed.Options{
			AdminEmail:    config.GetString("seed.adminEmail"),
			AdminPassword: config.GetString("seed.adminPassword"),
		}); err != nil {
			logger.Fatal("Failed to seed baseline data", zap.Error(err))
		}
	}

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(controllers, services, jwtManager, 100, time.Minute)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
