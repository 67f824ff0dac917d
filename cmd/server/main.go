package main

import (
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"django-deployer/internal/config"
	"django-deployer/internal/handler"
	"django-deployer/internal/pkg/logger"
	"django-deployer/internal/pkg/shell"
	"django-deployer/internal/router"
	"django-deployer/internal/service"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.LoadConfig()
	appLogger := logger.NewLogger(cfg.Logging)
	defer appLogger.Sync()

	if envErr != nil {
		appLogger.Debugw("no .env file loaded", "error", envErr)
	}

	descriptorPath := cfg.DescriptorPath()
	dial := service.NewSSHDialer(cfg.SSH, os.Stderr, os.Stderr, appLogger)

	// Services
	sshService := service.NewSSHService(descriptorPath, dial, appLogger)
	deployService := service.NewDeployService(cfg.Project.Root, descriptorPath, shell.NewRunner(cfg.Project.Root), dial, appLogger)
	progress := service.NewProgressStore()

	// Handlers
	sshHandler := handler.NewSSHHandler(sshService)
	deployHandler := handler.NewDeployHandler(deployService, progress, cfg.Server.AllowOrigins, appLogger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	router.RegisterRoutes(r, sshHandler, deployHandler)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	appLogger.Infow("server starting", "address", addr, "project_root", cfg.Project.Root)
	if err := r.Run(addr); err != nil {
		appLogger.Fatalw("failed to start server", "error", err)
	}
}
