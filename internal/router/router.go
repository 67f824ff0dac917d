package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"django-deployer/internal/handler"
)

func RegisterRoutes(r *gin.Engine, sshHandler *handler.SSHHandler, deployHandler *handler.DeployHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		ssh := api.Group("/ssh")
		{
			ssh.POST("/test", sshHandler.TestConnection)
		}

		deploy := api.Group("/deploy")
		{
			deploy.POST("", deployHandler.Deploy)
			deploy.GET("/progress/:taskId", deployHandler.Progress)
			deploy.GET("/ws/:taskId", deployHandler.Stream)
		}
	}
}
