package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"django-deployer/internal/service"
)

type SSHHandler struct {
	sshService *service.SSHService
}

func NewSSHHandler(sshService *service.SSHService) *SSHHandler {
	return &SSHHandler{
		sshService: sshService,
	}
}

// TestConnection dials the server named in the deploy descriptor and runs a
// few read-only probes.
func (h *SSHHandler) TestConnection(c *gin.Context) {
	result := h.sshService.TestConnection()
	c.JSON(http.StatusOK, result)
}
