package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"django-deployer/internal/handler"
	"django-deployer/internal/pkg/logger"
	"django-deployer/internal/service"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	root := t.TempDir()
	deploySvc := service.NewDeployService(root, root+"/deploy.yml", nil, nil, log)

	r := gin.New()
	RegisterRoutes(r,
		handler.NewSSHHandler(service.NewSSHService(root+"/deploy.yml", nil, log)),
		handler.NewDeployHandler(deploySvc, service.NewProgressStore(), nil, log),
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	routes := map[string]bool{}
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/ssh/test",
		"POST /api/deploy",
		"GET /api/deploy/progress/:taskId",
		"GET /api/deploy/ws/:taskId",
	} {
		assert.True(t, routes[want], want)
	}
}
