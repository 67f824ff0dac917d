package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"django-deployer/internal/config"
	"django-deployer/internal/model"
	"django-deployer/internal/pkg/logger"
	"django-deployer/internal/service"
)

// sameCommit answers every git rev-parse with one hash.
type sameCommit struct{}

func (sameCommit) Run(string, bool) (*model.CommandResult, error) {
	return &model.CommandResult{Stdout: "3f2a9c1\n"}, nil
}

func builtProject(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	descriptorPath := filepath.Join(root, config.DefaultDescriptorFile)
	require.NoError(t, config.WriteDescriptorTemplate(descriptorPath))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gunicorn.conf.py"), []byte("workers = 3\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "mysite", "settings"), 0o755))
	return root, descriptorPath
}

func newTestRouter(t *testing.T, dial service.Dialer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root, descriptorPath := builtProject(t)
	log := logger.NewNop()

	deploySvc := service.NewDeployService(root, descriptorPath, sameCommit{}, dial, log)
	sshSvc := service.NewSSHService(descriptorPath, dial, log)

	r := gin.New()
	registerRoutes(r, NewSSHHandler(sshSvc), NewDeployHandler(deploySvc, service.NewProgressStore(), []string{"http://localhost:3000"}, log))
	return r
}

// registerRoutes mirrors router.RegisterRoutes, which cannot be imported from
// here without a cycle.
func registerRoutes(r *gin.Engine, sshHandler *SSHHandler, deployHandler *DeployHandler) {
	r.POST("/api/ssh/test", sshHandler.TestConnection)
	r.POST("/api/deploy", deployHandler.Deploy)
	r.GET("/api/deploy/progress/:taskId", deployHandler.Progress)
	r.GET("/api/deploy/ws/:taskId", deployHandler.Stream)
}

func startDeploy(t *testing.T, r *gin.Engine) (int, model.DeployResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/deploy", nil))
	var resp model.DeployResponse
	if w.Code == http.StatusAccepted {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func getProgress(t *testing.T, r *gin.Engine, taskID string) (int, model.ProgressResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/deploy/progress/"+taskID, nil))
	var resp model.ProgressResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func TestDeployReportsFailureThroughProgress(t *testing.T) {
	r := newTestRouter(t, func(*model.Descriptor) (service.RemoteConnection, error) {
		return nil, errors.New("connection refused")
	})

	code, resp := startDeploy(t, r)
	require.Equal(t, http.StatusAccepted, code)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.TaskID)

	require.Eventually(t, func() bool {
		_, p := getProgress(t, r, resp.TaskID)
		return p.Status == service.TaskStatusError
	}, 2*time.Second, 10*time.Millisecond)

	_, p := getProgress(t, r, resp.TaskID)
	assert.False(t, p.Success)
	assert.Contains(t, p.Error, "connect")
	assert.Contains(t, p.Logs, "Error on deploy project")
}

func TestDeployRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	r := newTestRouter(t, func(*model.Descriptor) (service.RemoteConnection, error) {
		<-release
		return nil, errors.New("connection refused")
	})

	code, first := startDeploy(t, r)
	require.Equal(t, http.StatusAccepted, code)

	code, _ = startDeploy(t, r)
	assert.Equal(t, http.StatusConflict, code)

	close(release)
	require.Eventually(t, func() bool {
		_, p := getProgress(t, r, first.TaskID)
		return p.Status == service.TaskStatusError
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		code, _ := startDeploy(t, r)
		return code == http.StatusAccepted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProgressUnknownTask(t *testing.T) {
	r := newTestRouter(t, nil)
	code, _ := getProgress(t, r, "nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStreamSendsEventsUntilFinished(t *testing.T) {
	release := make(chan struct{})
	r := newTestRouter(t, func(*model.Descriptor) (service.RemoteConnection, error) {
		<-release
		return nil, errors.New("connection refused")
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	code, resp := startDeploy(t, r)
	require.Equal(t, http.StatusAccepted, code)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/deploy/ws/" + resp.TaskID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	close(release)

	var events []model.DeployEvent
	for {
		var ev model.DeployEvent
		if err := ws.ReadJSON(&ev); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
			break
		}
		events = append(events, ev)
	}

	require.NotEmpty(t, events)
	assert.Equal(t, model.StateCheckingPrerequisites, events[0].State)
	last := events[len(events)-1]
	assert.Equal(t, model.EventFinished, last.Status)
	assert.Equal(t, "Error on deploy project", last.Message)
}

func TestSSHTestEndpoint(t *testing.T) {
	r := newTestRouter(t, func(*model.Descriptor) (service.RemoteConnection, error) {
		return nil, errors.New("connection refused")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ssh/test", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp model.SSHTestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}
