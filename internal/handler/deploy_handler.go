package handler

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"django-deployer/internal/model"
	"django-deployer/internal/pkg/logger"
	"django-deployer/internal/service"
)

const writeWait = 10 * time.Second

type DeployHandler struct {
	deployService *service.DeployService
	progress      *service.ProgressStore
	logger        *logger.Logger
	upgrader      websocket.Upgrader

	mu      sync.Mutex
	running bool
}

func NewDeployHandler(deployService *service.DeployService, progress *service.ProgressStore, allowOrigins []string, logger *logger.Logger) *DeployHandler {
	return &DeployHandler{
		deployService: deployService,
		progress:      progress,
		logger:        logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowOrigins, origin)
			},
		},
	}
}

// Deploy starts a pipeline run in the background. Only one run may be in
// flight; a second request gets 409 until the first finishes.
func (h *DeployHandler) Deploy(c *gin.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Success: false,
			Message: "a deployment is already running",
		})
		return
	}
	h.running = true
	h.mu.Unlock()

	taskID := uuid.New().String()
	h.progress.Create(taskID)

	go func() {
		defer func() {
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
		}()

		report := h.deployService.Deploy(func(ev model.DeployEvent) {
			h.progress.Record(taskID, ev)
		})
		h.progress.Finish(taskID, report)
		h.logger.Infow("deployment task finished",
			"task_id", taskID,
			"run_id", report.RunID,
			"state", report.State,
		)
	}()

	c.JSON(http.StatusAccepted, model.DeployResponse{
		Success: true,
		TaskID:  taskID,
		Message: "Deployment started",
	})
}

func (h *DeployHandler) Progress(c *gin.Context) {
	progress, ok := h.progress.Get(c.Param("taskId"))
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Message: "Task not found"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Stream upgrades to a websocket and sends the task's events as JSON, first
// the ones already recorded and then live ones until the task finishes.
func (h *DeployHandler) Stream(c *gin.Context) {
	taskID := c.Param("taskId")
	history, events, cancel, ok := h.progress.Subscribe(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Message: "Task not found"})
		return
	}
	defer cancel()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "task_id", taskID, "error", err)
		return
	}
	defer ws.Close()

	// Drain client frames so close messages are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev model.DeployEvent) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(ev); err != nil {
			h.logger.Warnw("websocket write failed", "task_id", taskID, "error", err)
			return false
		}
		return true
	}

	for _, ev := range history {
		if !send(ev) {
			return
		}
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "deployment finished"),
					time.Now().Add(writeWait))
				return
			}
			if !send(ev) {
				return
			}
		case <-closed:
			return
		}
	}
}
