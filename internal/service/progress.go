package service

import (
	"fmt"
	"sync"

	"django-deployer/internal/model"
)

const (
	TaskStatusDeploying = "deploying"
	TaskStatusSuccess   = "success"
	TaskStatusError     = "error"

	subscriberBuffer = 64
)

type task struct {
	progress  model.ProgressResponse
	completed int
	events    []model.DeployEvent
	subs      map[chan model.DeployEvent]struct{}
	done      bool
}

// ProgressStore keeps the progress of deploy tasks started over HTTP and fans
// their events out to subscribers.
type ProgressStore struct {
	mu    sync.Mutex
	tasks map[string]*task
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{tasks: make(map[string]*task)}
}

func (p *ProgressStore) Create(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[taskID] = &task{
		progress: model.ProgressResponse{
			Success: true,
			Status:  TaskStatusDeploying,
			Logs:    []string{"Deployment started"},
		},
		subs: make(map[chan model.DeployEvent]struct{}),
	}
}

// Record appends ev to the task and forwards it to every subscriber. A
// subscriber that is not keeping up loses events rather than blocking the
// deploy.
func (p *ProgressStore) Record(taskID string, ev model.DeployEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[taskID]
	if !ok || t.done {
		return
	}

	t.events = append(t.events, ev)
	switch ev.Status {
	case model.EventSucceeded:
		t.completed++
		t.progress.Progress = float64(t.completed*100) / float64(TotalSteps())
		t.progress.Logs = append(t.progress.Logs, fmt.Sprintf("Completed %s", ev.Message))
	case model.EventFailed:
		t.progress.Logs = append(t.progress.Logs, fmt.Sprintf("Failed %s", ev.Message))
	case model.EventStarted:
		t.progress.Logs = append(t.progress.Logs, fmt.Sprintf("Starting %s", ev.Message))
	case model.EventFinished:
		t.progress.Logs = append(t.progress.Logs, ev.Message)
	}

	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Finish marks the task done with the outcome of report and closes every
// subscriber channel.
func (p *ProgressStore) Finish(taskID string, report *DeployReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[taskID]
	if !ok || t.done {
		return
	}

	t.done = true
	if report.Succeeded() {
		t.progress.Status = TaskStatusSuccess
		t.progress.Progress = 100
	} else {
		t.progress.Success = false
		t.progress.Status = TaskStatusError
		if report.Err != nil {
			t.progress.Error = report.Err.Error()
		}
	}
	for ch := range t.subs {
		close(ch)
		delete(t.subs, ch)
	}
}

func (p *ProgressStore) Get(taskID string) (model.ProgressResponse, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[taskID]
	if !ok {
		return model.ProgressResponse{}, false
	}
	progress := t.progress
	progress.Logs = append([]string(nil), t.progress.Logs...)
	return progress, true
}

// Subscribe returns the events recorded so far and a channel carrying the
// rest. The channel is closed when the task finishes or cancel is called.
func (p *ProgressStore) Subscribe(taskID string) ([]model.DeployEvent, <-chan model.DeployEvent, func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[taskID]
	if !ok {
		return nil, nil, nil, false
	}

	history := append([]model.DeployEvent(nil), t.events...)
	ch := make(chan model.DeployEvent, subscriberBuffer)
	if t.done {
		close(ch)
		return history, ch, func() {}, true
	}

	t.subs[ch] = struct{}{}
	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
	}
	return history, ch, cancel, true
}
