package model

import "time"

// State is a pipeline state. The deploy runner only ever moves forward
// through these, or jumps to StateFailed.
type State string

const (
	StateIdle                    State = "Idle"
	StateCheckingPrerequisites   State = "CheckingPrerequisites"
	StateSyncingGit              State = "SyncingGit"
	StateEnsuringDirectories     State = "EnsuringDirectories"
	StateSyncingRepository       State = "SyncingRepository"
	StateProvisioningEnvironment State = "ProvisioningEnvironment"
	StateRunningMigrations       State = "RunningMigrations"
	StateCollectingAssets        State = "CollectingAssets"
	StateRestartingService       State = "RestartingService"
	StateSucceeded               State = "Succeeded"
	StateFailed                  State = "Failed"
)

type EventStatus string

const (
	EventStarted   EventStatus = "started"
	EventSucceeded EventStatus = "succeeded"
	EventFailed    EventStatus = "failed"
	EventFinished  EventStatus = "finished"
)

// DeployEvent is one status line of a deploy run, as printed by the CLI and
// streamed by the HTTP server.
type DeployEvent struct {
	RunID   string      `json:"runId"`
	State   State       `json:"state"`
	Step    string      `json:"step,omitempty"`
	Status  EventStatus `json:"status"`
	Message string      `json:"message"`
	Time    time.Time   `json:"time"`
}
