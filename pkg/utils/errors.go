package utils

import (
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindConfigMissing       ErrorKind = "ConfigMissing"
	KindConfigMalformed     ErrorKind = "ConfigMalformed"
	KindPrerequisiteMissing ErrorKind = "PrerequisiteMissing"
	KindGitOutOfSync        ErrorKind = "GitOutOfSync"
	KindRemoteStepFailed    ErrorKind = "RemoteStepFailed"
	KindLocalArtifactError  ErrorKind = "LocalArtifactError"
)

// DeployError is the single error type surfaced by the deploy, build and init
// flows. Kind selects the taxonomy bucket, Step is only set for remote steps.
type DeployError struct {
	Code    int       `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Err     error     `json:"-"`
}

func (e *DeployError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Step when the target names one.
func (e *DeployError) Is(target error) bool {
	t, ok := target.(*DeployError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Step == "" || t.Step == e.Step
}

var (
	ErrConfigMissing       = &DeployError{Kind: KindConfigMissing}
	ErrConfigMalformed     = &DeployError{Kind: KindConfigMalformed}
	ErrPrerequisiteMissing = &DeployError{Kind: KindPrerequisiteMissing}
	ErrGitOutOfSync        = &DeployError{Kind: KindGitOutOfSync}
	ErrRemoteStepFailed    = &DeployError{Kind: KindRemoteStepFailed}
	ErrLocalArtifact       = &DeployError{Kind: KindLocalArtifactError}
)

// ErrStepFailed returns a sentinel matching RemoteStepFailed for one step.
func ErrStepFailed(step string) error {
	return &DeployError{Kind: KindRemoteStepFailed, Step: step}
}

func NewConfigMissingError(path string) *DeployError {
	return &DeployError{
		Code:    1001,
		Kind:    KindConfigMissing,
		Message: "deploy descriptor not found",
		Details: path,
	}
}

func NewConfigMalformedError(path string, err error) *DeployError {
	return &DeployError{
		Code:    1002,
		Kind:    KindConfigMalformed,
		Message: fmt.Sprintf("deploy descriptor %s is bad configured", path),
		Details: errorText(err),
		Err:     err,
	}
}

func NewPrerequisiteError(what, hint string) *DeployError {
	return &DeployError{
		Code:    2001,
		Kind:    KindPrerequisiteMissing,
		Message: fmt.Sprintf("%s is not created", what),
		Details: hint,
	}
}

func NewGitOutOfSyncError(details string, err error) *DeployError {
	return &DeployError{
		Code:    3001,
		Kind:    KindGitOutOfSync,
		Message: "local and remote branches are not in sync",
		Details: details,
		Err:     err,
	}
}

func NewRemoteStepError(step string, err error) *DeployError {
	return &DeployError{
		Code:    4001,
		Kind:    KindRemoteStepFailed,
		Step:    step,
		Message: fmt.Sprintf("remote step %s failed", step),
		Details: errorText(err),
		Err:     err,
	}
}

func NewLocalArtifactError(path string, err error) *DeployError {
	return &DeployError{
		Code:    5001,
		Kind:    KindLocalArtifactError,
		Message: fmt.Sprintf("could not read %s", path),
		Details: errorText(err),
		Err:     err,
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// CommandError records a command that ran but exited non-zero, or that could
// not be run at all (ExitCode -1).
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Wrapped  error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s (exit %d): %s", e.Command, e.ExitCode, e.Stderr)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s (exit %d): %v", e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s (exit %d)", e.Command, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

func NewCommandError(cmd string, exitCode int, stderr string, err error) *CommandError {
	return &CommandError{
		Command:  cmd,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(stderr),
		Wrapped:  err,
	}
}
