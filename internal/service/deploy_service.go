package service

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"django-deployer/internal/config"
	"django-deployer/internal/model"
	"django-deployer/internal/pkg/generator"
	"django-deployer/internal/pkg/logger"
	"django-deployer/pkg/utils"
)

// EventSink receives every status event of a deploy run, in order.
type EventSink func(model.DeployEvent)

// StepResult is the outcome of one pipeline state.
type StepResult struct {
	State    model.State   `json:"state"`
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// DeployReport is returned by every Deploy call, successful or not.
type DeployReport struct {
	RunID    string
	State    model.State
	FailedAt model.State
	Results  []StepResult
	Err      error
}

func (r *DeployReport) Succeeded() bool {
	return r.State == model.StateSucceeded
}

// TotalSteps is the number of StepResults a successful run records.
func TotalSteps() int {
	return 3 + len(remoteSteps)
}

type DeployService struct {
	root           string
	descriptorPath string
	git            *GitService
	dial           Dialer
	logger         *logger.Logger
}

func NewDeployService(root, descriptorPath string, local Connection, dial Dialer, logger *logger.Logger) *DeployService {
	return &DeployService{
		root:           root,
		descriptorPath: descriptorPath,
		git:            NewGitService(local),
		dial:           dial,
		logger:         logger,
	}
}

// run carries the per-attempt state of one Deploy call.
type run struct {
	report *DeployReport
	sink   EventSink
	logger *logger.Logger
}

func (r *run) emit(state model.State, stepName string, status model.EventStatus, msg string) {
	if r.sink == nil {
		return
	}
	r.sink(model.DeployEvent{
		RunID:   r.report.RunID,
		State:   state,
		Step:    stepName,
		Status:  status,
		Message: msg,
		Time:    time.Now(),
	})
}

func (r *run) record(state model.State, name string, started time.Time, err error) {
	r.report.Results = append(r.report.Results, StepResult{
		State:    state,
		Name:     name,
		OK:       err == nil,
		Err:      err,
		Duration: time.Since(started),
	})
}

func (r *run) fail(state model.State, err error) *DeployReport {
	r.report.State = model.StateFailed
	r.report.FailedAt = state
	r.report.Err = err
	r.logger.Errorw("deploy failed", "state", state, "error", err)
	r.emit(model.StateFailed, "", model.EventFinished, "Error on deploy project")
	return r.report
}

// Deploy runs the whole pipeline once. The remote connection is opened after
// the git check passes and closed exactly once before Deploy returns.
func (s *DeployService) Deploy(sink EventSink) *DeployReport {
	r := &run{
		report: &DeployReport{RunID: uuid.NewString(), State: model.StateIdle},
		sink:   sink,
	}
	r.logger = s.logger.With("run_id", r.report.RunID)

	r.report.State = model.StateCheckingPrerequisites
	r.emit(model.StateCheckingPrerequisites, "prerequisites", model.EventStarted, "Check stuffs for deploy")
	started := time.Now()
	d, err := s.checkPrerequisites()
	r.record(model.StateCheckingPrerequisites, "prerequisites", started, err)
	if err != nil {
		r.emit(model.StateCheckingPrerequisites, "prerequisites", model.EventFailed, prerequisiteHint(err))
		return r.fail(model.StateCheckingPrerequisites, err)
	}
	r.emit(model.StateCheckingPrerequisites, "prerequisites", model.EventSucceeded, "All your settings files are ready")
	r.logger = r.logger.With("host", d.Address())

	r.report.State = model.StateSyncingGit
	started = time.Now()
	err = s.checkGit(d)
	r.record(model.StateSyncingGit, "git-sync", started, err)
	if err != nil {
		r.emit(model.StateSyncingGit, "git-sync", model.EventFailed, "Branchs are not updated. Run git push to sync changes")
		return r.fail(model.StateSyncingGit, err)
	}
	r.emit(model.StateSyncingGit, "git-sync", model.EventSucceeded, "Git branches updated")

	return s.provision(r, d)
}

func (s *DeployService) provision(r *run, d *model.Descriptor) *DeployReport {
	started := time.Now()
	conn, err := s.dial(d)
	if err != nil {
		err = utils.NewRemoteStepError("connect", err)
		r.record(model.StateEnsuringDirectories, "connect", started, err)
		r.emit(model.StateEnsuringDirectories, "connect", model.EventFailed, "Error connecting to server")
		return r.fail(model.StateEnsuringDirectories, err)
	}
	r.record(model.StateEnsuringDirectories, "connect", started, nil)
	r.emit(model.StateEnsuringDirectories, "connect", model.EventSucceeded, "Connected to "+d.Address())
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.logger.Warnw("closing remote connection", "error", cerr)
		}
	}()

	for _, st := range remoteSteps {
		r.report.State = st.state
		r.logger.DeploymentStep(st.name, d.Address())
		r.emit(st.state, st.name, model.EventStarted, st.name)

		started := time.Now()
		err := st.run(conn, d)
		if err != nil {
			err = utils.NewRemoteStepError(st.name, err)
		}
		r.record(st.state, st.name, started, err)

		if err != nil {
			r.logger.DeploymentError(st.name, err)
			r.emit(st.state, st.name, model.EventFailed, st.failure)
			return r.fail(st.state, err)
		}
		r.logger.DeploymentSuccess(st.name)
		r.emit(st.state, st.name, model.EventSucceeded, st.success)
	}

	r.report.State = model.StateSucceeded
	r.logger.Infow("deploy finished", "steps", len(r.report.Results))
	r.emit(model.StateSucceeded, "", model.EventFinished, "Successfully Deploy")
	return r.report
}

// checkPrerequisites loads the descriptor and verifies that build has run.
func (s *DeployService) checkPrerequisites() (*model.Descriptor, error) {
	d, err := config.LoadDescriptor(s.descriptorPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(s.root, d.GunicornConfigFile)); err != nil {
		return nil, utils.NewPrerequisiteError(d.GunicornConfigFile, "run the build command first")
	}

	layout := generator.SettingsLayout{Root: s.root, ProjectName: d.ProjectName}
	if !layout.PackageExists() {
		return nil, utils.NewPrerequisiteError("settings folder", "run the build command first")
	}
	return d, nil
}

func (s *DeployService) checkGit(d *model.Descriptor) error {
	inSync, err := s.git.InSync(d.RemoteName, d.Branch)
	if err != nil {
		return utils.NewGitOutOfSyncError("could not resolve commits", err)
	}
	if !inSync {
		return utils.NewGitOutOfSyncError(d.RemoteName+"/"+d.Branch+" differs from HEAD", nil)
	}
	return nil
}

func prerequisiteHint(err error) string {
	var de *utils.DeployError
	if !errors.As(err, &de) {
		return err.Error()
	}
	switch de.Kind {
	case utils.KindConfigMissing:
		return filepath.Base(de.Details) + " is not created. You can use the init command"
	case utils.KindConfigMalformed:
		return "Deploy descriptor is bad configured. Check the file please"
	case utils.KindPrerequisiteMissing:
		return de.Message + ". You can use the build command"
	default:
		return de.Error()
	}
}
