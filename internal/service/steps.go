package service

import (
	"errors"
	"fmt"

	"django-deployer/internal/model"
	"django-deployer/pkg/utils"
)

// step is one remote provisioning operation. Steps run strictly in the order
// of remoteSteps; each assumes the side effects of the ones before it.
type step struct {
	state   model.State
	name    string
	success string
	failure string
	run     func(conn Connection, d *model.Descriptor) error
}

var remoteSteps = []step{
	{
		state:   model.StateEnsuringDirectories,
		name:    "ensure-directories",
		success: "Project folders build successfully",
		failure: "Error building folders on server",
		run:     ensureDirectories,
	},
	{
		state:   model.StateSyncingRepository,
		name:    "sync-repository",
		success: "Project application build successfully",
		failure: "Error building project on server",
		run:     syncRepository,
	},
	{
		state:   model.StateProvisioningEnvironment,
		name:    "provision-environment",
		success: "Project venv build successfully",
		failure: "Error building venv on server",
		run:     provisionEnvironment,
	},
	{
		state:   model.StateRunningMigrations,
		name:    "run-migrations",
		success: "Run migrations on database successfully",
		failure: "Error running migrations on server",
		run:     runMigrations,
	},
	{
		state:   model.StateCollectingAssets,
		name:    "collect-assets",
		success: "Collect assets action successfully",
		failure: "Error collecting assets on server",
		run:     collectAssets,
	},
	{
		state:   model.StateRestartingService,
		name:    "restart-service",
		success: "Gunicorn service start",
		failure: "Error starting gunicorn service",
		run:     restartService,
	},
}

var q = utils.ShellQuote

// ensureDirectories always issues both mkdir commands and then checks both.
func ensureDirectories(conn Connection, d *model.Descriptor) error {
	var errs []error
	for _, dir := range []string{d.ServerProjectPath, d.ServerVenvPath} {
		if _, err := execute(conn, "mkdir -p "+q(dir), false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// syncRepository clones into an empty project directory and pulls otherwise.
// Emptiness is the only signal: a non-empty directory that is not a git
// checkout is still treated as one and the pull fails.
func syncRepository(conn Connection, d *model.Descriptor) error {
	count, err := countEntries(conn, d.ServerProjectPath)
	if err != nil {
		return err
	}

	cmd := fmt.Sprintf("cd %s && git pull %s %s", q(d.ServerProjectPath), q(d.RemoteName), q(d.Branch))
	if count == 0 {
		cmd = fmt.Sprintf("git clone %s %s", q(d.RepoURL), q(d.ServerProjectPath))
	}
	_, err = execute(conn, cmd, false)
	return err
}

func provisionEnvironment(conn Connection, d *model.Descriptor) error {
	count, err := countEntries(conn, d.ServerVenvPath)
	if err != nil {
		return err
	}

	if count == 0 {
		create := fmt.Sprintf("%[1]s -m virtualenv -p %[1]s %[2]s", q(d.PythonRuntime), q(d.ServerVenvPath))
		if _, err := execute(conn, create, false); err != nil {
			return err
		}
	}

	install := fmt.Sprintf("%s/bin/pip install -r %s/requirements.txt", q(d.ServerVenvPath), q(d.ServerProjectPath))
	_, err = execute(conn, install, false)
	return err
}

func runMigrations(conn Connection, d *model.Descriptor) error {
	_, err := execute(conn, manageCommand(d, "migrate"), false)
	return err
}

func collectAssets(conn Connection, d *model.Descriptor) error {
	_, err := execute(conn, manageCommand(d, "collectstatic")+" --no-input", false)
	return err
}

func manageCommand(d *model.Descriptor, command string) string {
	return fmt.Sprintf("cd %[1]s && %[2]s/bin/python %[1]s/manage.py %[3]s --settings=%[4]s",
		q(d.ServerProjectPath), q(d.ServerVenvPath), command, q(d.SettingsModule()))
}

// restartService kills the gunicorn master recorded in the pid file, if any,
// and starts a new one. A failed kill aborts before the start.
func restartService(conn Connection, d *model.Descriptor) error {
	pidFile := q(d.GunicornPidFile)
	res, err := execute(conn, fmt.Sprintf("[ -f %[1]s ] && cat %[1]s || echo 0", pidFile), true)
	if err != nil {
		return err
	}
	pid, err := utils.ParseCount(res.Stdout)
	if err != nil {
		return fmt.Errorf("read gunicorn pid: %w", err)
	}

	if pid != 0 {
		if _, err := execute(conn, fmt.Sprintf("kill -9 %d", pid), true); err != nil {
			return err
		}
	}

	start := fmt.Sprintf("cd %s && DJANGO_SETTINGS_MODULE=%s %s/bin/gunicorn -c %s %s",
		q(d.ServerProjectPath), q(d.SettingsModule()), q(d.ServerVenvPath), q(d.RemoteGunicornConfig()), q(d.WSGIApplication()))
	_, err = execute(conn, start, false)
	return err
}
