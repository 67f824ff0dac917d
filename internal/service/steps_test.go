package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"django-deployer/internal/model"
	"django-deployer/pkg/utils"
)

func homeDescriptor() *model.Descriptor {
	return &model.Descriptor{
		ProjectName:        "mysite",
		ServerProjectPath:  "~/apps/mysite",
		ServerVenvPath:     "~/venvs/mysite",
		PythonRuntime:      "python3",
		RepoURL:            "git@github.com:example/mysite.git",
		Branch:             "master",
		RemoteName:         "origin",
		GunicornPidFile:    "~/run/gunicorn.pid",
		GunicornConfigFile: "gunicorn.conf.py",
	}
}

func TestStepsExpandHomeRelativePaths(t *testing.T) {
	d := homeDescriptor()
	conn := newFakeConn(
		stdout("ls -1 ~/apps/mysite", "0\n"),
		stdout("ls -1 ~/venvs/mysite", "0\n"),
		stdout("[ -f ~/run/gunicorn.pid ]", "0\n"),
	)

	require.NoError(t, ensureDirectories(conn, d))
	require.NoError(t, syncRepository(conn, d))
	require.NoError(t, provisionEnvironment(conn, d))
	require.NoError(t, restartService(conn, d))

	assert.Equal(t, []string{
		"mkdir -p ~/apps/mysite",
		"mkdir -p ~/venvs/mysite",
		"ls -1 ~/apps/mysite | wc -l",
		"git clone git@github.com:example/mysite.git ~/apps/mysite",
		"ls -1 ~/venvs/mysite | wc -l",
		"python3 -m virtualenv -p python3 ~/venvs/mysite",
		"~/venvs/mysite/bin/pip install -r ~/apps/mysite/requirements.txt",
		"[ -f ~/run/gunicorn.pid ] && cat ~/run/gunicorn.pid || echo 0",
		"cd ~/apps/mysite && DJANGO_SETTINGS_MODULE=mysite.settings ~/venvs/mysite/bin/gunicorn -c ~/apps/mysite/gunicorn.conf.py mysite.wsgi:application",
	}, conn.commands)
}

func TestEnsureDirectoriesIssuesBothCommands(t *testing.T) {
	d := homeDescriptor()
	conn := newFakeConn(exitCode("mkdir -p ~/apps/mysite", 1, "mkdir: Permission denied"))

	err := ensureDirectories(conn, d)

	require.Error(t, err)
	assert.Equal(t, []string{"mkdir -p ~/apps/mysite", "mkdir -p ~/venvs/mysite"}, conn.commands)
	var cmdErr *utils.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "mkdir -p ~/apps/mysite", cmdErr.Command)
}
