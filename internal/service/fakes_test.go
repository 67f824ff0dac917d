package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"django-deployer/internal/config"
	"django-deployer/internal/model"
	"django-deployer/internal/pkg/generator"
)

// fakeConn records every command and answers from a rule table. Commands
// without a matching rule exit 0 with empty output.
type fakeConn struct {
	mu       sync.Mutex
	commands []string
	hidden   map[string]bool
	rules    []rule
	closed   int
}

type rule struct {
	prefix string
	result model.CommandResult
	err    error
}

func newFakeConn(rules ...rule) *fakeConn {
	return &fakeConn{hidden: make(map[string]bool), rules: rules}
}

func stdout(prefix, out string) rule {
	return rule{prefix: prefix, result: model.CommandResult{Stdout: out}}
}

func exitCode(prefix string, code int, stderr string) rule {
	return rule{prefix: prefix, result: model.CommandResult{ExitCode: code, Stderr: stderr}}
}

func (f *fakeConn) Run(cmd string, hide bool) (*model.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	f.hidden[cmd] = hide
	for _, r := range f.rules {
		if strings.HasPrefix(cmd, r.prefix) {
			res := r.result
			return &res, r.err
		}
	}
	return &model.CommandResult{}, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) ran(cmd string) bool {
	return f.index(cmd) >= 0
}

func (f *fakeConn) index(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.commands {
		if c == cmd {
			return i
		}
	}
	return -1
}

// fakeDialer hands out conn and counts how often it was asked to.
type fakeDialer struct {
	conn  *fakeConn
	err   error
	calls int
}

func (d *fakeDialer) dial(*model.Descriptor) (RemoteConnection, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func inSyncGit() *fakeConn {
	return newFakeConn(
		stdout("git rev-parse HEAD", "3f2a9c1\n"),
		stdout("git rev-parse origin/master", "3f2a9c1\n"),
	)
}

func outOfSyncGit() *fakeConn {
	return newFakeConn(
		stdout("git rev-parse HEAD", "3f2a9c1\n"),
		stdout("git rev-parse origin/master", "b71e004\n"),
	)
}

// builtProject lays out a project root the way init and build leave it.
func builtProject(t *testing.T) (root, descriptorPath string) {
	t.Helper()
	root = t.TempDir()
	descriptorPath = filepath.Join(root, config.DefaultDescriptorFile)
	require.NoError(t, config.WriteDescriptorTemplate(descriptorPath))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gunicorn.conf.py"), []byte("workers = 3\n"), 0o644))

	layout := generator.SettingsLayout{Root: root, ProjectName: "mysite"}
	require.NoError(t, os.MkdirAll(layout.PackageDir(), 0o755))
	return root, descriptorPath
}

// recorder is a Reporter that keeps every line with its kind.
type recorder struct {
	lines []string
}

func (r *recorder) add(kind, format string, args ...any) {
	r.lines = append(r.lines, kind+": "+fmt.Sprintf(format, args...))
}

func (r *recorder) Line(format string, args ...any) { r.add("line", format, args...) }
func (r *recorder) Warning(format string, args ...any) { r.add("warning", format, args...) }
func (r *recorder) Error(format string, args ...any) { r.add("error", format, args...) }
func (r *recorder) Success(format string, args ...any) { r.add("success", format, args...) }
func (r *recorder) Failure(format string, args ...any) { r.add("failure", format, args...) }

var errNetwork = errors.New("dial tcp 192.0.2.10:22: connect: connection refused")
