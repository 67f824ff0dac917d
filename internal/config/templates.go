package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrDescriptorExists is returned by WriteDescriptorTemplate when the target
// is already present.
var ErrDescriptorExists = errors.New("deploy descriptor already exists")

// WriteDescriptorTemplate scaffolds the default descriptor at path. It never
// overwrites an existing file.
func WriteDescriptorTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrDescriptorExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(descriptorTemplate), 0o644)
}

const descriptorTemplate = `# Deploy descriptor. Every field is required.
project_name: mysite

server_ip: 192.0.2.10
server_user: deploy
server_ssh_port: 22
server_project_path: /home/deploy/mysite
server_venv_path: /home/deploy/venvs/mysite
python_runtime_venv: /usr/bin/python3

repo_url: git@github.com:example/mysite.git
branch: master
remote_name: origin

gunicorn_bind: 127.0.0.1:8000
gunicorn_workers: 3
gunicorn_worker_class: sync
gunicorn_pid_file: /tmp/mysite-gunicorn.pid
gunicorn_config_file: gunicorn.conf.py
`
