package model

import (
	"net"
	"path"
	"strconv"
)

// Descriptor is the validated content of deploy.yml. It is built once per
// invocation by config.LoadDescriptor and never mutated afterwards.
type Descriptor struct {
	ProjectName string `yaml:"project_name" toml:"project_name" json:"project_name" validate:"required,notblank"`

	ServerIP          string `yaml:"server_ip" toml:"server_ip" json:"server_ip" validate:"required,notblank"`
	ServerUser        string `yaml:"server_user" toml:"server_user" json:"server_user" validate:"required,notblank"`
	ServerSSHPort     int    `yaml:"server_ssh_port" toml:"server_ssh_port" json:"server_ssh_port" validate:"required,port"`
	ServerProjectPath string `yaml:"server_project_path" toml:"server_project_path" json:"server_project_path" validate:"required,notblank"`
	ServerVenvPath    string `yaml:"server_venv_path" toml:"server_venv_path" json:"server_venv_path" validate:"required,notblank"`
	PythonRuntime     string `yaml:"python_runtime_venv" toml:"python_runtime_venv" json:"python_runtime_venv" validate:"required,notblank"`

	RepoURL    string `yaml:"repo_url" toml:"repo_url" json:"repo_url" validate:"required,notblank"`
	Branch     string `yaml:"branch" toml:"branch" json:"branch" validate:"required,notblank"`
	RemoteName string `yaml:"remote_name" toml:"remote_name" json:"remote_name" validate:"required,notblank"`

	GunicornBind        string `yaml:"gunicorn_bind" toml:"gunicorn_bind" json:"gunicorn_bind" validate:"required,notblank"`
	GunicornWorkers     int    `yaml:"gunicorn_workers" toml:"gunicorn_workers" json:"gunicorn_workers" validate:"required,min=1"`
	GunicornWorkerClass string `yaml:"gunicorn_worker_class" toml:"gunicorn_worker_class" json:"gunicorn_worker_class" validate:"required,notblank"`
	GunicornPidFile     string `yaml:"gunicorn_pid_file" toml:"gunicorn_pid_file" json:"gunicorn_pid_file" validate:"required,notblank"`
	GunicornConfigFile  string `yaml:"gunicorn_config_file" toml:"gunicorn_config_file" json:"gunicorn_config_file" validate:"required,notblank"`
}

// Address is the host:port the remote connection dials.
func (d *Descriptor) Address() string {
	return net.JoinHostPort(d.ServerIP, strconv.Itoa(d.ServerSSHPort))
}

// SettingsModule is the dotted module passed to --settings and
// DJANGO_SETTINGS_MODULE.
func (d *Descriptor) SettingsModule() string {
	return d.ProjectName + ".settings"
}

// WSGIApplication is the gunicorn entry point.
func (d *Descriptor) WSGIApplication() string {
	return d.ProjectName + ".wsgi:application"
}

// RemoteGunicornConfig is the generated gunicorn file inside the cloned
// project on the server.
func (d *Descriptor) RemoteGunicornConfig() string {
	return path.Join(d.ServerProjectPath, d.GunicornConfigFile)
}
