package service

import (
	"fmt"
	"io"

	"django-deployer/internal/config"
	"django-deployer/internal/model"
	"django-deployer/internal/pkg/logger"
	"django-deployer/internal/pkg/ssh"
	"django-deployer/pkg/utils"
)

// Connection runs one shell command and reports its exit code and output.
type Connection interface {
	Run(cmd string, hide bool) (*model.CommandResult, error)
}

// RemoteConnection is a Connection holding a network session that must be
// released with Close exactly once.
type RemoteConnection interface {
	Connection
	Close() error
}

// Dialer opens the remote connection for a descriptor.
type Dialer func(d *model.Descriptor) (RemoteConnection, error)

// NewSSHDialer returns a Dialer backed by the ssh package. Command output
// that is not hidden is mirrored to stdout and stderr.
func NewSSHDialer(cfg config.SSHConfig, stdout, stderr io.Writer, log *logger.Logger) Dialer {
	return func(d *model.Descriptor) (RemoteConnection, error) {
		log.SSHConnectionAttempt(d.ServerUser, d.Address())

		client := ssh.NewClient(ssh.SSHConfig{
			Host:                  d.ServerIP,
			Port:                  d.ServerSSHPort,
			Username:              d.ServerUser,
			KeyPath:               cfg.KeyPath,
			Passphrase:            cfg.Passphrase,
			Password:              cfg.Password,
			KnownHostsPath:        cfg.KnownHostsPath,
			InsecureIgnoreHostKey: cfg.InsecureIgnoreHostKey,
			UseAgent:              cfg.UseAgent,
			Timeout:               cfg.ConnectTimeout,
			Stdout:                stdout,
			Stderr:                stderr,
		})
		if err := client.Connect(); err != nil {
			return nil, err
		}
		return client, nil
	}
}

// execute runs cmd and turns anything but exit code 0 into a CommandError.
func execute(conn Connection, cmd string, hide bool) (*model.CommandResult, error) {
	res, err := conn.Run(cmd, hide)
	if err != nil {
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		return res, utils.NewCommandError(cmd, -1, stderr, err)
	}
	if !res.OK() {
		return res, utils.NewCommandError(cmd, res.ExitCode, res.Stderr, nil)
	}
	return res, nil
}

// countEntries returns how many entries `ls -1` lists in dir on the remote.
func countEntries(conn Connection, dir string) (int, error) {
	cmd := fmt.Sprintf("ls -1 %s | wc -l", utils.ShellQuote(dir))
	res, err := execute(conn, cmd, true)
	if err != nil {
		return 0, err
	}
	return utils.ParseCount(res.Stdout)
}
