package ssh

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"django-deployer/internal/model"
)

type SSHConfig struct {
	Host                  string
	Port                  int
	Username              string
	KeyPath               string
	Passphrase            string
	Password              string
	KnownHostsPath        string
	InsecureIgnoreHostKey bool
	UseAgent              bool
	Timeout               time.Duration

	// Stdout and Stderr receive command output when a command is not hidden.
	Stdout io.Writer
	Stderr io.Writer
}

// Client is the remote variant of the deploy connection: every Run opens a
// fresh session on one long-lived ssh.Client.
type Client struct {
	config    SSHConfig
	conn      *ssh.Client
	agentConn net.Conn
}

func NewClient(config SSHConfig) *Client {
	return &Client{
		config: config,
	}
}

func (c *Client) Address() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

func (c *Client) Connect() error {
	auth, err := c.authMethods()
	if err != nil {
		return err
	}
	if len(auth) == 0 {
		return errors.New("no ssh auth method available: set SSH_KEY_PATH, SSH_PASSWORD or run an ssh-agent")
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		c.closeAgent()
		return err
	}

	config := &ssh.ClientConfig{
		User:            c.config.Username,
		Auth:            auth,
		Timeout:         c.config.Timeout,
		HostKeyCallback: hostKeyCallback,
	}

	conn, err := ssh.Dial("tcp", c.Address(), config)
	if err != nil {
		c.closeAgent()
		return fmt.Errorf("ssh dial %s: %w", c.Address(), err)
	}

	c.conn = conn
	return nil
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	var auth []ssh.AuthMethod

	if c.config.UseAgent {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			if conn, err := net.Dial("unix", sock); err == nil {
				c.agentConn = conn
				auth = append(auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			}
		}
	}

	if c.config.KeyPath != "" {
		privateKey, err := os.ReadFile(c.config.KeyPath)
		switch {
		case err == nil:
			signer, err := c.parsePrivateKey(privateKey, c.config.Passphrase)
			if err != nil {
				return nil, fmt.Errorf("parse private key %s: %w", c.config.KeyPath, err)
			}
			auth = append(auth, ssh.PublicKeys(signer))
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read private key %s: %w", c.config.KeyPath, err)
		}
	}

	if c.config.Password != "" {
		auth = append(auth, ssh.Password(c.config.Password))
	}

	return auth, nil
}

func (c *Client) parsePrivateKey(privateKey []byte, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(privateKey)
}

func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.config.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := strings.TrimSpace(c.config.KnownHostsPath)
	if path == "" {
		return nil, errors.New("known hosts path not set; set SSH_KNOWN_HOSTS or SSH_INSECURE_IGNORE_HOST_KEY")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known hosts %s: %w", path, err)
	}
	return callback, nil
}

// Run executes cmd in the remote user's default shell. A non-zero exit is
// reported through the result, not the error; the error is only set when the
// command could not be run at all.
func (c *Client) Run(cmd string, hide bool) (*model.CommandResult, error) {
	if c.conn == nil {
		return &model.CommandResult{ExitCode: -1}, errors.New("ssh connection not established")
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return &model.CommandResult{ExitCode: -1, Stderr: err.Error()}, fmt.Errorf("create ssh session: %w", err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf strings.Builder
	session.Stdout = teeWriter(&stdoutBuf, c.config.Stdout, hide)
	session.Stderr = teeWriter(&stderrBuf, c.config.Stderr, hide)

	err = session.Run(cmd)

	result := &model.CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		var exitError *ssh.ExitError
		if errors.As(err, &exitError) {
			result.ExitCode = exitError.ExitStatus()
			return result, nil
		}
		result.ExitCode = -1
		return result, fmt.Errorf("run %q: %w", cmd, err)
	}

	return result, nil
}

func (c *Client) Close() error {
	defer c.closeAgent()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) closeAgent() {
	if c.agentConn != nil {
		c.agentConn.Close()
		c.agentConn = nil
	}
}

func teeWriter(buf io.Writer, mirror io.Writer, hide bool) io.Writer {
	if hide || mirror == nil {
		return buf
	}
	return io.MultiWriter(buf, mirror)
}
