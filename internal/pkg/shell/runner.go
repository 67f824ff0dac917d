// Package shell is the local variant of the deploy connection. It is only
// used to read git commit identifiers in the project checkout.
package shell

import (
	"errors"
	"io"
	"os/exec"
	"strings"

	"django-deployer/internal/model"
)

type Runner struct {
	// Dir is the working directory for every command; empty means the
	// process working directory.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func NewRunner(dir string) *Runner {
	return &Runner{Dir: dir}
}

func (r *Runner) Run(cmd string, hide bool) (*model.CommandResult, error) {
	command := exec.Command("sh", "-c", cmd)
	command.Dir = r.Dir

	var stdoutBuf, stderrBuf strings.Builder
	command.Stdout = mirror(&stdoutBuf, r.Stdout, hide)
	command.Stderr = mirror(&stderrBuf, r.Stderr, hide)

	err := command.Run()
	result := &model.CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}
	return result, nil
}

func mirror(buf io.Writer, out io.Writer, hide bool) io.Writer {
	if hide || out == nil {
		return buf
	}
	return io.MultiWriter(buf, out)
}
