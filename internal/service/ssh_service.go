package service

import (
	"fmt"
	"strings"

	"django-deployer/internal/config"
	"django-deployer/internal/model"
	"django-deployer/internal/pkg/logger"
)

// SSHService checks that the descriptor's host is reachable with the
// configured credentials, without touching the deployment.
type SSHService struct {
	descriptorPath string
	dial           Dialer
	logger         *logger.Logger
}

func NewSSHService(descriptorPath string, dial Dialer, logger *logger.Logger) *SSHService {
	return &SSHService{
		descriptorPath: descriptorPath,
		dial:           dial,
		logger:         logger,
	}
}

func (s *SSHService) TestConnection() *model.SSHTestResponse {
	d, err := config.LoadDescriptor(s.descriptorPath)
	if err != nil {
		return &model.SSHTestResponse{
			Success: false,
			Message: err.Error(),
		}
	}

	conn, err := s.dial(d)
	if err != nil {
		s.logger.Errorw("ssh connection failed", "target", d.Address(), "error", err)
		return &model.SSHTestResponse{
			Success: false,
			Message: "ssh connection failed",
			Details: []string{"✗ ssh connection failed", fmt.Sprintf("error: %s", err)},
		}
	}
	defer conn.Close()

	details := []string{"✓ ssh connection established"}
	probes := []struct {
		label string
		cmd   string
	}{
		{"user", "whoami"},
		{"system", "uname -a"},
		{"git", "git --version"},
	}
	for _, probe := range probes {
		res, err := conn.Run(probe.cmd, true)
		if err != nil || !res.OK() {
			details = append(details, fmt.Sprintf("✗ %s: %s unavailable", probe.label, probe.cmd))
			continue
		}
		details = append(details, fmt.Sprintf("✓ %s: %s", probe.label, strings.TrimSpace(res.Stdout)))
	}

	s.logger.Infow("ssh connection successful", "target", d.Address())
	return &model.SSHTestResponse{
		Success: true,
		Message: "ssh connection successful",
		Details: details,
	}
}
