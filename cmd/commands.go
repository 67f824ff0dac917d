package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"django-deployer/internal/config"
	"django-deployer/internal/model"
	"django-deployer/internal/pkg/console"
	"django-deployer/internal/pkg/logger"
	"django-deployer/internal/pkg/shell"
	"django-deployer/internal/service"
)

var (
	initFlag       bool
	buildFlag      bool
	rootFlag       string
	descriptorFlag string

	rootCmd = &cobra.Command{
		Use:   "djdeploy",
		Short: "Deploy a Django project to a gunicorn server over SSH",
		Long: `djdeploy scaffolds a deploy descriptor (--init), generates the
gunicorn config and split settings package (--build) and, with no flag,
provisions the server described by the descriptor.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Run:          runRoot,
	}
)

func init() {
	rootCmd.Flags().BoolVarP(&initFlag, "init", "i", false, "copy the default deploy descriptor into the project root")
	rootCmd.Flags().BoolVarP(&buildFlag, "build", "b", false, "generate the gunicorn config and the settings package")
	rootCmd.MarkFlagsMutuallyExclusive("init", "build")

	rootCmd.Flags().StringVar(&rootFlag, "root", "", "project root (defaults to PROJECT_ROOT or the working directory)")
	rootCmd.Flags().StringVar(&descriptorFlag, "descriptor", "", "descriptor file name relative to the root")
}

// runRoot dispatches on the mode flags. Failures are reported on the console
// and never turned into a non-zero exit.
func runRoot(cmd *cobra.Command, args []string) {
	cfg := config.LoadConfig()
	if rootFlag != "" {
		if abs, err := filepath.Abs(rootFlag); err == nil {
			cfg.Project.Root = abs
		} else {
			cfg.Project.Root = rootFlag
		}
	}
	if descriptorFlag != "" {
		cfg.Project.DescriptorFile = descriptorFlag
	}

	log := logger.NewLogger(cfg.Logging)
	defer log.Sync()

	out := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	descriptorPath := cfg.DescriptorPath()

	switch {
	case initFlag:
		_ = service.NewBuildService(cfg.Project.Root, descriptorPath, log).Init(out)
	case buildFlag:
		_ = service.NewBuildService(cfg.Project.Root, descriptorPath, log).Build(out)
	default:
		dial := service.NewSSHDialer(cfg.SSH, os.Stdout, os.Stderr, log)
		deployer := service.NewDeployService(cfg.Project.Root, descriptorPath, shell.NewRunner(cfg.Project.Root), dial, log)
		report := deployer.Deploy(consoleSink(out))
		log.Debugw("deploy report", "run_id", report.RunID, "state", report.State, "steps", len(report.Results))
	}
}

// consoleSink renders deploy events as status lines: outcomes of each step,
// the prerequisite check as a warning and the final banner.
func consoleSink(out *console.Console) service.EventSink {
	return func(ev model.DeployEvent) {
		switch ev.Status {
		case model.EventStarted:
			if ev.State == model.StateCheckingPrerequisites {
				out.Warning("%s", ev.Message)
			}
		case model.EventSucceeded:
			out.Line("%s", ev.Message)
		case model.EventFailed:
			out.Error("%s", ev.Message)
		case model.EventFinished:
			if ev.State == model.StateSucceeded {
				out.Success("%s", ev.Message)
			} else {
				out.Failure("%s", ev.Message)
			}
		}
	}
}
