package service

import (
	"errors"
	"fmt"
	"path/filepath"

	"django-deployer/internal/config"
	"django-deployer/internal/pkg/generator"
	"django-deployer/internal/pkg/logger"
	"django-deployer/pkg/utils"
)

// Reporter receives the status lines of init and build.
type Reporter interface {
	Line(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Success(format string, args ...any)
	Failure(format string, args ...any)
}

// BuildService materializes the local artifacts a deploy needs: the
// descriptor scaffold, the gunicorn config and the settings package.
type BuildService struct {
	root           string
	descriptorPath string
	logger         *logger.Logger
}

func NewBuildService(root, descriptorPath string, logger *logger.Logger) *BuildService {
	return &BuildService{
		root:           root,
		descriptorPath: descriptorPath,
		logger:         logger,
	}
}

// Init copies the default descriptor into the project root unless one is
// already there.
func (s *BuildService) Init(r Reporter) error {
	name := filepath.Base(s.descriptorPath)

	err := config.WriteDescriptorTemplate(s.descriptorPath)
	switch {
	case err == nil:
		r.Line("Copy %s to root path", name)
	case errors.Is(err, config.ErrDescriptorExists):
		r.Warning("%s is already in root path", name)
	default:
		s.logger.Errorw("init failed", "path", s.descriptorPath, "error", err)
		r.Failure("Error on init deploy")
		return err
	}

	r.Success("Successfully Init Deploy")
	return nil
}

// Build generates the gunicorn config and splits the settings module. Each
// artifact is generated once; existing ones are reported and left alone.
func (s *BuildService) Build(r Reporter) error {
	const failureBanner = "Error on build for deploying project"

	d, err := config.LoadDescriptor(s.descriptorPath)
	if err != nil {
		if errors.Is(err, utils.ErrConfigMissing) {
			r.Error("%s is not created. You can use the init command", filepath.Base(s.descriptorPath))
		} else {
			r.Error("%s is bad configured. Check the file please", filepath.Base(s.descriptorPath))
		}
		r.Failure(failureBanner)
		return err
	}

	gunicornPath := filepath.Join(s.root, d.GunicornConfigFile)
	created, err := generator.GenerateGunicornConfig(gunicornPath, d)
	if err != nil {
		s.logger.Errorw("gunicorn config generation failed", "path", gunicornPath, "error", err)
		r.Error("Error creating %s", d.GunicornConfigFile)
		r.Failure(failureBanner)
		return err
	}
	if created {
		r.Line("Gunicorn file created successfully")
	} else {
		r.Warning("Gunicorn file is already created")
	}

	layout := generator.SettingsLayout{Root: s.root, ProjectName: d.ProjectName}
	if layout.PackageExists() {
		r.Warning("Settings folder is already created")
		r.Success("Successfully Build files")
		return nil
	}

	if err := generator.SplitSettings(layout); err != nil {
		var srcErr *generator.SourceError
		if errors.As(err, &srcErr) {
			r.Error("Error creating new file on settings path")
			r.Error("Project name could be wrong on %s", filepath.Base(s.descriptorPath))
			err = utils.NewLocalArtifactError(srcErr.Path, srcErr.Err)
		} else {
			err = fmt.Errorf("split settings: %w", err)
		}
		s.logger.Errorw("settings split failed", "project", d.ProjectName, "error", err)
		r.Failure(failureBanner)
		return err
	}
	r.Line("Settings folder created successfully")

	r.Success("Successfully Build files")
	return nil
}
