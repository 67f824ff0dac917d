package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"django-deployer/internal/config"
)

type Logger struct {
	*zap.SugaredLogger
}

func NewLogger(cfg config.LoggingConfig) *Logger {
	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.DisableStacktrace = true
	}
	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	zcfg.OutputPaths = []string{"stderr"}

	base, err := zcfg.Build()
	if err != nil {
		base = zap.NewExample()
	}
	return &Logger{SugaredLogger: base.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

func (l *Logger) SSHConnectionAttempt(user, target string) {
	l.Infow("ssh connection attempt",
		"type", "ssh_connection",
		"user", user,
		"target", target,
	)
}

func (l *Logger) DeploymentStep(step, host string) {
	l.Infow("deployment step started",
		"type", "deployment",
		"step", step,
		"host", host,
	)
}

func (l *Logger) DeploymentError(step string, err error) {
	l.Errorw("deployment step failed",
		"type", "deployment",
		"step", step,
		"error", err.Error(),
	)
}

func (l *Logger) DeploymentSuccess(step string) {
	l.Infow("deployment step succeeded",
		"type", "deployment",
		"step", step,
	)
}
