package cli

import (
	"log/slog"
	"os"

	"github.com/radhelper/loghelper/internal/application/registry"
	"github.com/radhelper/loghelper/internal/core/ports"
	"github.com/radhelper/loghelper/internal/infrastructure/config"
	"github.com/radhelper/loghelper/internal/infrastructure/transport"
)

// CLIContainer holds the dependencies shared by the CLI commands. The
// logger and registry are built once and never replaced, so every
// goroutine observes the same instances; SetDebug only adjusts the
// shared level.
type CLIContainer struct {
	Settings         config.Settings
	SettingsPath     string
	SystemConfigPath string
	Registry         *registry.Registry
	Logger           *slog.Logger

	logLevel *slog.LevelVar
}

// NewCLIContainer builds the container with defaults; the root command's
// persistent flags refine it before any subcommand runs.
func NewCLIContainer() *CLIContainer {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return &CLIContainer{
		Settings:         config.DefaultSettings(),
		SystemConfigPath: config.DefaultSystemConfigPath,
		Registry:         registry.New(logger),
		Logger:           logger,
		logLevel:         level,
	}
}

// SetDebug switches the shared logger to debug level.
func (c *CLIContainer) SetDebug() {
	c.logLevel.Set(slog.LevelDebug)
}

// NewTransport builds the transport variant the settings select.
func (c *CLIContainer) NewTransport() (ports.Transport, error) {
	kind, err := ports.ParseKind(c.Settings.Transport)
	if err != nil {
		return nil, err
	}
	addr := c.Settings.ServerAddress()
	switch kind {
	case ports.KindTCP:
		retry := transport.RetryPolicy{
			MaxAttempts: c.Settings.ReconnectAttempts,
			Delay:       c.Settings.ReconnectDelay.Std(),
		}
		return transport.NewTCPSender(addr, c.Settings.ECCEnabled, retry, c.Logger), nil
	default:
		return transport.NewUDPSender(addr, c.Settings.ECCEnabled, c.Logger), nil
	}
}

// VarDir resolves the base storage directory for log names. When the
// system configuration is unreadable the temp directory stands in, so a
// developer machine without the conf file still gets usable names.
func (c *CLIContainer) VarDir() string {
	varDir, err := config.VarDir(c.SystemConfigPath)
	if err != nil {
		c.Logger.Warn("falling back to temp dir for log names", "error", err)
		return os.TempDir()
	}
	return varDir
}
