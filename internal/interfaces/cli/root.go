package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/radhelper/loghelper/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand builds the base command with the flags shared by every
// subcommand.
func NewRootCommand(container *CLIContainer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "radlog",
		Short: "Radiation-benchmark logging client",
		Long: `radlog is the client side of the radiation-benchmark telemetry pipeline.

It drives a logging session for an instrumented workload, tracks iterations
and error/info counts, enforces the abort thresholds, and streams the
resulting records to the collector server over UDP or TCP.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfigurationOverrides(cmd, container)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Settings file path (default is $HOME/.radlog/settings.yaml)")
	rootCmd.PersistentFlags().String("system-config", config.DefaultSystemConfigPath, "System configuration path supplying the log storage directory")
	rootCmd.PersistentFlags().String("server", "", "Collector IP, overrides the settings file")
	rootCmd.PersistentFlags().Int("port", 0, "Collector port, overrides the settings file")
	rootCmd.PersistentFlags().String("transport", "", "Transport variant (udp or tcp), overrides the settings file")

	rootCmd.AddCommand(NewRunCommand(container))
	rootCmd.AddCommand(NewConfigCommand(container))

	return rootCmd
}

// Execute runs the CLI under the given context and exits non-zero on
// failure. Cancelling the context stops long-running subcommands.
func Execute(ctx context.Context, container *CLIContainer) {
	if err := NewRootCommand(container).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// goVersion returns the Go version used to build the binary.
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applyConfigurationOverrides loads the settings file and layers the
// persistent flags on top.
func applyConfigurationOverrides(cmd *cobra.Command, container *CLIContainer) error {
	if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
		container.SetDebug()
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".radlog", "settings.yaml")
		}
	}
	if path != "" {
		settings, err := config.LoadSettings(path)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		container.Settings = settings
		container.SettingsPath = path
	}

	if systemConfig, _ := cmd.Flags().GetString("system-config"); systemConfig != "" {
		container.SystemConfigPath = systemConfig
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		container.Settings.ServerIP = server
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		container.Settings.ServerPort = port
	}
	if transportKind, _ := cmd.Flags().GetString("transport"); transportKind != "" {
		container.Settings.Transport = transportKind
	}

	if err := container.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
