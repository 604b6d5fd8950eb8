package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radhelper/loghelper/internal/infrastructure/config"
)

// NewConfigCommand creates the config subcommand group.
func NewConfigCommand(container *CLIContainer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective client configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings and the resolved log directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(container)
		},
	})

	return cmd
}

func showConfig(container *CLIContainer) error {
	s := container.Settings

	fmt.Println(titleStyle.Render("Client settings"))
	source := container.SettingsPath
	if source == "" {
		source = "(defaults)"
	}
	printField("Source", source)
	printField("Collector", s.ServerAddress())
	printField("Transport", s.Transport)
	printField("ECC enabled", fmt.Sprintf("%t", s.ECCEnabled))
	printField("Reconnects", fmt.Sprintf("%d x %s", s.ReconnectAttempts, s.ReconnectDelay))

	fmt.Println(titleStyle.Render("System configuration"))
	printField("Path", container.SystemConfigPath)
	varDir, err := config.VarDir(container.SystemConfigPath)
	if err != nil {
		printField("Log directory", errorValueStyle.Render(err.Error()))
		return nil
	}
	printField("Log directory", varDir)
	return nil
}
