package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

func printField(label, value string) {
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label), valueStyle.Render(value)))
}

// printRunSummary renders the end-of-run report for the run command.
func printRunSummary(iterations, totalErrors uint64, kernelTimeAcc float64, logName string) {
	fmt.Println(titleStyle.Render("Run complete"))
	printField("Iterations", fmt.Sprintf("%d", iterations))
	errValue := fmt.Sprintf("%d", totalErrors)
	if totalErrors > 0 {
		errValue = errorValueStyle.Render(errValue)
	}
	printField("Total errors", errValue)
	printField("Kernel time", fmt.Sprintf("%.3fs", kernelTimeAcc))
	printField("Log name", logName)
}
