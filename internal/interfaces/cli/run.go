package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/radhelper/loghelper/internal/core/logging"
	"github.com/radhelper/loghelper/internal/core/naming"
)

// RunFlags holds command-line flags for the run command.
type RunFlags struct {
	Benchmark     string
	Header        string
	Iterations    uint64
	IterationTime time.Duration
	Interval      uint64
	MaxErrors     uint64
	MaxInfos      uint64
	ErrorAt       []uint
	InfoAt        []uint
	NoDoubleKill  bool
}

// NewRunCommand creates the run subcommand: a synthetic workload that
// exercises the full session/transport stack against a live collector.
func NewRunCommand(container *CLIContainer) *cobra.Command {
	flags := &RunFlags{}

	cmd := &cobra.Command{
		Use:   "run --benchmark NAME [flags]",
		Short: "Drive a synthetic logging session against the collector",
		Long: `Run a synthetic workload through the logging client: create a session,
loop over iterations, optionally inject error and info reports at chosen
iterations, and stream everything to the collector.

Useful as a smoke test for a collector deployment or for rehearsing the
abort policy before a beam run.

Examples:
  # Twenty clean iterations over UDP
  radlog run --benchmark smoke --iterations 20

  # Trip the two-strikes abort policy over TCP
  radlog run --benchmark smoke --transport tcp --error-at 3 --error-at 4

  # Inject errors without aborting
  radlog run --benchmark smoke --error-at 3 --error-at 4 --no-double-error-kill`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyntheticWorkload(cmd.Context(), container, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Benchmark, "benchmark", "", "Benchmark name for the session identity")
	cmd.Flags().StringVar(&flags.Header, "header", "synthetic workload", "Free-text header describing the run")
	cmd.Flags().Uint64Var(&flags.Iterations, "iterations", 10, "Number of iterations to run")
	cmd.Flags().DurationVar(&flags.IterationTime, "iteration-time", 10*time.Millisecond, "Simulated kernel time per iteration")
	cmd.Flags().Uint64Var(&flags.Interval, "interval", 1, "Print interval (1 = emit every iteration)")
	cmd.Flags().Uint64Var(&flags.MaxErrors, "max-errors", 500, "Per-iteration error cap")
	cmd.Flags().Uint64Var(&flags.MaxInfos, "max-infos", 500, "Per-iteration info cap")
	cmd.Flags().UintSliceVar(&flags.ErrorAt, "error-at", nil, "Iterations at which to inject an error report")
	cmd.Flags().UintSliceVar(&flags.InfoAt, "info-at", nil, "Iterations at which to inject an info report")
	cmd.Flags().BoolVar(&flags.NoDoubleKill, "no-double-error-kill", false, "Disable the two-strikes abort policy")
	cmd.MarkFlagRequired("benchmark")

	return cmd
}

// runSyntheticWorkload is the instrumented-workload loop in miniature:
// strict start -> counts/details -> end order, abort treated as terminal.
// Context cancellation (a shutdown signal) stops the loop between
// iterations; the deferred Destroy then closes the session on this
// goroutine, never concurrently with an in-flight record.
func runSyntheticWorkload(ctx context.Context, container *CLIContainer, flags *RunFlags) error {
	tr, err := container.NewTransport()
	if err != nil {
		return err
	}

	namer := naming.New(container.VarDir(), "")
	logName := namer.Name(flags.Benchmark)

	reg := container.Registry
	if err := reg.Create(flags.Benchmark, flags.Header, logName, tr); err != nil {
		return err
	}
	defer reg.Destroy()

	reg.SetMaxErrorsIter(flags.MaxErrors)
	reg.SetMaxInfosIter(flags.MaxInfos)
	reg.SetIterIntervalPrint(flags.Interval)
	if flags.NoDoubleKill {
		reg.DisableDoubleErrorKill()
	}

	container.Logger.Info("session started",
		"logname", reg.LogFileName(), "iterations", flags.Iterations)

	errorAt := toSet(flags.ErrorAt)
	infoAt := toSet(flags.InfoAt)

	for i := uint64(0); i < flags.Iterations; i++ {
		select {
		case <-ctx.Done():
			container.Logger.Info("shutdown signal received, closing session")
			return ctx.Err()
		default:
		}

		if err := reg.StartIteration(); err != nil {
			return err
		}
		time.Sleep(flags.IterationTime)

		if errorAt[i] {
			if err := reg.LogErrorDetail(fmt.Sprintf("injected fault at iteration %d", i)); err != nil {
				return err
			}
			if err := reg.LogErrorCount(1); err != nil {
				if errors.Is(err, logging.ErrFatalAbort) {
					reg.Destroy()
					return fmt.Errorf("workload aborted: %w", err)
				}
				container.Logger.Warn("error report not delivered", "iteration", i, "error", err)
			}
		}
		if infoAt[i] {
			if err := reg.LogInfoDetail(fmt.Sprintf("injected note at iteration %d", i)); err != nil {
				return err
			}
			if err := reg.LogInfoCount(1); err != nil {
				container.Logger.Warn("info report not delivered", "iteration", i, "error", err)
			}
		}

		if err := reg.EndIteration(); err != nil {
			container.Logger.Warn("iteration record not delivered", "iteration", i, "error", err)
		}
	}

	printRunSummary(reg.IterationNumber(), reg.TotalErrors(), reg.KernelTimeAcc(), reg.LogFileName())
	return nil
}

func toSet(values []uint) map[uint64]bool {
	set := make(map[uint64]bool, len(values))
	for _, v := range values {
		set[uint64(v)] = true
	}
	return set
}
