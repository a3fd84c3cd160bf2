package cmd

import (
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runCmd executes the full workflow: patch configs, rebuild the simulator,
// recompile the workload, run the simulation, extract metrics.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full benchmark workflow",
	Run: func(cmd *cobra.Command, args []string) {
		orch := newOrchestrator(cmd)

		// An operator interrupt terminates the currently-running subprocess
		// and fails the run.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := orch.Run(ctx)
		if err != nil {
			logrus.Fatalf("Workflow failed at stage %s: %v", orch.FailedStage(), err)
		}

		logrus.Infof("Extracted metrics:")
		logrus.Infof("  Workload:      %s", result.Workload)
		logrus.Infof("  Cluster cores: %d", result.NumClusterCores)
		logrus.Infof("  Cycles:        %d", result.Cycles)
		logrus.Infof("  Timestamp:     %d ps", result.TimestampPS)

		if resultsFile != "" {
			if err := result.Write(resultsFile); err != nil {
				logrus.Fatalf("Failed to save results: %v", err)
			}
			logrus.Infof("Results saved to %s", resultsFile)
		}
	},
}

func init() {
	addParameterFlags(runCmd)
	runCmd.Flags().StringVar(&resultsFile, "results", "", "Write the metrics document to this file")
	rootCmd.AddCommand(runCmd)
}
