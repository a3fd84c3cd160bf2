package cmd

import (
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Individual stage commands, for re-running a single stage without
// repeating the whole pipeline (e.g. extract again after fixing a workload
// by hand).

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Patch the derived architecture documents from the baselines",
	Run: func(cmd *cobra.Command, args []string) {
		orch := newOrchestrator(cmd)
		if err := orch.Configure(); err != nil {
			logrus.Fatalf("Configure failed: %v", err)
		}
		logrus.Info("Configuration files updated")
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the simulator architecture",
	Run:   runSingleStage("Build"),
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Recompile the workload",
	Run:   runSingleStage("Compile"),
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the simulation",
	Run:   runSingleStage("Simulate"),
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract metrics from the trace file",
	Run: func(cmd *cobra.Command, args []string) {
		orch := newOrchestrator(cmd)
		result, err := orch.Extract()
		if err != nil {
			logrus.Fatalf("Extract failed: %v", err)
		}
		logrus.Infof("Cycles: %d, timestamp: %d ps", result.Cycles, result.TimestampPS)
		if resultsFile != "" {
			if err := result.Write(resultsFile); err != nil {
				logrus.Fatalf("Failed to save results: %v", err)
			}
			logrus.Infof("Results saved to %s", resultsFile)
		}
	},
}

// runSingleStage adapts one subprocess-backed orchestrator stage to a
// cobra Run func with interrupt handling.
func runSingleStage(name string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		orch := newOrchestrator(cmd)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var err error
		switch name {
		case "Build":
			err = orch.Build(ctx)
		case "Compile":
			err = orch.Compile(ctx)
		case "Simulate":
			err = orch.Simulate(ctx)
		}
		if err != nil {
			logrus.Fatalf("%s failed: %v", name, err)
		}
		logrus.Infof("%s succeeded", name)
	}
}

func init() {
	for _, c := range []*cobra.Command{configureCmd, buildCmd, compileCmd, simulateCmd, extractCmd} {
		addParameterFlags(c)
	}
	extractCmd.Flags().StringVar(&resultsFile, "results", "", "Write the metrics document to this file")
	rootCmd.AddCommand(configureCmd, buildCmd, compileCmd, simulateCmd, extractCmd)
}
