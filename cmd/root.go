package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/palloy-sim/palloy/bench"
)

var (
	// Workflow flags
	logLevel     string        // Log verbosity level
	configFile   string        // Parameter file path (optional; defaults apply when absent)
	workspaceDir string        // Root of the simulator/SDK checkout
	stageTimeout time.Duration // Per-stage deadline (0 = none)
	resultsFile  string        // Where to save the metrics document ("" = don't)

	// Architecture parameter flags; only applied when explicitly set, so
	// flag > parameter file > default
	numClusterCores int      // Worker cores per cluster
	l1SizeKB        int      // Cluster L1 size in KB
	l2SizeKB        int      // SoC L2 size in KB
	l2NumBanks      int      // Interleaved L2 shared banks
	workloadPath    string   // Application directory to compile and simulate
	traceFilters    []string // Component substrings to scope metrics to (OR)
	debug           bool     // Stream subprocess output live instead of capturing
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "palloy",
	Short: "Automated benchmarking workflow for the GVSoC cycle-accurate simulator",
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging applies the --log flag before any command work happens.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadParams layers the parameter sources: defaults, then the parameter
// file when present, then any flag the user set explicitly.
func loadParams(cmd *cobra.Command) bench.ParameterSet {
	params, err := bench.LoadParameterSet(configFile)
	if err != nil {
		if errors.Is(err, bench.ErrConfigNotFound) {
			logrus.Debugf("No parameter file at %s, using defaults", configFile)
		} else {
			logrus.Fatalf("Failed to load parameters: %v", err)
		}
	}

	overrides := bench.ParameterOverrides{}
	if cmd.Flags().Changed("cores") {
		overrides.NumClusterCores = &numClusterCores
	}
	if cmd.Flags().Changed("l1-kb") {
		overrides.L1SizeKB = &l1SizeKB
	}
	if cmd.Flags().Changed("l2-kb") {
		overrides.L2SizeKB = &l2SizeKB
	}
	if cmd.Flags().Changed("l2-banks") {
		overrides.L2NumBanks = &l2NumBanks
	}
	if cmd.Flags().Changed("workload") {
		overrides.WorkloadPath = &workloadPath
	}
	if cmd.Flags().Changed("trace-filter") {
		filters := bench.FilterList(traceFilters)
		overrides.TraceFilter = &filters
	}
	if cmd.Flags().Changed("debug") {
		overrides.Debug = &debug
	}
	if err := params.Update(overrides); err != nil {
		logrus.Fatalf("Invalid parameters: %v", err)
	}
	return params
}

// newOrchestrator builds the orchestrator for one invocation.
func newOrchestrator(cmd *cobra.Command) *bench.Orchestrator {
	setupLogging()
	params := loadParams(cmd)
	ws := bench.DefaultWorkspace(workspaceDir)
	ws.StageTimeout = stageTimeout
	return bench.NewOrchestrator(params, ws)
}

// addParameterFlags registers the shared workflow and parameter flags on a
// subcommand.
func addParameterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&configFile, "config", "palloy.yaml", "Parameter file (optional)")
	cmd.Flags().StringVar(&workspaceDir, "dir", ".", "Root of the simulator/SDK checkout")
	cmd.Flags().DurationVar(&stageTimeout, "stage-timeout", 0, "Per-stage deadline (e.g. 30m; 0 = none)")

	cmd.Flags().IntVar(&numClusterCores, "cores", 8, "Number of cluster cores")
	cmd.Flags().IntVar(&l1SizeKB, "l1-kb", 64, "L1 memory size in KB")
	cmd.Flags().IntVar(&l2SizeKB, "l2-kb", 1600, "L2 memory size in KB")
	cmd.Flags().IntVar(&l2NumBanks, "l2-banks", 4, "Number of L2 banks")
	cmd.Flags().StringVar(&workloadPath, "workload", "./pulp-sdk/tests/hello/", "Workload application directory")
	cmd.Flags().StringSliceVar(&traceFilters, "trace-filter", nil, "Component substrings to scope metrics to (repeatable, OR semantics)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Stream subprocess output live instead of capturing it")
}
