package bench

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palloy-sim/palloy/bench/trace"
)

// State is one phase of the workflow state machine.
type State string

const (
	StateIdle        State = "idle"
	StateConfiguring State = "configuring"
	StateBuilding    State = "building"
	StateCompiling   State = "compiling"
	StateRunning     State = "running"
	StateExtracting  State = "extracting"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Stage names, used in errors and logs.
const (
	StageConfigure = "configure"
	StageBuild     = "build"
	StageCompile   = "compile"
	StageSimulate  = "simulate"
	StageExtract   = "extract"
)

// Orchestrator sequences the pipeline: patch the architecture documents,
// rebuild the simulator, recompile the workload, run the simulation, and
// reduce the trace. Stages are strictly sequential and never retried; the
// first failure transitions to Failed and abandons the run with no partial
// metrics.
//
// An Orchestrator is owned by a single caller per physical run. It is not
// re-entrant: each stage's subprocess must terminate before the next stage
// starts, because later stages consume files the earlier ones produce.
// Stage methods are exported individually so a caller can, for example,
// re-run only Extract after fixing a workload by hand.
type Orchestrator struct {
	params    ParameterSet
	workspace Workspace
	runner    Runner
	reducer   *trace.Reducer

	runID       string
	state       State
	failedStage string
}

// NewOrchestrator creates an orchestrator for one physical run. The
// ParameterSet is passed by value and owned by the orchestrator from here
// on; there is no ambient shared configuration.
func NewOrchestrator(params ParameterSet, ws Workspace) *Orchestrator {
	return &Orchestrator{
		params:    params,
		workspace: ws,
		runner:    NewProcessRunner(),
		reducer:   trace.NewReducer(nil),
		runID:     uuid.NewString(),
		state:     StateIdle,
	}
}

// WithRunner substitutes the subprocess runner. Used by tests.
func (o *Orchestrator) WithRunner(r Runner) *Orchestrator {
	o.runner = r
	return o
}

// WithParser substitutes the trace line parser for simulators with a
// different log grammar.
func (o *Orchestrator) WithParser(p trace.LineParser) *Orchestrator {
	o.reducer = trace.NewReducer(p)
	return o
}

// State reports the current workflow state.
func (o *Orchestrator) State() State { return o.state }

// FailedStage reports which stage failed; empty unless State is failed.
func (o *Orchestrator) FailedStage() string { return o.failedStage }

// Params returns the parameters this orchestrator runs with.
func (o *Orchestrator) Params() ParameterSet { return o.params }

// Run executes the full pipeline and yields the metrics on success. On the
// first stage whose command fails or whose component errors, the run is
// abandoned and no metrics are returned. Cancelling ctx terminates the
// currently-running subprocess and fails the run.
func (o *Orchestrator) Run(ctx context.Context) (MetricsResult, error) {
	logrus.Infof("Starting workflow run %s", o.runID)
	o.params.Log()

	if err := o.Configure(); err != nil {
		return MetricsResult{}, err
	}
	if err := o.Build(ctx); err != nil {
		return MetricsResult{}, err
	}
	if err := o.Compile(ctx); err != nil {
		return MetricsResult{}, err
	}
	if err := o.Simulate(ctx); err != nil {
		return MetricsResult{}, err
	}
	result, err := o.Extract()
	if err != nil {
		return MetricsResult{}, err
	}
	logrus.Infof("Workflow run %s complete: cycles=%d timestamp=%dps", o.runID, result.Cycles, result.TimestampPS)
	return result, nil
}

// Configure patches both architecture documents from the baselines.
func (o *Orchestrator) Configure() error {
	o.enter(StateConfiguring, "[0/4] updating configuration")
	if err := PatchClusterConfig(o.workspace.Cluster, o.params); err != nil {
		return o.fail(StageConfigure, err)
	}
	if err := PatchSoCConfig(o.workspace.SoC, o.params); err != nil {
		return o.fail(StageConfigure, err)
	}
	return nil
}

// Build rebuilds the simulator for the configured target.
func (o *Orchestrator) Build(ctx context.Context) error {
	o.enter(StateBuilding, "[1/4] rebuilding architecture: "+o.workspace.Target)
	return o.runStage(ctx, StageBuild, Command{
		Stage:   StageBuild,
		Program: "make",
		Args: []string{
			"TARGETS=" + o.workspace.Target,
			"build",
			"-j" + strconv.Itoa(o.workspace.Jobs),
		},
		Dir:     o.workspace.SimulatorDir,
		Timeout: o.workspace.StageTimeout,
	})
}

// Compile recompiles the workload with the configured core count.
func (o *Orchestrator) Compile(ctx context.Context) error {
	o.enter(StateCompiling, "[2/4] recompiling workload: "+o.params.WorkloadPath)
	cores := strconv.Itoa(o.params.NumClusterCores)
	return o.runStage(ctx, StageCompile, Command{
		Stage:   StageCompile,
		Program: "make",
		Args: []string{
			"all",
			"-j" + strconv.Itoa(o.workspace.Jobs),
			"-B",
			"CONFIG_NB_CLUSTER_PE=" + cores,
			"CORE=" + cores,
			"NUM_CORES=" + cores,
			"ARCHI_CLUSTER_NB_PE=" + cores,
			"USE_CLUSTER=1",
		},
		Dir:     o.params.WorkloadPath,
		Timeout: o.workspace.StageTimeout,
	})
}

// Simulate runs the simulation, writing the instruction trace to the
// workspace trace file.
func (o *Orchestrator) Simulate(ctx context.Context) error {
	o.enter(StateRunning, "[3/4] running simulation")
	return o.runStage(ctx, StageSimulate, Command{
		Stage:   StageSimulate,
		Program: "make",
		Args: []string{
			"run",
			"-j" + strconv.Itoa(o.workspace.Jobs),
			"runner_args=--trace=insn:" + o.workspace.TraceFile + " --trace-level=DEBUG --debug-mode",
			"CONFIG_NB_CLUSTER_PE=" + strconv.Itoa(o.params.NumClusterCores),
		},
		Dir:     o.params.WorkloadPath,
		Timeout: o.workspace.StageTimeout,
	})
}

// Extract reduces the trace file to a MetricsResult, honoring the
// configured trace filters.
func (o *Orchestrator) Extract() (MetricsResult, error) {
	o.enter(StateExtracting, "[4/4] extracting metrics")
	reduction, err := o.reducer.Extract(o.workspace.TraceFile, o.params.TraceFilter)
	if err != nil {
		return MetricsResult{}, o.fail(StageExtract, err)
	}
	logrus.Infof("Reduced %d trace lines: cycles=%d timestamp=%dps",
		reduction.Matched, reduction.Cycles, reduction.TimestampPS)
	o.enter(StateDone, "workflow complete")
	return MetricsResult{
		RunID:           o.runID,
		Cycles:          reduction.Cycles,
		TimestampPS:     reduction.TimestampPS,
		NumClusterCores: o.params.NumClusterCores,
		Workload:        o.params.WorkloadPath,
		CompletedAt:     time.Now().UTC(),
	}, nil
}

// runStage executes one external command and escalates either an
// invocation error or a non-zero exit to a stage failure.
func (o *Orchestrator) runStage(ctx context.Context, stage string, cmd Command) error {
	mode := OutputCaptured
	if o.params.Debug {
		mode = OutputStreamed
	}
	outcome, err := o.runner.Run(ctx, cmd, mode)
	if err != nil {
		return o.fail(stage, err)
	}
	if !outcome.Success {
		if !outcome.Streamed {
			logrus.Errorf("%s stdout:\n%s", stage, outcome.Stdout)
			logrus.Errorf("%s stderr:\n%s", stage, outcome.Stderr)
		}
		return o.fail(stage, fmt.Errorf("%s %v exited with code %d", cmd.Program, cmd.Args, outcome.ExitCode))
	}
	logrus.Infof("Stage %s succeeded in %s", stage, outcome.Elapsed.Round(time.Millisecond))
	return nil
}

func (o *Orchestrator) enter(s State, banner string) {
	o.state = s
	logrus.Info(banner)
}

func (o *Orchestrator) fail(stage string, err error) error {
	o.state = StateFailed
	o.failedStage = stage
	if se, ok := err.(*StageError); ok {
		return se
	}
	return &StageError{Stage: stage, Err: err}
}
