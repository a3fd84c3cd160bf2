package bench

import (
	"path/filepath"
	"runtime"
	"time"
)

// Workspace names the on-disk layout the external tools live in: the
// simulator checkout, the SDK, the architecture documents, and the trace
// file the simulation writes. All stage commands are derived from it.
type Workspace struct {
	SimulatorDir string         // simulator checkout; build stage runs here
	SDKDir       string         // SDK checkout providing the compile/run make targets
	Target       string         // simulator build target name
	TraceFile    string         // instruction trace written by the run stage
	Cluster      ConfigArtifact // cluster-level architecture document
	SoC          ConfigArtifact // system-level architecture document
	Jobs         int            // make parallelism
	StageTimeout time.Duration  // per-stage deadline; 0 means none
}

// DefaultWorkspace returns the layout of a standard checkout rooted at dir,
// mirroring the pulp_open tree the simulator ships.
func DefaultWorkspace(dir string) Workspace {
	chipDir := filepath.Join(dir, "gvcuck", "pulp", "pulp", "chips", "pulp_open")
	return Workspace{
		SimulatorDir: filepath.Join(dir, "gvcuck"),
		SDKDir:       filepath.Join(dir, "pulp-sdk"),
		Target:       "palloy",
		TraceFile:    filepath.Join(dir, "traces.log"),
		Cluster: ConfigArtifact{
			Name:         "cluster",
			BaselinePath: filepath.Join(chipDir, "cluster.json"),
			DerivedPath:  filepath.Join(chipDir, "cluster.new.json"),
		},
		SoC: ConfigArtifact{
			Name:         "soc",
			BaselinePath: filepath.Join(chipDir, "soc.json"),
			DerivedPath:  filepath.Join(chipDir, "soc.new.json"),
		},
		Jobs: runtime.NumCPU(),
	}
}
