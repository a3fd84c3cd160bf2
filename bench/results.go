package bench

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MetricsResult is the reduced output of one completed run. Cycles and
// TimestampPS are deltas between the first and last matching trace entries,
// not raw magnitudes, so warm-up overhead before the first match is
// excluded from the measurement.
type MetricsResult struct {
	RunID           string    `yaml:"run_id"`
	Cycles          int64     `yaml:"cycles"`
	TimestampPS     int64     `yaml:"timestamp_ps"`
	NumClusterCores int       `yaml:"num_cluster_cores"`
	Workload        string    `yaml:"workload"`
	CompletedAt     time.Time `yaml:"completed_at"`
}

// Write persists the result document. Output-only: nothing in the pipeline
// ever reads a results file back.
func (m MetricsResult) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
