package bench

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FilterList is an ordered list of trace component filters. A parameter file
// may give it as a single scalar or as a sequence; it always persists as a
// sequence.
type FilterList []string

// UnmarshalYAML accepts both `trace_filter: pe0/insn` and
// `trace_filter: [pe0/insn, pe1/insn]`.
func (f *FilterList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*f = FilterList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*f = FilterList(list)
		return nil
	default:
		return fmt.Errorf("trace_filter must be a string or a list of strings")
	}
}

// ParameterSet groups the architecture and workflow knobs for one run.
// Values are layered: an explicit override always wins over a loaded file
// value, which wins over the default. A ParameterSet is constructed per
// workflow and passed explicitly; there is no package-level instance.
type ParameterSet struct {
	NumClusterCores int        `yaml:"num_cluster_cores"` // worker cores per cluster (must be > 0)
	L1SizeKB        int        `yaml:"l1_size_kb"`        // cluster L1 TCDM size in KB (must be > 0)
	L2SizeKB        int        `yaml:"l2_size_kb"`        // SoC L2 size in KB (must be > 0)
	L2NumBanks      int        `yaml:"l2_num_banks"`      // interleaved L2 shared banks (must be > 0)
	WorkloadPath    string     `yaml:"workload_path"`     // application directory compiled and simulated
	TraceFilter     FilterList `yaml:"trace_filter,omitempty"`
	Debug           bool       `yaml:"debug"` // stream subprocess output instead of capturing it
}

// DefaultParameterSet returns the baseline knob values for the pulp_open
// target.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{
		NumClusterCores: 8,
		L1SizeKB:        64,
		L2SizeKB:        1600,
		L2NumBanks:      4,
		WorkloadPath:    "./pulp-sdk/tests/hello/",
	}
}

// ParameterOverrides carries optional replacements for individual
// parameters. Nil fields leave the current value untouched.
type ParameterOverrides struct {
	NumClusterCores *int
	L1SizeKB        *int
	L2SizeKB        *int
	L2NumBanks      *int
	WorkloadPath    *string
	TraceFilter     *FilterList
	Debug           *bool
}

// Validate checks every field's type/range constraint.
func (p ParameterSet) Validate() error {
	if p.NumClusterCores <= 0 {
		return fmt.Errorf("%w: num_cluster_cores must be > 0, got %d", ErrInvalidParameter, p.NumClusterCores)
	}
	if p.L1SizeKB <= 0 {
		return fmt.Errorf("%w: l1_size_kb must be > 0, got %d", ErrInvalidParameter, p.L1SizeKB)
	}
	if p.L2SizeKB <= 0 {
		return fmt.Errorf("%w: l2_size_kb must be > 0, got %d", ErrInvalidParameter, p.L2SizeKB)
	}
	if p.L2NumBanks <= 0 {
		return fmt.Errorf("%w: l2_num_banks must be > 0, got %d", ErrInvalidParameter, p.L2NumBanks)
	}
	if p.WorkloadPath == "" {
		return fmt.Errorf("%w: workload_path must not be empty", ErrInvalidParameter)
	}
	return nil
}

// Update applies the given overrides all-or-nothing: the candidate set is
// validated first and the receiver is only replaced when every affected
// field passes.
func (p *ParameterSet) Update(o ParameterOverrides) error {
	next := *p
	if o.NumClusterCores != nil {
		next.NumClusterCores = *o.NumClusterCores
	}
	if o.L1SizeKB != nil {
		next.L1SizeKB = *o.L1SizeKB
	}
	if o.L2SizeKB != nil {
		next.L2SizeKB = *o.L2SizeKB
	}
	if o.L2NumBanks != nil {
		next.L2NumBanks = *o.L2NumBanks
	}
	if o.WorkloadPath != nil {
		next.WorkloadPath = *o.WorkloadPath
	}
	if o.TraceFilter != nil {
		next.TraceFilter = *o.TraceFilter
	}
	if o.Debug != nil {
		next.Debug = *o.Debug
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// LoadParameterSet reads a parameter file and layers it over the defaults.
// Returns ErrConfigNotFound when the file is absent; callers that treat the
// file as optional fall back to DefaultParameterSet. Unknown keys are
// rejected so a typo'd parameter name cannot silently become a default.
func LoadParameterSet(path string) (ParameterSet, error) {
	params := DefaultParameterSet()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return params, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return params, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&params); err != nil {
		return DefaultParameterSet(), fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	if err := params.Validate(); err != nil {
		return DefaultParameterSet(), fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	logrus.Infof("Loaded parameters from %s", path)
	return params, nil
}

// Persist writes the set in the same format LoadParameterSet consumes.
// Persist then Load is lossless for every supported parameter type.
func (p ParameterSet) Persist(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

// Log prints the active configuration at Info level, one field per line the
// way the original workflow banner did.
func (p ParameterSet) Log() {
	logrus.Infof("Workload:      %s", p.WorkloadPath)
	logrus.Infof("Cluster cores: %d", p.NumClusterCores)
	logrus.Infof("L1 size:       %d KB", p.L1SizeKB)
	logrus.Infof("L2 size:       %d KB", p.L2SizeKB)
	logrus.Infof("L2 banks:      %d", p.L2NumBanks)
	if len(p.TraceFilter) > 0 {
		logrus.Infof("Trace filter:  %v", []string(p.TraceFilter))
	}
}
