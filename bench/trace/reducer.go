package trace

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoMatchingTrace signals that no trace line survived parsing and
// filtering. It deliberately distinguishes "the filter matched nothing"
// (usually a typo'd component name) from a legitimate zero-delta run.
var ErrNoMatchingTrace = errors.New("no trace lines matched")

// Reduction is the reduced view of one trace file: differences between the
// first and last matching entries, never raw magnitudes, so simulator
// warm-up before the first match is excluded.
type Reduction struct {
	Cycles      int64 // last.Cycles - first.Cycles
	TimestampPS int64 // last.TimestampPS - first.TimestampPS
	Matched     int   // number of matching lines
	First       Record
	Last        Record
}

// Reducer streams a trace file and reduces it to a Reduction.
type Reducer struct {
	parser LineParser
}

// NewReducer creates a Reducer with the given line parser; nil selects the
// default InsnParser.
func NewReducer(parser LineParser) *Reducer {
	if parser == nil {
		parser = InsnParser{}
	}
	return &Reducer{parser: parser}
}

// Extract scans the trace file line by line and computes deltas over the
// matching entries. Traces can be large, so the file is never read whole.
//
// Filters are component-identifier substrings with OR semantics: a line
// matches when its component contains any filter. An empty filter set
// matches every parseable line. First/last are tracked across all matching
// components combined, not per component.
func (r *Reducer) Extract(path string, filters []string) (Reduction, error) {
	file, err := os.Open(path)
	if err != nil {
		return Reduction{}, fmt.Errorf("opening trace %s: %w", path, err)
	}
	defer file.Close()

	var red Reduction
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		record, ok := r.parser.Parse(scanner.Text())
		if !ok {
			continue
		}
		if !matchesAny(record.Component, filters) {
			continue
		}
		if red.Matched == 0 {
			red.First = record
		}
		red.Last = record
		red.Matched++
	}
	if err := scanner.Err(); err != nil {
		return Reduction{}, fmt.Errorf("reading trace %s: %w", path, err)
	}

	if red.Matched == 0 {
		if len(filters) > 0 {
			return Reduction{}, fmt.Errorf("%w in %s for filters %v", ErrNoMatchingTrace, path, filters)
		}
		return Reduction{}, fmt.Errorf("%w in %s", ErrNoMatchingTrace, path)
	}

	red.Cycles = red.Last.Cycles - red.First.Cycles
	red.TimestampPS = red.Last.TimestampPS - red.First.TimestampPS
	return red, nil
}

func matchesAny(component string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(component, f) {
			return true
		}
	}
	return false
}
