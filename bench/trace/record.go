// Package trace reduces the simulator's execution log to delta metrics.
// It is a leaf package: pure parsing and reduction, no dependency on the
// workflow layer.
package trace

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is one parsed trace entry. Records are ephemeral: the reducer
// keeps only the first and last match, never the stream.
type Record struct {
	Component   string
	Cycles      int64
	TimestampPS int64
}

// LineParser turns one raw trace line into a Record. The second return is
// false for lines that do not match the grammar; such lines are skipped,
// not fatal. The grammar is a property of the external simulator, so it is
// pluggable rather than baked into the reducer.
type LineParser interface {
	Parse(line string) (Record, bool)
}

// insnLine matches the instruction-trace shape the simulator emits:
//
//	<timestamp_ps>: <cycles>: <component> <payload...>
//
// where component is a slash-separated path like
// /sys/board/chip/soc/cluster/pe0/insn, optionally bracketed.
var insnLine = regexp.MustCompile(`^(\d+):\s*(\d+):\s*(\S+)`)

// InsnParser parses the simulator's instruction-level trace format.
type InsnParser struct{}

func (InsnParser) Parse(line string) (Record, bool) {
	m := insnLine.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	ts, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Record{}, false
	}
	cycles, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Record{}, false
	}
	component := strings.Trim(m[3], "[]")
	return Record{Component: component, Cycles: cycles, TimestampPS: ts}, true
}
