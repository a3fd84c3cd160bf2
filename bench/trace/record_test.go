package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsnParser_Parse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Record
		ok   bool
	}{
		{
			"plain component",
			"51000: 5100: /sys/board/chip/soc/cluster/pe0/insn c.addi sp, sp, -16",
			Record{Component: "/sys/board/chip/soc/cluster/pe0/insn", Cycles: 5100, TimestampPS: 51000},
			true,
		},
		{
			"bracketed component",
			"4005000: 4005: [/sys/board/chip/soc/fc/insn] jal ra",
			Record{Component: "/sys/board/chip/soc/fc/insn", Cycles: 4005, TimestampPS: 4005000},
			true,
		},
		{
			"zero values",
			"0: 0: /sys/board/chip/soc/cluster/pe0/insn nop",
			Record{Component: "/sys/board/chip/soc/cluster/pe0/insn", Cycles: 0, TimestampPS: 0},
			true,
		},
		{"empty line", "", Record{}, false},
		{"prose line", "Launching GVSoC with config file", Record{}, false},
		{"missing cycles", "51000: pe0/insn", Record{}, false},
		{"negative timestamp", "-5: 10: pe0/insn", Record{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InsnParser{}.Parse(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
