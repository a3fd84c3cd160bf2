package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palloy-sim/palloy/bench"
)

func newFlaggedCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	addParameterFlags(c)
	return c
}

func TestLoadParams_NoFile_UsesDefaults(t *testing.T) {
	c := newFlaggedCommand()
	require.NoError(t, c.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")))

	params := loadParams(c)

	assert.Equal(t, bench.DefaultParameterSet(), params)
}

func TestLoadParams_FlagOverridesFileOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palloy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_cluster_cores: 2\nl1_size_kb: 128\n"), 0o644))

	c := newFlaggedCommand()
	require.NoError(t, c.Flags().Set("config", path))
	require.NoError(t, c.Flags().Set("cores", "16"))

	params := loadParams(c)

	assert.Equal(t, 16, params.NumClusterCores) // flag wins over file
	assert.Equal(t, 128, params.L1SizeKB)       // file wins over default
	assert.Equal(t, 1600, params.L2SizeKB)      // default survives
}

func TestLoadParams_TraceFilterFlag_Repeatable(t *testing.T) {
	c := newFlaggedCommand()
	require.NoError(t, c.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, c.Flags().Set("trace-filter", "pe0/insn"))
	require.NoError(t, c.Flags().Set("trace-filter", "pe1/insn"))

	params := loadParams(c)

	assert.Equal(t, bench.FilterList{"pe0/insn", "pe1/insn"}, params.TraceFilter)
}

func TestRootCommand_HasAllStageSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "configure", "build", "compile", "simulate", "extract"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
