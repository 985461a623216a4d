//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "migrate", "tree", "forms", "eligibility", "ocr", "sop"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "visamate", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, "--%s", name)
		assert.Empty(t, flag.DefValue)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   string
		flags []string
	}{
		{"tree", []string{"file", "answers", "step"}},
		{"forms", []string{"answers", "ocr", "form", "pdf"}},
		{"eligibility", []string{"answers", "ocr"}},
		{"sop", []string{"profile", "out"}},
	}
	for _, tt := range tests {
		cmd, _, err := rootCmd.Find([]string{tt.cmd})
		require.NoError(t, err)
		for _, f := range tt.flags {
			assert.NotNil(t, cmd.Flags().Lookup(f), "%s --%s", tt.cmd, f)
		}
	}
}

func TestOCRCommand_RequiresFiles(t *testing.T) {
	assert.Error(t, ocrCmd.Args(ocrCmd, nil))
	assert.NoError(t, ocrCmd.Args(ocrCmd, []string{"scan.pdf"}))
}
