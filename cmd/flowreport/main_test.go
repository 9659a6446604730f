package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcli/internal/config"
	"flowcli/internal/shared/testutil"
	"flowcli/pkg/contracts"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_MissingInput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "all_output.csv")
	out := filepath.Join(t.TempDir(), "reports")

	code, stdout, _ := runCLI(t, "-in", missing, "-out", out)

	assert.Equal(t, 1, code)
	assert.Equal(t, "File "+missing+" could not be found\n", stdout)
	assert.NoDirExists(t, out)
}

func TestRun_WritesReports(t *testing.T) {
	input := testutil.WriteFlowsCSV(t, testutil.SampleFlows())
	out := filepath.Join(t.TempDir(), "reports")

	code, stdout, stderr := runCLI(t, "-in", input, "-out", out)
	require.Equal(t, 0, code, stderr)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "pipeline completed")

	assert.FileExists(t, filepath.Join(out, config.ManifestFile))
	assert.FileExists(t, filepath.Join(out, "flowcli.prom"))
	assert.FileExists(t, filepath.Join(out, config.ExportsSubdir, config.EnrichedCSV))
	assert.FileExists(t, filepath.Join(out, config.ExportsSubdir, config.WorkbookFile))

	charts, err := filepath.Glob(filepath.Join(out, config.ChartsSubdir, "*.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, charts)
}

func TestRun_ParsingFailure(t *testing.T) {
	input := testutil.WriteFile(t, "flows.csv", "client,server\nC1,8.8.8.8\n")
	out := filepath.Join(t.TempDir(), "reports")

	code, stdout, stderr := runCLI(t, "-in", input, "-out", out)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "run failed")
	assert.Contains(t, stderr, "PARSING")
}

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
	}{
		{name: "version", args: []string{"-version"}, wantCode: 0, wantStdout: contracts.GetVersionString()},
		{name: "unknown flag", args: []string{"-bogus"}, wantCode: 2},
		{name: "missing config file", args: []string{"-config", filepath.Join(os.TempDir(), "no-such-flowcli.yaml")}, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	input := testutil.WriteFlowsCSV(t, testutil.SampleFlows())
	out := filepath.Join(t.TempDir(), "reports")
	cfgFile := testutil.WriteFile(t, "flowcli.yaml", `
input:
  path: `+input+`
output:
  dir: `+out+`
  charts: false
  xlsx: false
reports:
  enabled: [external_share]
`)

	code, _, stderr := runCLI(t, "-config", cfgFile)
	require.Equal(t, 0, code, stderr)

	assert.FileExists(t, filepath.Join(out, config.ExportsSubdir, "external_share.csv"))
	assert.NoFileExists(t, filepath.Join(out, config.ExportsSubdir, config.WorkbookFile))
	charts, err := filepath.Glob(filepath.Join(out, config.ChartsSubdir, "*.png"))
	require.NoError(t, err)
	assert.Empty(t, charts)
}

func TestRun_ServeInvalidAddr(t *testing.T) {
	input := testutil.WriteFlowsCSV(t, testutil.SampleFlows())
	out := filepath.Join(t.TempDir(), "reports")

	code, stdout, stderr := runCLI(t, "-in", input, "-out", out, "-serve", "256.0.0.1:bad")

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Serving reports on 256.0.0.1:bad")
	assert.Contains(t, stderr, "server failed")
}
