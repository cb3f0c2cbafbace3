package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topologyHCL = `
variable "exe" { default = "gcc" }

application "demo" {
  board "b0" {
    family      = "propeller-demo"
    memory_size = 5
    processor "cpu" {
      scheduler { policy = "load_aware" }
      core "c0" {
        process "main" {
          threads = ["loop"]
          compiler { executable_name = var.exe }
        }
      }
    }
  }
}
`

func writeTopology(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.hcl"), []byte(topologyHCL), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func requireExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, code, exitErr.Code)
	return exitErr
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	out, logs, err := execute(t, "validate", writeTopology(t))
	require.NoError(t, err)
	assert.Contains(t, out, `topology "demo" is valid: 1 boards, 1 processors, 1 cores, 1 processes`)
	assert.Contains(t, out, "warning: ")
	assert.Contains(t, logs, "Topology loaded.")
}

func TestValidateCommand_Variables(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "validate", "--var", "exe=clang", writeTopology(t))
	require.NoError(t, err)
	assert.Contains(t, out, "clang -> catalina")

	_, _, err = execute(t, "validate", "--var", "missing=1", writeTopology(t))
	require.ErrorContains(t, err, `undeclared variable "missing"`)
}

func TestValidateCommand_RequiresPath(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "validate")
	require.ErrorContains(t, err, "requires at least 1 arg")
}

func TestPlanCommand(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "plan", "--log-format", "json", "-f", "json", writeTopology(t))
	require.NoError(t, err)

	var decoded struct {
		Application string `json:"application"`
		Boards      []struct {
			Processors []struct {
				Policy string `json:"policy"`
				Cores  []struct {
					Threads []string `json:"threads"`
				} `json:"cores"`
			} `json:"processors"`
		} `json:"boards"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "demo", decoded.Application)
	proc := decoded.Boards[0].Processors[0]
	assert.Equal(t, "load_aware", proc.Policy)
	assert.Equal(t, []string{"main.loop", "main.idle"}, proc.Cores[0].Threads)
}

func TestPlanCommand_OutputFile(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "plan.yaml")
	out, _, err := execute(t, "plan", "--out", target, writeTopology(t))
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "application: demo")
}

func TestPlanCommand_BadFormat(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "plan", "-f", "xml", writeTopology(t))
	exitErr := requireExitCode(t, err, 2)
	assert.Contains(t, exitErr.Message, `invalid format "xml"`)
}

func TestFamiliesCommand(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "families")
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "p8x32a")
	assert.Contains(t, out, "propeller-demo")

	out, _, err = execute(t, "families", writeTopology(t))
	require.NoError(t, err)
	assert.Contains(t, out, "single-core")
}

func TestGlobalFlags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		args     []string
		contains string
	}{
		{"bad log format", []string{"--log-format", "xml", "families"}, "invalid log-format"},
		{"bad log level", []string{"--log-level", "loud", "families"}, "invalid log-level"},
		{"unknown flag", []string{"families", "--nope"}, "unknown flag: --nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tc.args...)
			exitErr := requireExitCode(t, err, 2)
			assert.Contains(t, exitErr.Message, tc.contains)
		})
	}

	_, _, err := execute(t, "--log-level", "DEBUG", "--log-format", "JSON", "families")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
