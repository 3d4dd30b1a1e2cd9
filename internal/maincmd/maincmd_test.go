package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loomlang/loom/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args []string, stdin string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := maincmd.Cmd{BuildVersion: "test", BuildDate: "2026-01-01"}
	code := c.Main(args, mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return stdout.String(), stderr.String(), code
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.loom")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunFileSuccess(t *testing.T) {
	path := writeScript(t, `print 1 + 2;`)
	stdout, stderr, code := runCLI(t, []string{"loom", path}, "")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "3", stdout)
}

func TestRunFileCompileErrorExits65(t *testing.T) {
	path := writeScript(t, `print ;`)
	_, stderr, code := runCLI(t, []string{"loom", path}, "")
	require.Equal(t, 65, code)
	require.NotEmpty(t, stderr)
}

func TestRunFileRuntimeErrorExits70(t *testing.T) {
	path := writeScript(t, `print z;`)
	_, stderr, code := runCLI(t, []string{"loom", path}, "")
	require.Equal(t, 70, code)
	require.Contains(t, stderr, "Undefined variable 'z'.")
}

func TestRunMissingFileExits74(t *testing.T) {
	_, stderr, code := runCLI(t, []string{"loom", filepath.Join(t.TempDir(), "missing.loom")}, "")
	require.Equal(t, 74, code)
	require.NotEmpty(t, stderr)
}

func TestTooManyArgumentsExits64(t *testing.T) {
	_, stderr, code := runCLI(t, []string{"loom", "a.loom", "b.loom"}, "")
	require.Equal(t, 64, code)
	require.NotEmpty(t, stderr)
}

func TestReplPrintsPromptAndResult(t *testing.T) {
	stdout, _, code := runCLI(t, []string{"loom"}, "print 1 + 1;\n")
	require.Equal(t, 0, code)
	require.Equal(t, "> 2> ", stdout)
}

func TestHelpAndVersion(t *testing.T) {
	stdout, _, code := runCLI(t, []string{"loom", "--help"}, "")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "usage: loom")

	stdout, _, code = runCLI(t, []string{"loom", "--version"}, "")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "loom test 2026-01-01")
}
