package cli

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// =============================================================================
// Test Helpers
// =============================================================================

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run("1.2.3", args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, body string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), mode))
	return path
}

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, sh not available: %v", err)
	}
}

// =============================================================================
// Tests: version and flags
// =============================================================================

func TestVersion(t *testing.T) {
	r := run(t, "version")
	assert.Equal(t, 0, r.code)
	assert.Equal(t, "go-fabric-cmd 1.2.3\n", r.stdout)
}

func TestInvalidConfig(t *testing.T) {
	r := run(t, "--log-format", "xml", "version")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "log")
	assert.Empty(t, r.stdout)
}

func TestUnknownCommand(t *testing.T) {
	r := run(t, "deploy")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unknown command")
}

// =============================================================================
// Tests: run
// =============================================================================

func TestRun_RequiresFile(t *testing.T) {
	r := run(t, "run")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, `required flag(s) "file" not set`)
}

func TestRun_PrintCmd(t *testing.T) {
	job := writeFile(t, t.TempDir(), "encode.yaml", `
binary: configtxlator
command: proto_encode
options:
  proto:
    input: a.json
    type: common.Block
`, 0o644)

	r := run(t, "run", "-f", job, "--print-cmd")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "configtxlator proto_encode --input a.json --type common.Block")
}

func TestRun_OptionGroupRejected(t *testing.T) {
	job := writeFile(t, t.TempDir(), "start.yaml", `
binary: configtxlator
command: start
options:
  proto:
    input: a.json
`, 0o644)

	r := run(t, "run", "-f", job, "--print-cmd")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "does not accept this option")
	assert.Empty(t, r.stdout)
}

func TestRun_ServerStoppedOnceReady(t *testing.T) {
	requireSh(t)
	bin := t.TempDir()
	writeFile(t, bin, fabric.CAServer, "#!/bin/sh\necho 'Listening on http://0.0.0.0:7054'\nexec sleep 30\n", 0o755)
	job := writeFile(t, t.TempDir(), "ca.yaml", "binary: fabric-ca-server\ncommand: start\n", 0o644)

	r := run(t, "--bin-dir", bin, "--grace-period", "1s", "run", "-f", job, "--wait=false")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Listening on http://0.0.0.0:7054")
	assert.Contains(t, r.stderr, "Processes Started:      1")
}

func TestRun_ServerExitAfterReady(t *testing.T) {
	requireSh(t)
	bin := t.TempDir()
	writeFile(t, bin, fabric.CAServer, "#!/bin/sh\necho 'Listening on http://0.0.0.0:7054'\nexit 3\n", 0o755)
	job := writeFile(t, t.TempDir(), "ca.yaml", "binary: fabric-ca-server\ncommand: start\n", 0o644)

	for i := 0; i < 10; i++ {
		r := run(t, "--bin-dir", bin, "run", "-f", job)
		require.Equal(t, 1, r.code, "attempt %d: %s", i, r.stderr)
		assert.Contains(t, r.stderr, "exited with code 3")
	}
}

func TestRun_FailureExitCode(t *testing.T) {
	requireSh(t)
	bin := t.TempDir()
	writeFile(t, bin, fabric.OSNAdmin, "#!/bin/sh\necho 'Error: channel already exists' 1>&2\nexit 1\n", 0o755)
	job := writeFile(t, t.TempDir(), "list.yaml", "binary: osnadmin\ncommand: list\n", 0o644)

	r := run(t, "--bin-dir", bin, "run", "-f", job)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "channel already exists")
	assert.Contains(t, r.stderr, "exited with code 1")
}

// =============================================================================
// Tests: setup and preflight
// =============================================================================

func TestSetup_PlainProgress(t *testing.T) {
	requireSh(t)
	work := t.TempDir()
	script := writeFile(t, work, "install-fabric.sh", "#!/bin/sh\necho \"args: $*\"\n", 0o755)

	r := run(t, "setup", "--script", script, "--work-dir", work, "--fabric-version", "2.5.12", "--components", "binary")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "[1/1] installing binary")
	assert.Contains(t, r.stdout, "args: --fabric-version 2.5.12 binary")
	assert.Contains(t, r.stdout, "[1/1] binary done in")
}

func TestSetup_InvalidComponent(t *testing.T) {
	r := run(t, "setup", "--components", "kubernetes")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "kubernetes")
}

func TestPreflight(t *testing.T) {
	requireSh(t)
	bin := t.TempDir()
	for _, b := range fabric.Binaries() {
		writeFile(t, bin, b, "#!/bin/sh\necho \""+b+":\"\necho ' Version: v2.5.12'\n", 0o755)
	}

	r := run(t, "--bin-dir", bin, "preflight")
	require.Equal(t, 0, r.code, r.stdout+r.stderr)
	assert.Contains(t, r.stdout, "Preflight checks:")
	assert.Contains(t, r.stdout, "version v2.5.12")
}
