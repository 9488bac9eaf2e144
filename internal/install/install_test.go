package install

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
)

// =============================================================================
// Test Helpers
// =============================================================================

// recorder collects progress events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind == EventOutput {
			out = append(out, e.Line)
		}
	}
	return out
}

// fakeRunner records invocations and fails the listed components.
type fakeRunner struct {
	mu   sync.Mutex
	invs []process.Invocation
	fail map[string]error
}

func (f *fakeRunner) Run(_ context.Context, inv process.Invocation) (*process.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invs = append(f.invs, inv)
	return nil, f.fail[inv.Subcommand]
}

// writeScript writes an executable sh script, skipping when sh is missing.
func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, sh not available: %v", err)
	}
	path := filepath.Join(dir, DefaultScriptName)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// =============================================================================
// Tests: Update
// =============================================================================

func TestUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scripts/install-fabric.sh", r.URL.Path)
		_, _ = w.Write([]byte("#!/bin/bash\necho install\n"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "bin", DefaultScriptName)
	got, err := Update(t.Context(), UpdateOptions{URL: srv.URL + "/scripts/install-fabric.sh", Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\necho install\n", string(data))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestUpdate_HTTPErrorKeepsExistingScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), DefaultScriptName)
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o755))

	_, err := Update(t.Context(), UpdateOptions{URL: srv.URL, Dest: dest})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Update(ctx, UpdateOptions{URL: "http://127.0.0.1:1/x", Dest: filepath.Join(t.TempDir(), "s")})
	require.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Tests: Setup
// =============================================================================

func TestScriptArgs(t *testing.T) {
	tests := []struct {
		name string
		opts SetupOptions
		want []string
	}{
		{"both versions", SetupOptions{FabricVersion: "2.5.4", CAVersion: "1.5.7"},
			[]string{"--fabric-version", "2.5.4", "--ca-version", "1.5.7", "binary"}},
		{"fabric only", SetupOptions{FabricVersion: "2.5.4"},
			[]string{"--fabric-version", "2.5.4", "binary"}},
		{"defaults", SetupOptions{}, []string{"binary"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScriptArgs(tt.opts, ComponentBinary))
		})
	}
}

func TestSetup_RunsComponentsInOrder(t *testing.T) {
	r := &fakeRunner{}
	rec := &recorder{}
	inst := New(Config{Runner: r, Progress: rec.record})

	err := inst.Setup(t.Context(), SetupOptions{
		Script:        "/opt/install-fabric.sh",
		FabricVersion: "2.5.4",
		Components:    []string{ComponentBinary, ComponentDocker},
		WorkDir:       "/work",
	})
	require.NoError(t, err)

	require.Len(t, r.invs, 2)
	assert.Equal(t, "/opt/install-fabric.sh --fabric-version 2.5.4 binary", r.invs[0].String())
	assert.Equal(t, "docker", r.invs[1].Subcommand)
	assert.Equal(t, "/work", r.invs[1].Dir)
	assert.Equal(t, []EventKind{EventStarted, EventFinished, EventStarted, EventFinished}, rec.kinds())
}

func TestSetup_StopsAtFirstFailure(t *testing.T) {
	cause := errors.New("exit 1")
	r := &fakeRunner{fail: map[string]error{ComponentDocker: cause}}
	rec := &recorder{}

	err := New(Config{Runner: r, Progress: rec.record}).Setup(t.Context(), SetupOptions{
		Components: []string{ComponentBinary, ComponentDocker, ComponentSamples},
	})
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "install docker")
	assert.Len(t, r.invs, 2)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventFinished, last.Kind)
	assert.ErrorIs(t, last.Err, cause)
}

func TestSetup_Validation(t *testing.T) {
	r := &fakeRunner{}
	inst := New(Config{Runner: r})

	require.Error(t, inst.Setup(t.Context(), SetupOptions{}))
	err := inst.Setup(t.Context(), SetupOptions{Components: []string{ComponentBinary, "helm"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"helm"`)
	assert.Empty(t, r.invs)
}

func TestSetup_ScriptAndConfigCopy(t *testing.T) {
	work := t.TempDir()
	script := writeScript(t, work, `mkdir -p config
echo "core: true" > config/core.yaml
echo "orderer: true" > config/orderer.yaml
mkdir -p config/nested
echo "installed $*"`)
	dest := filepath.Join(t.TempDir(), "fabric-config")
	rec := &recorder{}

	err := New(Config{Progress: rec.record}).Setup(t.Context(), SetupOptions{
		Script:        script,
		FabricVersion: "2.5.4",
		Components:    []string{ComponentBinary},
		WorkDir:       work,
		Dest:          dest,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"installed --fabric-version 2.5.4 binary"}, rec.lines())
	for _, name := range []string{"core.yaml", "orderer.yaml"} {
		_, err := os.Stat(filepath.Join(dest, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dest, "nested"))
	assert.True(t, os.IsNotExist(err))
}

func TestSetup_ScriptFailure(t *testing.T) {
	work := t.TempDir()
	script := writeScript(t, work, `echo "Error: unsupported platform" >&2; exit 2`)

	err := New(Config{}).Setup(t.Context(), SetupOptions{
		Script:     script,
		Components: []string{ComponentSamples},
		WorkDir:    work,
	})
	var exitErr *process.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestEvent_String(t *testing.T) {
	assert.Equal(t, "[1/2] installing binary", Event{Kind: EventStarted, Component: "binary", Total: 2}.String())
	assert.Equal(t, "[2/2] docker failed: boom",
		Event{Kind: EventFinished, Component: "docker", Index: 1, Total: 2, Err: errors.New("boom")}.String())
	assert.Equal(t, "copied /x/core.yaml", Event{Kind: EventConfigCopied, Line: "/x/core.yaml"}.String())
}
