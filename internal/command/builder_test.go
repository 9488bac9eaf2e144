package command

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/go-fabric-cmd/internal/args"
	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
)

type testCommand string

const (
	cmdServe  testCommand = "serve"
	cmdEncode testCommand = "encode"
	cmdNested testCommand = "node start"
)

type serveOptions struct {
	Host    string        `flag:"host"`
	Port    int           `flag:"port"`
	TLS     bool          `flag:"tls"`
	Origins []string      `flag:"origins"`
	Timeout time.Duration `flag:"timeout"`
}

type badOptions struct {
	Name  string         `flag:"name"`
	Extra map[string]int `flag:"extra"`
}

// fakeRunner records the invocation it was given.
type fakeRunner struct {
	got process.Invocation
	err error
}

func (f *fakeRunner) Run(_ context.Context, inv process.Invocation) (*process.Process, error) {
	f.got = inv
	return nil, f.err
}

// =============================================================================
// Tests: command assertion
// =============================================================================

func TestAssertCommand(t *testing.T) {
	b := New("tool", cmdServe)
	require.NoError(t, b.AssertCommand(cmdServe, cmdEncode))

	err := b.AssertCommand(cmdEncode)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedCommand)

	var unsupported *UnsupportedCommandError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "serve", unsupported.Command)
	assert.Equal(t, []string{"encode"}, unsupported.Allowed)
	assert.Equal(t, `tool: command "serve" does not accept this option, allowed: [encode]`, err.Error())
}

func TestSetCommand_KeepsOtherMaps(t *testing.T) {
	b := New("tool", cmdServe)
	require.NoError(t, b.SetOptions(&serveOptions{Host: "0.0.0.0"}, cmdServe))

	b.SetCommand(cmdEncode)
	assert.Equal(t, cmdEncode, b.Command())
	assert.Equal(t, "tool encode", b.Build())

	b.SetCommand(cmdServe)
	assert.Equal(t, "tool serve --host 0.0.0.0", b.Build())
}

// =============================================================================
// Tests: option storage
// =============================================================================

func TestSetOptions(t *testing.T) {
	b := New("tool", cmdServe)
	err := b.SetOptions(&serveOptions{
		Host:    "localhost",
		Port:    7059,
		TLS:     true,
		Origins: []string{"a", "b"},
		Timeout: 30 * time.Second,
	}, cmdServe)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"serve", "--host", "localhost", "--port", "7059", "--tls", "--origins", "a,b", "--timeout", "30s"},
		b.Args())
}

func TestSetOptions_ZeroFieldsAreUndefined(t *testing.T) {
	b := New("tool", cmdServe)
	require.NoError(t, b.SetOptions(&serveOptions{Port: 80}, cmdServe))
	assert.Equal(t, "tool serve --port 80", b.Build())
}

func TestSetOptions_NilGroup(t *testing.T) {
	b := New("tool", cmdServe)
	var opts *serveOptions
	require.NoError(t, b.SetOptions(opts, cmdEncode))
	require.NoError(t, b.SetOptions(nil, cmdEncode))
	assert.Equal(t, "tool serve", b.Build())
}

func TestSetOptions_WrongCommandLeavesMapUntouched(t *testing.T) {
	b := New("tool", cmdServe)
	require.NoError(t, b.SetOptions(&serveOptions{Host: "h"}, cmdServe))
	before := b.CommandArgs(cmdServe)

	err := b.SetOptions(&serveOptions{Port: 1}, cmdEncode)
	require.ErrorIs(t, err, ErrUnsupportedCommand)
	assert.Equal(t, before.Keys(), b.CommandArgs(cmdServe).Keys())
	assert.Equal(t, 0, b.CommandArgs(cmdEncode).Len())
}

func TestSetOptions_EncodingFailureLeavesMapUntouched(t *testing.T) {
	b := New("tool", cmdServe)
	err := b.SetOptions(&badOptions{Name: "x", Extra: map[string]int{"a": 1}}, cmdServe)
	require.ErrorIs(t, err, args.ErrUnsupportedField)
	assert.Equal(t, 0, b.CommandArgs(cmdServe).Len())
}

func TestSetOptions_ReplaceKeepsPosition(t *testing.T) {
	b := New("tool", cmdServe)
	require.NoError(t, b.SetOptions(&serveOptions{Host: "a", Port: 1}, cmdServe))
	require.NoError(t, b.SetOptions(&serveOptions{Host: "b"}, cmdServe))
	assert.Equal(t, "tool serve --host b --port 1", b.Build())
}

func TestSetCommandArg_Undefined(t *testing.T) {
	b := New("tool", cmdServe)
	b.SetCommandArg(cmdServe, "host", args.Value{})
	assert.Equal(t, 0, b.CommandArgs(cmdServe).Len())
}

func TestSetValue(t *testing.T) {
	b := New("tool", cmdEncode)
	require.NoError(t, b.SetValue("input", args.String("a.json"), cmdEncode))
	require.ErrorIs(t, b.SetValue("host", args.String("x"), cmdServe), ErrUnsupportedCommand)
	assert.Equal(t, "tool encode --input a.json", b.Build())
}

func TestSetValue_UndefinedSkipsAssertion(t *testing.T) {
	b := New("tool", cmdEncode)
	require.NoError(t, b.SetValue("host", args.Value{}, cmdServe))
	assert.Equal(t, 0, b.CommandArgs(cmdEncode).Len())
	assert.Equal(t, "tool encode", b.Build())
}

func TestCommandArgs_IsCopy(t *testing.T) {
	b := New("tool", cmdServe)
	b.SetCommandArg(cmdServe, "host", args.String("h"))
	c := b.CommandArgs(cmdServe)
	c.Set("port", args.Int(1))
	assert.Equal(t, 1, b.CommandArgs(cmdServe).Len())
}

// =============================================================================
// Tests: rendering
// =============================================================================

func TestBuild_Idempotent(t *testing.T) {
	b := New("tool", cmdServe)
	require.NoError(t, b.SetOptions(&serveOptions{Host: "h", TLS: true}, cmdServe))
	first := b.Build()
	assert.Equal(t, first, b.Build())
	assert.Equal(t, b.Args(), b.Args())
}

func TestBuild_PrefixAndNestedCommand(t *testing.T) {
	b := New("osn", cmdEncode, WithPrefix("channel"))
	b.SetCommandArg(cmdEncode, "channelID", args.String("mychannel"))
	assert.Equal(t, "osn channel encode --channelID mychannel", b.Build())
	assert.Equal(t, []string{"encode", "--channelID", "mychannel"}, b.Args())

	n := New("peer", cmdNested)
	assert.Equal(t, []string{"node", "start"}, n.Args())
	assert.Equal(t, "peer node start", n.Build())
}

func TestInvocation(t *testing.T) {
	b := New("osn", cmdEncode, WithPrefix("channel"), WithBinaryPath("/opt/fabric/bin/osn"))
	b.SetCommandArg(cmdEncode, "channelID", args.String("c1"))
	b.SetEnv("FABRIC_CFG_PATH", "/etc/hyperledger/fabric")
	b.SetDir("/tmp")
	ready := process.NewReadiness("ready", process.Both)
	b.SetReadiness(cmdEncode, ready)

	inv := b.Invocation()
	assert.Equal(t, "/opt/fabric/bin/osn", inv.Binary)
	assert.Equal(t, "encode", inv.Subcommand)
	assert.Equal(t, []string{"channel", "encode", "--channelID", "c1"}, inv.Args)
	assert.Equal(t, []string{"FABRIC_CFG_PATH=/etc/hyperledger/fabric"}, inv.Env)
	assert.Equal(t, "/tmp", inv.Dir)
	assert.Same(t, ready, inv.Ready)
	assert.Equal(t, "osn channel encode --channelID c1", b.Build())

	b.SetCommand(cmdServe)
	assert.Nil(t, b.Invocation().Ready)

	b.SetReadiness(cmdEncode, nil)
	b.SetCommand(cmdEncode)
	assert.Nil(t, b.Invocation().Ready)
}

// =============================================================================
// Tests: execute
// =============================================================================

func TestExecute_PassesInvocation(t *testing.T) {
	r := &fakeRunner{}
	b := New("tool", cmdServe, WithRunner(r))
	b.SetCommandArg(cmdServe, "port", args.Int(9))

	_, err := b.Execute(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"serve", "--port", "9"}, r.got.Args)
	assert.Equal(t, "tool", r.got.Binary)
}

func TestExecute_LogsAndWrapsFailure(t *testing.T) {
	var buf bytes.Buffer
	cause := errors.New("boom")
	b := New("tool", cmdServe,
		WithRunner(&fakeRunner{err: cause}),
		WithLogger(logging.NewLoggerWithWriter(&buf, "text", "info")),
	)

	p, err := b.Execute(t.Context())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "execute tool serve")
	assert.Contains(t, buf.String(), "execute_failed")
	assert.Contains(t, buf.String(), "subcommand=serve")
}
