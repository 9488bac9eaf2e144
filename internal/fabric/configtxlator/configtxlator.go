// Package configtxlator builds invocations of the configtxlator binary.
package configtxlator

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// Command is a configtxlator subcommand.
type Command string

const (
	Start         Command = "start"
	ProtoEncode   Command = "proto_encode"
	ProtoDecode   Command = "proto_decode"
	ComputeUpdate Command = "compute_update"
	Version       Command = "version"
)

// Commands lists every subcommand in help order.
var Commands = []Command{Start, ProtoEncode, ProtoDecode, ComputeUpdate, Version}

// StartOptions configures the REST server started by `configtxlator start`.
type StartOptions struct {
	Hostname string   `flag:"hostname" yaml:"hostname"`
	Port     int      `flag:"port" yaml:"port"`
	CORS     []string `flag:"CORS" yaml:"cors"`
}

// ProtoOptions configures proto_encode and proto_decode.
type ProtoOptions struct {
	Input  string `flag:"input" yaml:"input"`
	Type   string `flag:"type" yaml:"type"`
	Output string `flag:"output" yaml:"output"`
}

// ComputeUpdateOptions configures compute_update.
type ComputeUpdateOptions struct {
	Original  string `flag:"original" yaml:"original"`
	Updated   string `flag:"updated" yaml:"updated"`
	ChannelID string `flag:"channel_id" yaml:"channel_id"`
	Output    string `flag:"output" yaml:"output"`
}

// Builder builds configtxlator command lines.
type Builder struct {
	*command.Builder[Command]
}

// New returns a Builder with start as the active subcommand.
func New(opts ...command.Option) *Builder {
	b := &Builder{Builder: command.New(fabric.Configtxlator, Start, opts...)}
	b.SetReadiness(Start, fabric.Readiness(fabric.ConfigtxlatorReady))
	return b
}

// SetStartOptions stores server options. Requires start.
func (b *Builder) SetStartOptions(o *StartOptions) error {
	return b.SetOptions(o, Start)
}

// SetProtoOptions stores encode/decode options. Requires proto_encode or
// proto_decode.
func (b *Builder) SetProtoOptions(o *ProtoOptions) error {
	return b.SetOptions(o, ProtoEncode, ProtoDecode)
}

// SetComputeUpdateOptions stores compute_update options.
func (b *Builder) SetComputeUpdateOptions(o *ComputeUpdateOptions) error {
	return b.SetOptions(o, ComputeUpdate)
}
