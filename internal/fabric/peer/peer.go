// Package peer builds invocations of the peer binary.
package peer

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// Command is a peer subcommand. Multi-word commands render as separate
// tokens.
type Command string

const (
	NodeStart      Command = "node start"
	ChannelJoin    Command = "channel join"
	ChannelList    Command = "channel list"
	ChannelGetInfo Command = "channel getinfo"
	Version        Command = "version"
)

// Commands lists every subcommand.
var Commands = []Command{NodeStart, ChannelJoin, ChannelList, ChannelGetInfo, Version}

// NodeStartOptions configures `peer node start`.
type NodeStartOptions struct {
	ChaincodeDev bool `flag:"peer-chaincodedev" yaml:"chaincodedev"`
}

// JoinOptions configures `peer channel join`.
type JoinOptions struct {
	BlockPath string `flag:"blockpath" yaml:"blockpath"`
}

// ChannelOptions selects the channel for getinfo.
type ChannelOptions struct {
	ChannelID string `flag:"channelID" yaml:"channel_id"`
}

// TLSOptions configures the orderer/peer client TLS connection.
type TLSOptions struct {
	TLS        bool   `flag:"tls" yaml:"tls"`
	CAFile     string `flag:"cafile" yaml:"cafile"`
	CertFile   string `flag:"certfile" yaml:"certfile"`
	KeyFile    string `flag:"keyfile" yaml:"keyfile"`
	ClientAuth bool   `flag:"clientauth" yaml:"clientauth"`
}

// Builder builds peer command lines. The peer reads most of its settings
// from core.yaml and CORE_* variables; use SetEnv for those.
type Builder struct {
	*command.Builder[Command]
}

// New returns a Builder with `node start` as the active subcommand.
func New(opts ...command.Option) *Builder {
	b := &Builder{Builder: command.New(fabric.Peer, NodeStart, opts...)}
	b.SetReadiness(NodeStart, fabric.Readiness(fabric.PeerReady))
	return b
}

// SetNodeStartOptions requires node start.
func (b *Builder) SetNodeStartOptions(o *NodeStartOptions) error {
	return b.SetOptions(o, NodeStart)
}

// SetJoinOptions requires channel join.
func (b *Builder) SetJoinOptions(o *JoinOptions) error {
	return b.SetOptions(o, ChannelJoin)
}

// SetChannelOptions requires channel getinfo.
func (b *Builder) SetChannelOptions(o *ChannelOptions) error {
	return b.SetOptions(o, ChannelGetInfo)
}

// SetTLSOptions stores client TLS options for the channel subcommands.
func (b *Builder) SetTLSOptions(o *TLSOptions) error {
	return b.SetOptions(o, ChannelJoin, ChannelList, ChannelGetInfo)
}
