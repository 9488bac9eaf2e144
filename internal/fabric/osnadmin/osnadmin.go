// Package osnadmin builds invocations of `osnadmin channel`, the ordering
// service channel participation client.
package osnadmin

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/args"
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// Prefix is the fixed token between the binary and the subcommand.
const Prefix = "channel"

// Command is an `osnadmin channel` subcommand.
type Command string

const (
	Join   Command = "join"
	List   Command = "list"
	Remove Command = "remove"
)

// Commands lists every subcommand.
var Commands = []Command{Join, List, Remove}

// ConnectionOptions locates the orderer admin endpoint and its TLS material.
type ConnectionOptions struct {
	OrdererAddress string `flag:"orderer-address" yaml:"orderer_address"`
	CAFile         string `flag:"ca-file" yaml:"ca_file"`
	ClientCert     string `flag:"client-cert" yaml:"client_cert"`
	ClientKey      string `flag:"client-key" yaml:"client_key"`
	NoStatus       bool   `flag:"no-status" yaml:"no_status"`
}

// Builder builds `osnadmin channel` command lines.
type Builder struct {
	*command.Builder[Command]
}

// New returns a Builder with list as the active subcommand.
func New(opts ...command.Option) *Builder {
	opts = append([]command.Option{command.WithPrefix(Prefix)}, opts...)
	return &Builder{Builder: command.New(fabric.OSNAdmin, List, opts...)}
}

// SetSubCommand selects the channel subcommand.
func (b *Builder) SetSubCommand(c Command) {
	b.SetCommand(c)
}

// SetConnectionOptions stores the endpoint options.
func (b *Builder) SetConnectionOptions(o *ConnectionOptions) error {
	return b.SetOptions(o, Join, List, Remove)
}

// SetChannelID sets --channelID. An empty id is ignored.
func (b *Builder) SetChannelID(id string) error {
	return b.SetValue("channelID", str(id), Join, List, Remove)
}

// SetConfigBlock sets --config-block, the genesis or latest config block to
// join with. Requires join.
func (b *Builder) SetConfigBlock(path string) error {
	return b.SetValue("config-block", str(path), Join)
}

func str(s string) args.Value {
	if s == "" {
		return args.Value{}
	}
	return args.String(s)
}
