// Package orderer builds invocations of the orderer binary.
package orderer

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// Command is an orderer subcommand.
type Command string

const (
	Start   Command = "start"
	Version Command = "version"
)

// Commands lists every subcommand.
var Commands = []Command{Start, Version}

// Builder builds orderer command lines. The orderer takes no flags; it is
// configured through orderer.yaml and ORDERER_* variables set with SetEnv.
type Builder struct {
	*command.Builder[Command]
}

// New returns a Builder with start as the active subcommand.
func New(opts ...command.Option) *Builder {
	b := &Builder{Builder: command.New(fabric.Orderer, Start, opts...)}
	b.SetReadiness(Start, fabric.Readiness(fabric.OrdererReady))
	return b
}

// SetGeneral sets ORDERER_GENERAL_<key>=value.
func (b *Builder) SetGeneral(key, value string) {
	b.SetEnv("ORDERER_GENERAL_"+key, value)
}
