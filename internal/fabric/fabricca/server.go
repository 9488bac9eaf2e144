// Package fabricca builds invocations of fabric-ca-server and
// fabric-ca-client.
package fabricca

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// ServerCommand is a fabric-ca-server subcommand.
type ServerCommand string

const (
	ServerStart   ServerCommand = "start"
	ServerInit    ServerCommand = "init"
	ServerVersion ServerCommand = "version"
)

// ServerCommands lists every server subcommand.
var ServerCommands = []ServerCommand{ServerStart, ServerInit, ServerVersion}

// ServerOptions configures the CA server for init and start.
type ServerOptions struct {
	Home         string   `flag:"home" yaml:"home"`
	Port         int      `flag:"port" yaml:"port"`
	Address      string   `flag:"address" yaml:"address"`
	CAName       string   `flag:"ca.name" yaml:"ca_name"`
	Boot         string   `flag:"boot" yaml:"boot"`
	TLSEnabled   bool     `flag:"tls.enabled" yaml:"tls_enabled"`
	CSRCN        string   `flag:"csr.cn" yaml:"csr_cn"`
	CSRHosts     []string `flag:"csr.hosts" yaml:"csr_hosts"`
	DBType       string   `flag:"db.type" yaml:"db_type"`
	DBDatasource string   `flag:"db.datasource" yaml:"db_datasource"`
	Debug        bool     `flag:"debug" yaml:"debug"`
}

// OperationsOptions configures the operations endpoint of a running server.
type OperationsOptions struct {
	ListenAddress   string `flag:"operations.listenaddress" yaml:"listen_address"`
	MetricsProvider string `flag:"metrics.provider" yaml:"metrics_provider"`
}

// ServerBuilder builds fabric-ca-server command lines.
type ServerBuilder struct {
	*command.Builder[ServerCommand]
}

// NewServer returns a ServerBuilder with start as the active subcommand.
func NewServer(opts ...command.Option) *ServerBuilder {
	b := &ServerBuilder{Builder: command.New(fabric.CAServer, ServerStart, opts...)}
	b.SetReadiness(ServerStart, fabric.Readiness(fabric.CAServerReady))
	return b
}

// SetServerOptions stores server options. Requires start or init.
func (b *ServerBuilder) SetServerOptions(o *ServerOptions) error {
	return b.SetOptions(o, ServerStart, ServerInit)
}

// SetOperationsOptions stores operations endpoint options. Requires start.
func (b *ServerBuilder) SetOperationsOptions(o *OperationsOptions) error {
	return b.SetOptions(o, ServerStart)
}
