package job

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric/configtxlator"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric/fabricca"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric/orderer"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric/osnadmin"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric/peer"
)

type factory struct {
	commands []string
	build    func(j *Job, opts []command.Option) (Builder, error)
}

var factories = map[string]factory{
	fabric.Configtxlator: {names(configtxlator.Commands), buildConfigtxlator},
	fabric.OSNAdmin:      {names(osnadmin.Commands), buildOSNAdmin},
	fabric.CAServer:      {names(fabricca.ServerCommands), buildCAServer},
	fabric.CAClient:      {names(fabricca.ClientCommands), buildCAClient},
	fabric.Peer:          {names(peer.Commands), buildPeer},
	fabric.Orderer:       {names(orderer.Commands), buildOrderer},
}

func names[C ~string](cs []C) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func buildConfigtxlator(j *Job, opts []command.Option) (Builder, error) {
	b := configtxlator.New(opts...)
	configure(b.Builder, j)
	err := setters{
		"start":          decode(b.SetStartOptions),
		"proto":          decode(b.SetProtoOptions),
		"compute_update": decode(b.SetComputeUpdateOptions),
	}.apply(j)
	return b, err
}

// channelOptions carries the osnadmin values that have dedicated setters.
type channelOptions struct {
	ID          string `yaml:"id"`
	ConfigBlock string `yaml:"config_block"`
}

func buildOSNAdmin(j *Job, opts []command.Option) (Builder, error) {
	b := osnadmin.New(opts...)
	configure(b.Builder, j)
	err := setters{
		"connection": decode(b.SetConnectionOptions),
		"channel": decode(func(o *channelOptions) error {
			if err := b.SetChannelID(o.ID); err != nil {
				return err
			}
			return b.SetConfigBlock(o.ConfigBlock)
		}),
	}.apply(j)
	return b, err
}

func buildCAServer(j *Job, opts []command.Option) (Builder, error) {
	b := fabricca.NewServer(opts...)
	configure(b.Builder, j)
	err := setters{
		"server":     decode(b.SetServerOptions),
		"operations": decode(b.SetOperationsOptions),
	}.apply(j)
	return b, err
}

func buildCAClient(j *Job, opts []command.Option) (Builder, error) {
	b := fabricca.NewClient(opts...)
	configure(b.Builder, j)
	err := setters{
		"connection": decode(b.SetConnectionOptions),
		"enroll":     decode(b.SetEnrollOptions),
		"register":   decode(b.SetRegisterOptions),
		"revoke":     decode(b.SetRevokeOptions),
	}.apply(j)
	return b, err
}

func buildPeer(j *Job, opts []command.Option) (Builder, error) {
	b := peer.New(opts...)
	configure(b.Builder, j)
	err := setters{
		"node_start": decode(b.SetNodeStartOptions),
		"join":       decode(b.SetJoinOptions),
		"channel":    decode(b.SetChannelOptions),
		"tls":        decode(b.SetTLSOptions),
	}.apply(j)
	return b, err
}

func buildOrderer(j *Job, opts []command.Option) (Builder, error) {
	b := orderer.New(opts...)
	configure(b.Builder, j)
	return b, setters{}.apply(j)
}
