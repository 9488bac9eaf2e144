package fabricca

import (
	"github.com/randomizedcoder/go-fabric-cmd/internal/command"
	"github.com/randomizedcoder/go-fabric-cmd/internal/fabric"
)

// ClientCommand is a fabric-ca-client subcommand.
type ClientCommand string

const (
	ClientEnroll    ClientCommand = "enroll"
	ClientRegister  ClientCommand = "register"
	ClientReenroll  ClientCommand = "reenroll"
	ClientRevoke    ClientCommand = "revoke"
	ClientGetCAInfo ClientCommand = "getcainfo"
	ClientVersion   ClientCommand = "version"
)

// ClientCommands lists every client subcommand.
var ClientCommands = []ClientCommand{
	ClientEnroll, ClientRegister, ClientReenroll, ClientRevoke, ClientGetCAInfo, ClientVersion,
}

// connected are the subcommands that talk to a CA server.
var connected = []ClientCommand{ClientEnroll, ClientRegister, ClientReenroll, ClientRevoke, ClientGetCAInfo}

// ConnectionOptions locates the CA server and the client's local MSP.
type ConnectionOptions struct {
	URL          string   `flag:"url" yaml:"url"`
	Home         string   `flag:"home" yaml:"home"`
	MSPDir       string   `flag:"mspdir" yaml:"mspdir"`
	CAName       string   `flag:"caname" yaml:"caname"`
	TLSCertFiles []string `flag:"tls.certfiles" yaml:"tls_certfiles"`
	Debug        bool     `flag:"debug" yaml:"debug"`
}

// EnrollOptions configures enroll and reenroll.
type EnrollOptions struct {
	CSRCN    string   `flag:"csr.cn" yaml:"csr_cn"`
	CSRHosts []string `flag:"csr.hosts" yaml:"csr_hosts"`
	Profile  string   `flag:"enrollment.profile" yaml:"profile"`
	Label    string   `flag:"enrollment.label" yaml:"label"`
}

// RegisterOptions describes the identity to register.
type RegisterOptions struct {
	Name           string   `flag:"id.name" yaml:"name"`
	Secret         string   `flag:"id.secret" yaml:"secret"`
	Type           string   `flag:"id.type" yaml:"type"`
	Affiliation    string   `flag:"id.affiliation" yaml:"affiliation"`
	Attrs          []string `flag:"id.attrs" yaml:"attrs"`
	MaxEnrollments int      `flag:"id.maxenrollments" yaml:"max_enrollments"`
}

// RevokeOptions selects the identity or certificate to revoke.
type RevokeOptions struct {
	Name   string `flag:"revoke.name" yaml:"name"`
	Serial string `flag:"revoke.serial" yaml:"serial"`
	AKI    string `flag:"revoke.aki" yaml:"aki"`
	Reason string `flag:"revoke.reason" yaml:"reason"`
	GenCRL bool   `flag:"gencrl" yaml:"gencrl"`
}

// ClientBuilder builds fabric-ca-client command lines.
type ClientBuilder struct {
	*command.Builder[ClientCommand]
}

// NewClient returns a ClientBuilder with enroll as the active subcommand.
func NewClient(opts ...command.Option) *ClientBuilder {
	return &ClientBuilder{Builder: command.New(fabric.CAClient, ClientEnroll, opts...)}
}

// SetConnectionOptions stores server and MSP options. Not valid for version.
func (b *ClientBuilder) SetConnectionOptions(o *ConnectionOptions) error {
	return b.SetOptions(o, connected...)
}

// SetEnrollOptions stores CSR and enrollment options. Requires enroll or
// reenroll.
func (b *ClientBuilder) SetEnrollOptions(o *EnrollOptions) error {
	return b.SetOptions(o, ClientEnroll, ClientReenroll)
}

// SetRegisterOptions stores the identity to register. Requires register.
func (b *ClientBuilder) SetRegisterOptions(o *RegisterOptions) error {
	return b.SetOptions(o, ClientRegister)
}

// SetRevokeOptions stores revocation options. Requires revoke.
func (b *ClientBuilder) SetRevokeOptions(o *RevokeOptions) error {
	return b.SetOptions(o, ClientRevoke)
}
