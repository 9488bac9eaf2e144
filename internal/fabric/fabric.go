// Package fabric holds the names of the Hyperledger Fabric binaries and the
// log lines that mark their servers as ready.
package fabric

import "github.com/randomizedcoder/go-fabric-cmd/internal/process"

// Binary names as installed by the Fabric install script.
const (
	Configtxlator = "configtxlator"
	OSNAdmin      = "osnadmin"
	CAServer      = "fabric-ca-server"
	CAClient      = "fabric-ca-client"
	Peer          = "peer"
	Orderer       = "orderer"
	Configtxgen   = "configtxgen"
)

// Readiness patterns for the long-running servers. Fabric servers log on
// stderr while configtxlator prints its banner on stdout, so all of them
// watch both streams.
const (
	ConfigtxlatorReady = `Serving HTTP requests on`
	CAServerReady      = `Listening on http`
	PeerReady          = `Started peer with ID`
	OrdererReady       = `Beginning to serve requests`
)

// Readiness returns a fresh readiness matcher for pattern on both streams.
func Readiness(pattern string) *process.Readiness {
	return process.NewReadiness(pattern, process.Both)
}

// Binaries lists the binaries checked by preflight, in install order.
func Binaries() []string {
	return []string{
		Configtxlator,
		OSNAdmin,
		Peer,
		Orderer,
		CAServer,
		CAClient,
		Configtxgen,
	}
}
