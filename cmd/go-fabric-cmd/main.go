// Package main provides the go-fabric-cmd CLI entry point.
//
// go-fabric-cmd builds, prints and runs command lines for the Hyperledger
// Fabric binaries, and installs those binaries with the Fabric install
// script.
package main

import (
	"os"

	"github.com/randomizedcoder/go-fabric-cmd/internal/cli"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-fabric-cmd
var version = "dev"

func main() {
	os.Exit(cli.Main(version))
}
