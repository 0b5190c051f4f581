// Command policyrag is the entry point for the policyrag CLI.
package main

import "github.com/custodia-labs/policyrag/internal/adapters/driving/cli"

// version is set at build time with -ldflags "-X main.version=v1.2.3".
var version = ""

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
