// peekd - a local HTTP request inspector.
package main

import (
	"github.com/peekd/peekd/pkg/cli"
)

// Build-time variables set via ldflags
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if version != "dev" {
		cli.Version = version
	}
	if commit != "none" {
		cli.Commit = commit
	}
	if buildDate != "unknown" {
		cli.BuildDate = buildDate
	}
	cli.Execute()
}
