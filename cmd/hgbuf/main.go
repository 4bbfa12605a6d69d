// Package main is the entry point for the hgbuf CLI.
//
// This binary runs Mercurial commands and shows their output as managed
// result surfaces. It delegates all functionality to the internal/cli
// package, which defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"github.com/shinji-kodama/hgbuf/internal/cli"
)

// version, commit, and date are set at build time via ldflags
// by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
