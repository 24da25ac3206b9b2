// Package main is the entry point for the tunnels binary.
//
// tunnels manages named SSH port-forward tunnels on the local host. It keeps
// no daemon and no state file: every invocation re-derives which tunnels are
// up by scanning the process table for the identity tag each tunnel carries
// on its ssh command line.
//
// Usage:
//
//	tunnels start --name db      # start one configured tunnel
//	tunnels stop --all           # stop every configured tunnel
//	tunnels status --live        # watch the status table refresh
//
// The CLI is constructed in internal/cli. This file wires it up and handles
// top-level error reporting.
package main

import (
	"fmt"
	"os"

	"github.com/treykane/tunnels/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
