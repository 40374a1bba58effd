// Package main implements the spygen CLI.
// It generates SystemVerilog spy interfaces from an RTL tree.
package main

import (
	"os"

	"github.com/l3aro/go-spygen/cmd/spygen/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.SetVersionTemplate(`spygen version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
