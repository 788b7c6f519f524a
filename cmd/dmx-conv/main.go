// dmx-conv is a CLI tool for converting and inspecting DMX datamodel files.
package main

import (
	"fmt"
	"os"

	"github.com/source-dmx/dmx-go/cmd/dmx-conv/commands"
	"github.com/source-dmx/dmx-go/pkg/version"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "convert":
		exitCode = commands.RunConvert(args, os.Stdout, os.Stderr)
	case "show":
		exitCode = commands.RunShow(args, os.Stdout, os.Stderr)
	case "formats":
		exitCode = commands.RunFormats(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "-v", "--version":
		fmt.Println("dmx-conv version " + version.Version)
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`dmx-conv - DMX datamodel conversion and inspection tool

Usage:
  dmx-conv <command> [options]

Commands:
  convert    Convert a datamodel file between encodings
  show       Display a datamodel file as an element tree
  formats    List the known format manifests
  version    Print the tool version
  help       Show this help`)
}
