package commands

import (
	"flag"
	"fmt"
	"io"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/inspect"
)

// RunShow runs the show command.
func RunShow(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("in", "", "input file")
	depth := fs.Int("depth", 0, "maximum tree depth (0 = unlimited)")
	showIDs := fs.Bool("ids", false, "show element GUIDs")
	if err := fs.Parse(args); err != nil {
		return exitCommandError
	}
	if *input == "" {
		fmt.Fprintln(stderr, "Error: -in is required")
		return exitCommandError
	}

	dm, err := loadFile(*input, datamodel.DeferredDisabled)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", *input, err)
		return exitCommandError
	}
	defer dm.Close()

	f := inspect.NewFormatter()
	f.MaxDepth = *depth
	f.ShowIDs = *showIDs
	if err := f.WriteModel(stdout, dm); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	return exitSuccess
}
