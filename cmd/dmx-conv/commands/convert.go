package commands

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/source-dmx/dmx-go/pkg/datamodel"
	"github.com/source-dmx/dmx-go/pkg/version"
)

// ConvertOptions configures the convert command.
type ConvertOptions struct {
	Input    string
	Output   string
	Encoding string // Empty means the format manifest default
	Version  int    // 0 means the latest registered version of Encoding, or the format manifest default when Encoding is empty
}

// RunConvert runs the convert command.
func RunConvert(args []string, stdout, stderr io.Writer) int {
	opts, err := parseConvertArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if opts.Input == "" || opts.Output == "" {
		fmt.Fprintln(stderr, "Error: -in and -out are required")
		return exitCommandError
	}

	dm, err := loadFile(opts.Input, datamodel.DeferredDisabled)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", opts.Input, err)
		return exitCommandError
	}
	defer dm.Close()

	encoding, encVersion, err := resolveEncoding(dm, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating %s: %v\n", opts.Output, err)
		return exitCommandError
	}
	defer out.Close()

	if err := dm.Save(out, encoding, encVersion); err != nil {
		fmt.Fprintf(stderr, "Error saving: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintf(stdout, "Converted %s -> %s (%s %d)\n", opts.Input, opts.Output, encoding, encVersion)
	return exitSuccess
}

func parseConvertArgs(args []string, stderr io.Writer) (ConvertOptions, error) {
	var opts ConvertOptions
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Input, "in", "", "input file")
	fs.StringVar(&opts.Output, "out", "", "output file")
	fs.StringVar(&opts.Encoding, "encoding", "", "target encoding (default from format manifest)")
	fs.IntVar(&opts.Version, "version", 0, "target encoding version (default: latest version of -encoding, else from format manifest)")
	err := fs.Parse(args)
	return opts, err
}

// resolveEncoding picks the target encoding: both flags are used as given;
// an encoding alone gets its latest registered version; otherwise the format
// manifest default applies, then latest binary. A version given without an
// encoding is ignored.
func resolveEncoding(dm *datamodel.DataModel, opts ConvertOptions) (string, int, error) {
	if opts.Encoding != "" && opts.Version != 0 {
		return opts.Encoding, opts.Version, nil
	}
	if opts.Encoding != "" {
		versions := datamodel.RegisteredVersions(opts.Encoding)
		if len(versions) == 0 {
			return "", 0, fmt.Errorf("no codec registered for encoding %q", opts.Encoding)
		}
		return opts.Encoding, versions[len(versions)-1], nil
	}

	if m, err := version.LoadFormat(dm.Format()); err == nil {
		if enc, encVer, ok := m.DefaultEncoding(dm.FormatVersion()); ok {
			return enc, encVer, nil
		}
	}
	return version.EncodingBinary, version.LatestBinaryVersion, nil
}
